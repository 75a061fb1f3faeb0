package middleware

import (
	"context"
	"log/slog"

	"rentals/internal/app/commands"
	"rentals/internal/app/outbox"
)

// OutboxFlush relays the records of a committed command. It must wrap
// Transaction: by the time it runs the command is stored, so a relay failure
// is logged and left for the next flush instead of failing the command.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if flushErr := box.Flush(context.WithoutCancel(ctx)); flushErr != nil {
				logger.WarnContext(ctx, "outbox flush failed, records kept for retry",
					"command", cmd.Key(), "error", flushErr)
			}
			return res, nil
		})
	}
}
