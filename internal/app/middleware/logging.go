package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentals/internal/app/commands"
	"rentals/internal/app/queries"
)

func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, took time.Duration, err error) {
	attrs := []any{slog.String("kind", kind), slog.String("key", key), slog.Duration("took", took)}
	if err != nil {
		logger.DebugContext(ctx, "message failed", append(attrs, slog.Any("err", err))...)
		return
	}
	logger.DebugContext(ctx, "message handled", attrs...)
}
