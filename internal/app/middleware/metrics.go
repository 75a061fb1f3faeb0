package middleware

import (
	"context"
	"time"

	"rentals/internal/app/commands"
	"rentals/internal/app/queries"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Observer receives one sample per handled message.
type Observer interface {
	ObserveMessage(kind, key, outcome string, took time.Duration)
}

func Metrics(o Observer) CommandMiddleware {
	if o == nil {
		panic("middleware: observer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			o.ObserveMessage("command", cmd.Key(), outcome(err), time.Since(start))
			return res, err
		})
	}
}

func QueryMetrics(o Observer) QueryMiddleware {
	if o == nil {
		panic("middleware: observer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			o.ObserveMessage("query", q.Key(), outcome(err), time.Since(start))
			return res, err
		})
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
