package middleware

import (
	"context"

	"rentals/internal/app/commands"
	"rentals/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs each command in its own unit of work, committing when the
// handler succeeds. A unit already bound to ctx is reused and left to its owner.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, execCtx, release, err := uow.Begin(ctx, factory, opts)
			if err != nil {
				return nil, err
			}
			if release == nil {
				return nextFn(execCtx, cmd)
			}
			committed := false
			defer func() {
				if !committed {
					release()
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
