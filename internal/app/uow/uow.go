// Package uow scopes booking reads and writes to one transaction. The unit
// travels in the context so handlers nested under the Transaction middleware
// share it.
package uow

import (
	"context"
	"errors"

	"rentals/internal/domain/booking"
)

var (
	// ErrConflict is returned when a concurrent unit wrote the same unit's
	// bookings first. The command may be retried.
	ErrConflict          = errors.New("uow: concurrent write conflict")
	ErrUnitOfWorkMissing = errors.New("uow: no unit of work and no factory")
)

type UnitOfWork interface {
	Bookings() booking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions.ReadOnly units refuse Save; memory units skip the writer lock.
type TxOptions struct {
	ReadOnly bool
}

type unitKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Begin returns the unit already bound to ctx, or starts one from factory and
// binds it. release is nil when the unit was inherited; otherwise the caller
// owns it and must call release (rollback) unless it commits.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = ContextWithUnitOfWork(execCtx, unit)
	release := func() {
		// a cancelled request must still roll back
		_ = unit.Rollback(context.WithoutCancel(execCtx))
	}
	return unit, execCtx, release, nil
}
