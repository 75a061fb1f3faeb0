// Package commands is the write side: booking requests, extension
// submissions and submission decisions.
package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a write intent routed by Key.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) { return f(ctx, cmd) }

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch is the typed front of Bus.Dispatch. A nil result yields the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var out R
	if bus == nil {
		return out, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	switch {
	case err != nil:
		return out, err
	case res == nil:
		return out, nil
	}
	out, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
	}
	return out, nil
}

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus routes commands to handlers registered at startup. Registration
// is not safe for concurrent use; Dispatch is.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r(ctx, cmd)
}

// RegisterHandler binds handler under key. It panics on an empty or
// duplicate key, or when key differs from the zero C's own Key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	var zero C
	switch {
	case bus == nil:
		panic("commands: nil bus")
	case key == "":
		panic("commands: empty key")
	case zero.Key() != key:
		panic(fmt.Sprintf("commands: key %q registered for %T which routes as %q", key, zero, zero.Key()))
	}
	if _, dup := bus.routes[key]; dup {
		panic("commands: duplicate registration for " + key)
	}
	bus.routes[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrInvalidCommand, key, raw)
		}
		return handler.Handle(ctx, cmd)
	}
}
