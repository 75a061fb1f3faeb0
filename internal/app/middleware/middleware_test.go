package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/app/commands"
	"rentals/internal/app/outbox"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	"rentals/internal/domain/booking"
)

type submitCmd struct {
	key  string
	fail bool
}

func (c submitCmd) Key() string            { return "test.submit" }
func (c submitCmd) IdempotencyKey() string { return c.key }
func (c submitCmd) ResultPrototype() any   { return &submitResult{} }

func (c submitCmd) Validate() error {
	if c.key == "invalid" {
		return errors.New("invalid key")
	}
	return nil
}

type submitResult struct {
	N int `json:"n"`
}

type lookupQuery struct{}

func (lookupQuery) Key() string { return "test.lookup" }

type memStore struct {
	mu   sync.Mutex
	recs map[string]IdempotencyRecord
}

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Key] = rec
	return nil
}

type fakeUnit struct {
	committed, rolledBack int
}

func (u *fakeUnit) Bookings() booking.Repository   { return nil }
func (u *fakeUnit) Commit(context.Context) error   { u.committed++; return nil }
func (u *fakeUnit) Rollback(context.Context) error { u.rolledBack++; return nil }

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func countingBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[submitCmd, *submitResult](bus, "test.submit", commands.HandlerFunc[submitCmd, *submitResult](
		func(ctx context.Context, cmd submitCmd) (*submitResult, error) {
			*calls++
			if cmd.fail {
				return nil, errors.New("boom")
			}
			return &submitResult{N: *calls}, nil
		}))
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	store := &memStore{recs: map[string]IdempotencyRecord{}}
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[submitCmd, *submitResult](ctx, bus, submitCmd{key: "k-1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[submitCmd, *submitResult](ctx, bus, submitCmd{key: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.N, second.N)
	assert.Contains(t, store.recs, "test.submit:k-1")

	_, err = commands.Dispatch[submitCmd, *submitResult](ctx, bus, submitCmd{key: ""})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	calls := 0
	store := &memStore{recs: map[string]IdempotencyRecord{}}
	bus := ChainCommands(countingBus(&calls), Idempotency(store, nil))

	_, err := bus.Dispatch(context.Background(), submitCmd{key: "k-2", fail: true})
	require.Error(t, err)
	assert.Empty(t, store.recs)

	_, err = bus.Dispatch(context.Background(), submitCmd{key: "k-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(countingBus(&calls), Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), submitCmd{})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), submitCmd{fail: true})
	require.Error(t, err)

	require.Len(t, factory.units, 2)
	assert.Equal(t, 1, factory.units[0].committed)
	assert.Equal(t, 0, factory.units[0].rolledBack)
	assert.Equal(t, 0, factory.units[1].committed)
	assert.Equal(t, 1, factory.units[1].rolledBack)
}

func TestTransactionReusesBoundUnit(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(countingBus(&calls), Transaction(factory, nil))

	outer := &fakeUnit{}
	ctx := uow.ContextWithUnitOfWork(context.Background(), outer)
	_, err := bus.Dispatch(ctx, submitCmd{})
	require.NoError(t, err)
	assert.Empty(t, factory.units)
	assert.Zero(t, outer.committed)
}

func TestValidationStopsBadCommands(t *testing.T) {
	calls := 0
	bus := ChainCommands(countingBus(&calls), Validation(SelfValidation))

	_, err := bus.Dispatch(context.Background(), submitCmd{key: "invalid"})
	require.EqualError(t, err, "invalid key")
	assert.Zero(t, calls)
}

type recordingObserver struct {
	samples []string
}

func (o *recordingObserver) ObserveMessage(kind, key, outcome string, _ time.Duration) {
	o.samples = append(o.samples, kind+"/"+key+"/"+outcome)
}

func TestMetricsObservesOutcome(t *testing.T) {
	calls := 0
	obs := &recordingObserver{}
	bus := ChainCommands(countingBus(&calls), Metrics(obs))

	_, _ = bus.Dispatch(context.Background(), submitCmd{})
	_, _ = bus.Dispatch(context.Background(), submitCmd{fail: true})

	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler[lookupQuery, string](qbus, "test.lookup", queries.HandlerFunc[lookupQuery, string](
		func(context.Context, lookupQuery) (string, error) { return "ok", nil }))
	_, err := ChainQueries(qbus, QueryMetrics(obs)).Ask(context.Background(), lookupQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{"command/test.submit/ok", "command/test.submit/error", "query/test.lookup/ok"}, obs.samples)
}

func TestChainOrderOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			nextFn := wrapCommand(next)
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return nextFn(ctx, cmd)
			})
		}
	}
	calls := 0
	bus := ChainCommands(countingBus(&calls), tag("a"), tag("b"))
	_, err := bus.Dispatch(context.Background(), submitCmd{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

type flakyOutbox struct {
	flushes int
	err     error
}

func (o *flakyOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (o *flakyOutbox) Flush(context.Context) error             { o.flushes++; return o.err }

func TestOutboxFlushAfterSuccessOnly(t *testing.T) {
	calls := 0
	box := &flakyOutbox{err: errors.New("broker down")}
	bus := ChainCommands(countingBus(&calls), OutboxFlush(box, nil))

	res, err := bus.Dispatch(context.Background(), submitCmd{})
	require.NoError(t, err)
	assert.Equal(t, &submitResult{N: 1}, res)
	assert.Equal(t, 1, box.flushes)

	_, err = bus.Dispatch(context.Background(), submitCmd{fail: true})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}
