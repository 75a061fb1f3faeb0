package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB       *mongo.Database
	Bookings *BookingRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a session with a snapshot transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.Bookings == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, bookings: f.Bookings, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	session  mongo.Session
	bookings *BookingRepository
	readOnly bool
}

func (u *Unit) Bookings() domainbooking.Repository {
	if u.readOnly {
		return readOnlyBookings{u.bookings}
	}
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return translate(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var ErrReadOnly = errors.New("mongo: write in read-only unit")

type readOnlyBookings struct {
	*BookingRepository
}

func (readOnlyBookings) Save(context.Context, *domainbooking.Booking) error {
	return ErrReadOnly
}
