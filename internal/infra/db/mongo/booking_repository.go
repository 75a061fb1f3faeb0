package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver"

	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

const (
	bookingsCollection  = "agg_booking"
	unitLocksCollection = "unit_locks"
)

// BookingRepository stores bookings with optimistic versioning. Every save
// also bumps the lock document of the unit, so two transactions that booked
// the same unit concurrently collide on it and one of them aborts.
type BookingRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewBookingRepository(ctx context.Context, db *mongo.Database) (*BookingRepository, error) {
	col := db.Collection(bookingsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "range.check_in", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: booking indexes: %w", err)
	}
	return &BookingRepository{col: col, locks: db.Collection(unitLocksCollection)}, nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConflict
	}
	if _, err := r.locks.UpdateByID(ctx, doc.UnitID, bson.M{"$inc": bson.M{"seq": 1}}, options.Update().SetUpsert(true)); err != nil {
		return translate(err)
	}
	b.Version = doc.Version
	return nil
}

// ListByUnit returns the bookings that occupy dates on unit, by check-in.
func (r *BookingRepository) ListByUnit(ctx context.Context, unit domainbooking.UnitID) ([]domainbooking.Booking, error) {
	filter := bson.M{"unit_id": string(unit), "state": bson.M{"$ne": string(domainbooking.StateCancelled)}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, cur.Err()
}

// translate turns duplicate keys and transaction write conflicts into
// uow.ErrConflict.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(driver.TransientTransactionError) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	return err
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	UnitID    string        `bson:"unit_id"`
	Kind      string        `bson:"kind"`
	UnitKey   string        `bson:"unit_key"`
	Range     rangeDocument `bson:"range"`
	Total     moneyDocument `bson:"total"`
	ExtendsID string        `bson:"extends_id,omitempty"`
	State     string        `bson:"state"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  time.Time `bson:"check_in"`
	CheckOut time.Time `bson:"check_out"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		UnitID:    string(b.UnitID),
		Kind:      string(b.Kind),
		UnitKey:   string(b.UnitKey),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UTC(), CheckOut: b.Range.CheckOut.UTC()},
		Total:     moneyDocument{Amount: b.Total.Amount, Currency: b.Total.Currency},
		ExtendsID: string(b.ExtendsID),
		State:     string(b.State),
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	kind, err := domainbooking.ParseUnitKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		UnitID:    domainbooking.UnitID(d.UnitID),
		Kind:      kind,
		UnitKey:   domainbooking.UnitKey(d.UnitKey),
		Range:     daterange.DateRange{CheckIn: d.Range.CheckIn.UTC(), CheckOut: d.Range.CheckOut.UTC()},
		Total:     money.Money{Amount: d.Total.Amount, Currency: d.Total.Currency},
		ExtendsID: domainbooking.BookingID(d.ExtendsID),
		State:     domainbooking.State(d.State),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}, nil
}
