package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"

	"rentals/internal/app/uow"
	domainbooking "rentals/internal/domain/booking"
	"rentals/internal/domain/shared/daterange"
	"rentals/internal/domain/shared/money"
)

func TestBookingDocumentKeepsDomainFields(t *testing.T) {
	in := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	b := &domainbooking.Booking{
		ID:        "ext-1",
		UnitID:    "car-1",
		Kind:      domainbooking.KindCar,
		Range:     daterange.Must(in, in.AddDate(0, 0, 2)),
		Total:     money.Must(6000, "KES"),
		ExtendsID: "orig",
		State:     domainbooking.StateRequested,
		CreatedAt: in,
		UpdatedAt: in,
		Version:   3,
	}
	doc := newBookingDocument(b)
	assert.Equal(t, "car", doc.Kind)
	assert.Equal(t, "orig", doc.ExtendsID)

	back, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, b.Range, back.Range)
	assert.Equal(t, b.Total, back.Total)
	assert.Equal(t, b.ExtendsID, back.ExtendsID)
	assert.Equal(t, int64(3), back.Version)
}

func TestBookingDocumentRejectsUnknownKind(t *testing.T) {
	_, err := bookingDocument{ID: "x", Kind: "boat"}.toAggregate()
	require.ErrorIs(t, err, domainbooking.ErrInvalidKind)
}

func TestTranslateWriteConflicts(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), uow.ErrConflict)

	transient := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{driver.TransientTransactionError}}
	assert.ErrorIs(t, translate(transient), uow.ErrConflict)

	other := errors.New("network down")
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
}
