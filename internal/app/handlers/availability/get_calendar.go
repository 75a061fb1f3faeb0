package availability

import (
	"context"

	"rentals/internal/app/dto"
	"rentals/internal/app/queries"
	"rentals/internal/app/uow"
	domainavailability "rentals/internal/domain/availability"
	domainbooking "rentals/internal/domain/booking"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	UnitID  string
	UnitKey string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Calendar   domainavailability.Calendar
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, ctx, release, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Calendar{}, err
	}
	if release != nil {
		defer release()
	}

	bookings, err := unit.Bookings().ListByUnit(ctx, domainbooking.UnitID(q.UnitID))
	if err != nil {
		return dto.Calendar{}, err
	}
	occupied := h.Calendar.Occupied(bookings, domainbooking.UnitKey(q.UnitKey))
	return dto.MapCalendar(q.UnitID, q.UnitKey, occupied), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
