package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/repository"
)

// stubLifecycle returns canned results so handler tests exercise
// only binding, validation and error translation.
type stubLifecycle struct {
	tickets []model.Ticket
	ticket  model.Ticket
	payment model.Payment
	err     error
}

func (s *stubLifecycle) Reserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, customerID *uint64, userID uint64) ([]model.Ticket, error) {
	return s.tickets, s.err
}
func (s *stubLifecycle) DirectSale(ctx context.Context, showtimeID, seatID uint64, customerID *uint64, userID uint64, method string) (model.Ticket, model.Payment, error) {
	return s.ticket, s.payment, s.err
}
func (s *stubLifecycle) ConfirmReservation(ctx context.Context, ticketID, userID uint64, method string) (model.Ticket, model.Payment, error) {
	return s.ticket, s.payment, s.err
}
func (s *stubLifecycle) RefundTicket(ctx context.Context, ticketID, userID uint64) (model.Payment, error) {
	return s.payment, s.err
}

var handlerStatuses = func() *model.StatusSet {
	s, err := model.NewStatusSet([]model.TicketStatus{
		{ID: 1, Name: model.StatusReserved},
		{ID: 2, Name: model.StatusPaid},
		{ID: 3, Name: model.StatusCancelled},
		{ID: 4, Name: model.StatusRefunded},
	})
	if err != nil {
		panic(err)
	}
	return s
}()

func newStubHandler(lc *stubLifecycle) *TicketHandler {
	h := &TicketHandler{
		Booking: lc,
		Tickets: repository.NewTicketRepo(nil, handlerStatuses),
	}
	return h
}

// call performs a JSON POST against the handler with the ticket id
// path param and an authenticated user in context.
func call(t *testing.T, fn echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(path)
	c.Set("user_id", uint64(42))
	c.Set("role", model.RoleCashier)
	require.NoError(t, fn(c))
	return rec
}

func TestReserveHandlerSuccess(t *testing.T) {
	lc := &stubLifecycle{tickets: []model.Ticket{
		{ID: 1, ShowtimeID: 3, SeatID: 10, UserID: 42, StatusID: handlerStatuses.IDOf(model.StatusReserved)},
		{ID: 2, ShowtimeID: 3, SeatID: 11, UserID: 42, StatusID: handlerStatuses.IDOf(model.StatusReserved)},
	}}
	rec := call(t, newStubHandler(lc).Reserve, "3", `{"seat_ids":[10,11]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Tickets []ticketResp `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tickets, 2)
	assert.Equal(t, "RESERVED", resp.Tickets[0].Status)
	assert.Equal(t, uint64(10), resp.Tickets[0].SeatID)
}

func TestReserveHandlerConflictListsSeats(t *testing.T) {
	lc := &stubLifecycle{err: &booking.ConflictError{SeatIDs: []uint64{10, 12}}}
	rec := call(t, newStubHandler(lc).Reserve, "3", `{"seat_ids":[10,11,12]}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{10, 12}, resp.SeatIDs)
}

func TestBookingErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", booking.ErrNotFound, http.StatusNotFound},
		{"conflict", booking.ErrConflict, http.StatusConflict},
		{"invalid state", booking.ErrInvalidState, http.StatusUnprocessableEntity},
		{"expired", booking.ErrExpired, http.StatusGone},
		{"too late", booking.ErrTooLate, http.StatusUnprocessableEntity},
		{"no seats", booking.ErrNoSeats, http.StatusBadRequest},
		{"transient failure", errors.New("driver: bad connection"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newStubHandler(&stubLifecycle{err: tt.err})
			rec := call(t, h.Confirm, "5", `{"method":"CASH"}`)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRefundHandlerTooLate(t *testing.T) {
	h := newStubHandler(&stubLifecycle{err: booking.ErrTooLate})
	rec := call(t, h.Refund, "5", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConfirmHandlerRejectsBadMethod(t *testing.T) {
	h := newStubHandler(&stubLifecycle{})
	rec := call(t, h.Confirm, "5", `{"method":"IOU"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectSaleHandlerRequiresSeat(t *testing.T) {
	h := newStubHandler(&stubLifecycle{})
	rec := call(t, h.DirectSale, "3", `{"method":"CASH"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlersRejectBadID(t *testing.T) {
	h := newStubHandler(&stubLifecycle{})
	for _, fn := range []echo.HandlerFunc{h.Reserve, h.DirectSale, h.Confirm, h.Refund} {
		rec := call(t, fn, "zero", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
