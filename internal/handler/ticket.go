package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	queue_publisher "github.com/iliyamo/cinema-box-office/internal/service"
)

// Lifecycle is the slice of the booking service the ticket handler
// needs.  Declared here so tests can plug in a stub.
type Lifecycle interface {
	Reserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, customerID *uint64, userID uint64) ([]model.Ticket, error)
	DirectSale(ctx context.Context, showtimeID, seatID uint64, customerID *uint64, userID uint64, method string) (model.Ticket, model.Payment, error)
	ConfirmReservation(ctx context.Context, ticketID, userID uint64, method string) (model.Ticket, model.Payment, error)
	RefundTicket(ctx context.Context, ticketID, userID uint64) (model.Payment, error)
}

// TicketHandler serves reservation, sale, confirmation and refund
// endpoints plus ticket/payment lookups.
type TicketHandler struct {
	Booking   Lifecycle
	Tickets   *repository.TicketRepo
	Payments  *repository.PaymentRepo
	Showtimes *repository.ShowtimeRepo
	Customers *repository.CustomerRepo

	// publish is swappable in tests; defaults to RabbitMQ.
	publish func(ctx context.Context, ev queue.TicketEvent) error
}

func NewTicketHandler(b Lifecycle, t *repository.TicketRepo, p *repository.PaymentRepo, s *repository.ShowtimeRepo, c *repository.CustomerRepo) *TicketHandler {
	return &TicketHandler{
		Booking:   b,
		Tickets:   t,
		Payments:  p,
		Showtimes: s,
		Customers: c,
		publish:   queue_publisher.PublishTicketEvent,
	}
}

// ----- DTOs -----

type reserveReq struct {
	SeatIDs    []uint64 `json:"seat_ids"`
	CustomerID *uint64  `json:"customer_id,omitempty"`
}

type directSaleReq struct {
	SeatID     uint64  `json:"seat_id"`
	CustomerID *uint64 `json:"customer_id,omitempty"`
	Method     string  `json:"method"`
}

type confirmReq struct {
	Method string `json:"method"`
}

type ticketResp struct {
	ID         uint64    `json:"id"`
	ShowtimeID uint64    `json:"showtime_id"`
	SeatID     uint64    `json:"seat_id"`
	CustomerID *uint64   `json:"customer_id,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type paymentResp struct {
	ID          uint64    `json:"id"`
	TicketID    uint64    `json:"ticket_id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *TicketHandler) toTicketResp(t model.Ticket) ticketResp {
	return ticketResp{
		ID:         t.ID,
		ShowtimeID: t.ShowtimeID,
		SeatID:     t.SeatID,
		CustomerID: t.CustomerID,
		Status:     h.Tickets.Statuses().NameOf(t.StatusID),
		CreatedAt:  t.CreatedAt,
	}
}

func toPaymentResp(p model.Payment) paymentResp {
	return paymentResp{
		ID:          p.ID,
		TicketID:    p.TicketID,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		CreatedAt:   p.CreatedAt,
	}
}

// bookingError translates booking sentinel errors to HTTP
// responses.  Anything unrecognized is treated as a transient
// store failure so clients know a retry may succeed.
func bookingError(c echo.Context, err error) error {
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats unavailable", "seat_ids": conflict.SeatIDs})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrInvalidState):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "operation not valid for ticket state"})
	case errors.Is(err, booking.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "reservation expired"})
	case errors.Is(err, booking.ErrTooLate):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "showtime already started"})
	case errors.Is(err, booking.ErrNoSeats):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids required"})
	default:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
}

// checkCustomer verifies that a customer_id from a request body
// exists.  nil is fine (walk-in guest).
func (h *TicketHandler) checkCustomer(ctx context.Context, customerID *uint64) error {
	if customerID == nil {
		return nil
	}
	_, err := h.Customers.GetByID(ctx, *customerID)
	return err
}

// Reserve creates RESERVED tickets for the requested seats of the
// showtime, all-or-nothing.
func (h *TicketHandler) Reserve(c echo.Context) error {
	showtimeID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.checkCustomer(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}

	tickets, err := h.Booking.Reserve(ctx, showtimeID, req.SeatIDs, req.CustomerID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, h.toTicketResp(t))
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": out})
}

// DirectSale sells one seat immediately: the ticket is created
// PAID with its ledger entry in the same transaction.
func (h *TicketHandler) DirectSale(c echo.Context) error {
	showtimeID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req directSaleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id required"})
	}
	method := normalizeMethod(req.Method)
	if method == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be CASH or CARD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.checkCustomer(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}

	ticket, payment, err := h.Booking.DirectSale(ctx, showtimeID, req.SeatID, req.CustomerID, userID, method)
	if err != nil {
		return bookingError(c, err)
	}
	h.publishTicketEvent(queue.KindTicketIssued, ticket, payment)
	return c.JSON(http.StatusCreated, echo.Map{
		"ticket":  h.toTicketResp(ticket),
		"payment": toPaymentResp(payment),
	})
}

// Confirm turns a reservation into a paid ticket, applying the
// booking surcharge.
func (h *TicketHandler) Confirm(c echo.Context) error {
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := normalizeMethod(req.Method)
	if method == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be CASH or CARD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ticket, payment, err := h.Booking.ConfirmReservation(ctx, ticketID, userID, method)
	if err != nil {
		return bookingError(c, err)
	}
	h.publishTicketEvent(queue.KindTicketIssued, ticket, payment)
	return c.JSON(http.StatusOK, echo.Map{
		"ticket":  h.toTicketResp(ticket),
		"payment": toPaymentResp(payment),
	})
}

// Refund reverses a paid ticket before the showtime starts.
func (h *TicketHandler) Refund(c echo.Context) error {
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payment, err := h.Booking.RefundTicket(ctx, ticketID, userID)
	if err != nil {
		return bookingError(c, err)
	}
	// Fetch the ticket again for the event payload; the refund has
	// already committed so a lookup failure only degrades the event.
	if t, err := h.Tickets.GetByID(ctx, ticketID); err == nil {
		h.publishTicketEvent(queue.KindTicketRefunded, t, payment)
	}
	return c.JSON(http.StatusOK, echo.Map{"payment": toPaymentResp(payment)})
}

// Get returns a single ticket by id.
func (h *TicketHandler) Get(c echo.Context) error {
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	t, err := h.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusOK, h.toTicketResp(t))
}

// ListPayments returns the full ledger history of a ticket, oldest
// first.
func (h *TicketHandler) ListPayments(c echo.Context) error {
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	payments, err := h.Payments.ListByTicket(ctx, ticketID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	out := make([]paymentResp, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": ticketID, "payments": out})
}

// publishTicketEvent emits a broker event in the background.  The
// HTTP response never waits on the broker and never fails because
// of it.
func (h *TicketHandler) publishTicketEvent(kind string, t model.Ticket, p model.Payment) {
	ev := queue.TicketEvent{
		Kind:        kind,
		TicketID:    t.ID,
		ShowtimeID:  t.ShowtimeID,
		SeatID:      t.SeatID,
		UserID:      p.UserID,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if st, err := h.Showtimes.GetByID(ctx, t.ShowtimeID); err == nil {
			ev.FilmTitle = st.FilmTitle
			ev.StartsAt = st.StartsAt.Format(time.RFC3339)
		}
		if err := h.publish(ctx, ev); err != nil {
			log.Printf("ticket event %s for ticket %d not published: %v", kind, t.ID, err)
		}
	}()
}

// normalizeMethod validates the payment method from a request.
func normalizeMethod(m string) string {
	switch m {
	case "CASH", "CARD":
		return m
	default:
		return ""
	}
}
