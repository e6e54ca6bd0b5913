package booking

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Config carries the lifecycle settings loaded from the
// environment.  Timeout is the reservation expiry window measured
// from the ticket's creation time.
type Config struct {
	Timeout time.Duration
	Price   PriceConfig
}

// Service is the reservation lifecycle manager.  It owns every
// ticket status transition and the atomicity contract around them:
// the occupancy re-check, the ticket write and the payment write of
// one operation always commit or roll back together.
type Service struct {
	store    Store
	statuses *model.StatusSet
	cfg      Config
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.  Tests use this to move a
// reservation past its timeout without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs the lifecycle manager.  The status set must
// contain the four canonical statuses; callers load it once at
// startup.
func NewService(store Store, statuses *model.StatusSet, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		statuses: statuses,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OccupiedSeats returns every seat of the showtime held by a ticket
// in a non-terminal status (RESERVED or PAID).  A showtime with no
// tickets yields an empty slice.
func (s *Service) OccupiedSeats(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	ids, err := s.store.OccupiedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// Reserve creates one RESERVED ticket per requested seat for the
// showtime.  The batch is all-or-nothing: if any seat is already
// held the whole operation fails with a ConflictError listing the
// unavailable seats and no ticket is created.  The occupancy check
// runs inside the same transaction as the inserts, and the store's
// uniqueness guard rejects the loser of any remaining race.
func (s *Service) Reserve(ctx context.Context, showtimeID uint64, seatIDs []uint64, customerID *uint64, userID uint64) ([]model.Ticket, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}
	reserved := s.statuses.IDOf(model.StatusReserved)
	var tickets []model.Ticket
	err := s.store.WithTx(ctx, func(tx StoreTx) error {
		if _, err := tx.Showtime(ctx, showtimeID); err != nil {
			return err
		}
		if err := s.checkFree(ctx, tx, showtimeID, seatIDs); err != nil {
			return err
		}
		now := s.now()
		tickets = make([]model.Ticket, 0, len(seatIDs))
		for _, seatID := range seatIDs {
			t := model.Ticket{
				ShowtimeID: showtimeID,
				SeatID:     seatID,
				CustomerID: customerID,
				UserID:     userID,
				StatusID:   reserved,
				CreatedAt:  now,
			}
			if err := tx.CreateTicket(ctx, &t); err != nil {
				return err
			}
			tickets = append(tickets, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DirectSale creates a PAID ticket for a walk-up sale and records
// the charge in the payment ledger atomically.  No booking
// surcharge applies.  If the payment insert fails the ticket insert
// rolls back with it; a direct-sale ticket never exists without its
// payment.
func (s *Service) DirectSale(ctx context.Context, showtimeID, seatID uint64, customerID *uint64, userID uint64, method string) (model.Ticket, model.Payment, error) {
	paid := s.statuses.IDOf(model.StatusPaid)
	var (
		ticket  model.Ticket
		payment model.Payment
	)
	err := s.store.WithTx(ctx, func(tx StoreTx) error {
		st, err := tx.Showtime(ctx, showtimeID)
		if err != nil {
			return err
		}
		if err := s.checkFree(ctx, tx, showtimeID, []uint64{seatID}); err != nil {
			return err
		}
		amount, err := s.amountFor(ctx, tx, st, false, customerID != nil)
		if err != nil {
			return err
		}
		now := s.now()
		ticket = model.Ticket{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			CustomerID: customerID,
			UserID:     userID,
			StatusID:   paid,
			CreatedAt:  now,
		}
		if err := tx.CreateTicket(ctx, &ticket); err != nil {
			return err
		}
		payment = model.Payment{
			TicketID:    ticket.ID,
			AmountCents: amount,
			Method:      method,
			UserID:      userID,
			CreatedAt:   now,
		}
		return tx.InsertPayment(ctx, &payment)
	})
	if err != nil {
		return model.Ticket{}, model.Payment{}, err
	}
	return ticket, payment, nil
}

// ConfirmReservation transitions a RESERVED ticket to PAID and
// records the surcharged payment.  A reservation past its timeout
// is cancelled as a side effect and the call fails with ErrExpired
// (lazy expiration).  When a concurrent sweep or confirmation wins
// the row lock first, this call observes the new status and fails
// with ErrInvalidState instead of corrupting state.
func (s *Service) ConfirmReservation(ctx context.Context, ticketID, userID uint64, method string) (model.Ticket, model.Payment, error) {
	reserved := s.statuses.IDOf(model.StatusReserved)
	paid := s.statuses.IDOf(model.StatusPaid)
	cancelled := s.statuses.IDOf(model.StatusCancelled)
	var (
		ticket  model.Ticket
		payment model.Payment
		expired bool
	)
	err := s.store.WithTx(ctx, func(tx StoreTx) error {
		t, err := tx.TicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.StatusID != reserved {
			return ErrInvalidState
		}
		if s.now().After(t.CreatedAt.Add(s.cfg.Timeout)) {
			// Cancel in-place so the seat frees up immediately; the
			// commit below still happens before ErrExpired surfaces.
			expired = true
			return tx.UpdateTicketStatus(ctx, t.ID, cancelled, false)
		}
		st, err := tx.Showtime(ctx, t.ShowtimeID)
		if err != nil {
			return err
		}
		amount, err := s.amountFor(ctx, tx, st, true, t.CustomerID != nil)
		if err != nil {
			return err
		}
		if err := tx.UpdateTicketStatus(ctx, t.ID, paid, true); err != nil {
			return err
		}
		payment = model.Payment{
			TicketID:    t.ID,
			AmountCents: amount,
			Method:      method,
			UserID:      userID,
			CreatedAt:   s.now(),
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return err
		}
		t.StatusID = paid
		ticket = t
		return nil
	})
	if err != nil {
		return model.Ticket{}, model.Payment{}, err
	}
	if expired {
		return model.Ticket{}, model.Payment{}, ErrExpired
	}
	return ticket, payment, nil
}

// RefundTicket transitions a PAID ticket to REFUNDED and appends a
// negative ledger entry equal to the original charge.  Refunds are
// only possible before the showtime starts; afterwards the call
// fails with ErrTooLate and no payment is recorded.
func (s *Service) RefundTicket(ctx context.Context, ticketID, userID uint64) (model.Payment, error) {
	paid := s.statuses.IDOf(model.StatusPaid)
	refunded := s.statuses.IDOf(model.StatusRefunded)
	var payment model.Payment
	err := s.store.WithTx(ctx, func(tx StoreTx) error {
		t, err := tx.TicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if t.StatusID != paid {
			return ErrInvalidState
		}
		st, err := tx.Showtime(ctx, t.ShowtimeID)
		if err != nil {
			return err
		}
		if s.now().After(st.StartsAt) {
			return ErrTooLate
		}
		charged, err := tx.ChargedAmountCents(ctx, t.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateTicketStatus(ctx, t.ID, refunded, false); err != nil {
			return err
		}
		payment = model.Payment{
			TicketID:    t.ID,
			AmountCents: -charged,
			Method:      "REFUND",
			UserID:      userID,
			CreatedAt:   s.now(),
		}
		return tx.InsertPayment(ctx, &payment)
	})
	if err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}

// CancelExpiredReservations transitions every reservation older
// than the timeout to CANCELLED and returns the number cancelled.
// The expired set is read without row locks, so each cancellation
// is guarded on the ticket still being RESERVED: when a concurrent
// confirmation commits the ticket as PAID first, the sweep's write
// matches nothing and the ticket is left alone.
func (s *Service) CancelExpiredReservations(ctx context.Context) (int, error) {
	reserved := s.statuses.IDOf(model.StatusReserved)
	cancelled := s.statuses.IDOf(model.StatusCancelled)
	count := 0
	err := s.store.WithTx(ctx, func(tx StoreTx) error {
		cutoff := s.now().Add(-s.cfg.Timeout)
		stale, err := tx.ExpiredReservations(ctx, reserved, cutoff)
		if err != nil {
			return err
		}
		for _, t := range stale {
			changed, err := tx.CancelTicketIfStatus(ctx, t.ID, reserved, cancelled)
			if err != nil {
				return err
			}
			if changed {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// checkFree fails with a ConflictError when any requested seat is
// currently occupied for the showtime.  Must be called inside the
// same transaction as the subsequent inserts.
func (s *Service) checkFree(ctx context.Context, tx StoreTx, showtimeID uint64, seatIDs []uint64) error {
	occupied, err := tx.OccupiedSeatIDs(ctx, showtimeID)
	if err != nil {
		return err
	}
	taken := make(map[uint64]struct{}, len(occupied))
	for _, id := range occupied {
		taken[id] = struct{}{}
	}
	var conflict []uint64
	for _, id := range seatIDs {
		if _, ok := taken[id]; ok {
			conflict = append(conflict, id)
		}
	}
	if len(conflict) > 0 {
		return &ConflictError{SeatIDs: conflict}
	}
	return nil
}

// amountFor resolves the price of one seat on the showtime.  The
// rule is only consulted for registered customers; guests use the
// configured guest coefficient.
func (s *Service) amountFor(ctx context.Context, tx StoreTx, st model.Showtime, confirmation, registered bool) (int64, error) {
	var rule *model.PriceRule
	if registered && st.RuleID != nil {
		r, err := tx.PriceRule(ctx, *st.RuleID)
		if err != nil {
			return 0, err
		}
		rule = &r
	}
	coeff := Coefficient(rule, registered, s.cfg.Price)
	return Amount(st.BasePriceCents, coeff, confirmation, s.cfg.Price), nil
}

// dedupe removes zero and duplicate seat IDs while preserving order.
func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
