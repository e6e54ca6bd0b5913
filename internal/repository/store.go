package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/booking"
	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Store is the MySQL implementation of booking.Store.  It glues the
// individual repositories to the transaction boundary the lifecycle
// service requires: one BeginTx per operation, rollback unless the
// closure succeeds, and translation of repository sentinels into
// the booking package's error vocabulary.
type Store struct {
	db        *sql.DB
	showtimes *ShowtimeRepo
	rules     *PriceRuleRepo
	tickets   *TicketRepo
	payments  *PaymentRepo
}

// NewStore builds a Store over the shared repositories.
func NewStore(db *sql.DB, showtimes *ShowtimeRepo, rules *PriceRuleRepo, tickets *TicketRepo, payments *PaymentRepo) *Store {
	return &Store{db: db, showtimes: showtimes, rules: rules, tickets: tickets, payments: payments}
}

// WithTx runs fn inside a transaction.  The transaction commits
// only when fn returns nil; any error rolls it back and is returned
// unchanged so sentinel comparisons still hold at the caller.
func (s *Store) WithTx(ctx context.Context, fn func(tx booking.StoreTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{store: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// OccupiedSeatIDs is the untransacted occupancy read used for seat
// maps.
func (s *Store) OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	return s.tickets.OccupiedSeatIDs(ctx, showtimeID)
}

// storeTx adapts the *sql.Tx repository methods to booking.StoreTx.
type storeTx struct {
	store *Store
	tx    *sql.Tx
}

func (t *storeTx) Showtime(ctx context.Context, id uint64) (model.Showtime, error) {
	st, err := t.store.showtimes.GetByIDTx(ctx, t.tx, id)
	if errors.Is(err, ErrShowtimeNotFound) {
		return model.Showtime{}, booking.ErrNotFound
	}
	return st, err
}

func (t *storeTx) PriceRule(ctx context.Context, id uint64) (model.PriceRule, error) {
	pr, err := t.store.rules.GetByIDTx(ctx, t.tx, id)
	if errors.Is(err, ErrPriceRuleNotFound) {
		return model.PriceRule{}, booking.ErrNotFound
	}
	return pr, err
}

func (t *storeTx) OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	return t.store.tickets.OccupiedSeatIDsTx(ctx, t.tx, showtimeID)
}

func (t *storeTx) CreateTicket(ctx context.Context, ticket *model.Ticket) error {
	err := t.store.tickets.CreateTx(ctx, t.tx, ticket)
	if errors.Is(err, ErrSeatTaken) {
		return &booking.ConflictError{SeatIDs: []uint64{ticket.SeatID}}
	}
	return err
}

func (t *storeTx) TicketForUpdate(ctx context.Context, id uint64) (model.Ticket, error) {
	ticket, err := t.store.tickets.GetForUpdateTx(ctx, t.tx, id)
	if errors.Is(err, ErrTicketNotFound) {
		return model.Ticket{}, booking.ErrNotFound
	}
	return ticket, err
}

func (t *storeTx) UpdateTicketStatus(ctx context.Context, ticketID uint64, statusID uint8, active bool) error {
	return t.store.tickets.UpdateStatusTx(ctx, t.tx, ticketID, statusID, active)
}

func (t *storeTx) CancelTicketIfStatus(ctx context.Context, ticketID uint64, fromStatus, toStatus uint8) (bool, error) {
	return t.store.tickets.CancelIfStatusTx(ctx, t.tx, ticketID, fromStatus, toStatus)
}

func (t *storeTx) ExpiredReservations(ctx context.Context, statusID uint8, cutoff time.Time) ([]model.Ticket, error) {
	return t.store.tickets.ExpiredReservationsTx(ctx, t.tx, statusID, cutoff)
}

func (t *storeTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	return t.store.payments.CreateTx(ctx, t.tx, p)
}

func (t *storeTx) ChargedAmountCents(ctx context.Context, ticketID uint64) (int64, error) {
	return t.store.payments.ChargedAmountCentsTx(ctx, t.tx, ticketID)
}
