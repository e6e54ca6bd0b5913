package booking

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// Store is the persistence contract consumed by the lifecycle
// service.  The production implementation wraps MySQL repositories;
// tests provide an in-memory fake.  Every state-changing operation
// runs through WithTx so the occupancy check and the writes commit
// or roll back as one unit.
type Store interface {
	// WithTx begins a transaction, invokes fn with a transactional
	// view of the store, and commits when fn returns nil.  Any error
	// from fn rolls the transaction back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx StoreTx) error) error

	// OccupiedSeatIDs returns the seats of a showtime held by a
	// ticket in a non-terminal status.  This is the untransacted
	// read path used to render seat maps; the authoritative check
	// happens again inside WithTx before any write.
	OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error)
}

// StoreTx is the transactional view of the store.  All reads and
// writes observe the same transaction; TicketForUpdate additionally
// locks the row so a confirmation and a sweep racing over the same
// reservation resolve to whichever transaction commits first.
type StoreTx interface {
	// Showtime loads a showtime by ID.  Returns ErrNotFound when absent.
	Showtime(ctx context.Context, id uint64) (model.Showtime, error)

	// PriceRule loads a price rule by ID.  Returns ErrNotFound when absent.
	PriceRule(ctx context.Context, id uint64) (model.PriceRule, error)

	// OccupiedSeatIDs is the transactional occupancy check.
	OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error)

	// CreateTicket inserts a ticket and populates its generated ID.
	// Returns ErrConflict when the (showtime, seat) pair is already
	// claimed by a non-terminal ticket.
	CreateTicket(ctx context.Context, t *model.Ticket) error

	// TicketForUpdate loads a ticket by ID and locks the row for the
	// remainder of the transaction.  Returns ErrNotFound when absent.
	TicketForUpdate(ctx context.Context, id uint64) (model.Ticket, error)

	// UpdateTicketStatus moves a ticket to the given status.  When
	// active is false the ticket's active flag is cleared, releasing
	// the (showtime, seat) uniqueness claim.
	UpdateTicketStatus(ctx context.Context, ticketID uint64, statusID uint8, active bool) error

	// ExpiredReservations returns tickets in the given status created
	// strictly before the cutoff, oldest first.
	ExpiredReservations(ctx context.Context, statusID uint8, cutoff time.Time) ([]model.Ticket, error)

	// CancelTicketIfStatus moves a ticket to toStatus and clears its
	// active flag, but only when the row is still in fromStatus.
	// Reports whether a row changed: false means another transaction
	// transitioned the ticket first, e.g. a confirmation committed
	// between the sweep's read and its write.
	CancelTicketIfStatus(ctx context.Context, ticketID uint64, fromStatus, toStatus uint8) (bool, error)

	// InsertPayment appends a ledger entry and populates its
	// generated ID.  Ledger entries are never updated or deleted.
	InsertPayment(ctx context.Context, p *model.Payment) error

	// ChargedAmountCents sums the positive ledger entries of a
	// ticket, i.e. the amount originally charged for it.
	ChargedAmountCents(ctx context.Context, ticketID uint64) (int64, error)
}
