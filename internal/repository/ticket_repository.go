package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrTicketNotFound indicates that a ticket does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides data access to the tickets table.  Tickets
// carry a nullable `active` column that is 1 while the ticket is in
// a non-terminal status and NULL afterwards; together with the
// unique key (showtime_id, seat_id, active) it lets the database
// itself reject the loser when two transactions race for the same
// seat.  All timestamps are stored in UTC.
type TicketRepo struct {
	db       *sql.DB
	statuses *model.StatusSet
}

// NewTicketRepo returns a TicketRepo bound to the given database
// and status vocabulary.
func NewTicketRepo(db *sql.DB, statuses *model.StatusSet) *TicketRepo {
	return &TicketRepo{db: db, statuses: statuses}
}

// Statuses exposes the status vocabulary for callers that need to
// render status names.
func (r *TicketRepo) Statuses() *model.StatusSet { return r.statuses }

const ticketColumns = `id, showtime_id, seat_id, customer_id, user_id, status_id, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (model.Ticket, error) {
	var (
		t          model.Ticket
		customerID sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.ShowtimeID, &t.SeatID, &customerID, &t.UserID,
		&t.StatusID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Ticket{}, err
	}
	if customerID.Valid {
		id := uint64(customerID.Int64)
		t.CustomerID = &id
	}
	return t, nil
}

// CreateTx inserts a ticket within the provided transaction and
// populates the generated ID.  The active flag is set to 1; a
// duplicate-key rejection from the unique active-seat index is
// translated to ErrSeatTaken.  CreatedAt must be supplied by the
// caller so expiry is measured against the service clock.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (showtime_id, seat_id, customer_id, user_id, status_id, active, created_at)
	           VALUES (?, ?, ?, ?, ?, 1, ?)`
	var customerID any
	if t.CustomerID != nil {
		customerID = *t.CustomerID
	}
	res, err := tx.ExecContext(ctx, q, t.ShowtimeID, t.SeatID, customerID, t.UserID, t.StatusID, t.CreatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrSeatTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a ticket by ID.  Returns ErrTicketNotFound when
// absent.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, err
}

// GetForUpdateTx loads a ticket inside the transaction and locks
// its row until commit or rollback.  A confirmation and a sweep
// racing over the same reservation therefore serialize here: the
// loser observes the winner's committed status.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
	t, err := scanTicket(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, err
}

// UpdateStatusTx moves a ticket to the given status within the
// transaction.  When active is false the active flag is set to
// NULL, releasing the unique (showtime, seat) claim so the seat can
// be sold again.
func (r *TicketRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, ticketID uint64, statusID uint8, active bool) error {
	var activeVal any
	if active {
		activeVal = 1
	}
	const q = `UPDATE tickets SET status_id = ?, active = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, statusID, activeVal, ticketID)
	return err
}

// CancelIfStatusTx moves a ticket to toStatus and clears its active
// flag only when the row is still in fromStatus, reporting whether
// a row changed.  The guard keeps the sweep from cancelling a
// reservation that a concurrent confirmation already committed as
// paid: the sweep's UPDATE waits behind the confirmation's row lock
// and then matches zero rows.
func (r *TicketRepo) CancelIfStatusTx(ctx context.Context, tx *sql.Tx, ticketID uint64, fromStatus, toStatus uint8) (bool, error) {
	const q = `UPDATE tickets SET status_id = ?, active = NULL WHERE id = ? AND status_id = ?`
	res, err := tx.ExecContext(ctx, q, toStatus, ticketID, fromStatus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OccupiedSeatIDs returns the seat IDs of the showtime held by a
// ticket in a non-terminal status.  An empty slice is returned for
// a showtime with no tickets.
func (r *TicketRepo) OccupiedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	return occupiedSeatIDs(ctx, r.db, showtimeID)
}

// OccupiedSeatIDsTx is the transactional variant of
// OccupiedSeatIDs, used to re-check availability in the same
// transaction that creates tickets.
func (r *TicketRepo) OccupiedSeatIDsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]uint64, error) {
	return occupiedSeatIDs(ctx, tx, showtimeID)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func occupiedSeatIDs(ctx context.Context, q queryer, showtimeID uint64) ([]uint64, error) {
	// Non-terminal tickets are exactly the ones whose active flag is
	// still set, so the query never counts cancelled or refunded
	// tickets as holding a seat.
	const sel = `SELECT seat_id FROM tickets WHERE showtime_id = ? AND active = 1`
	rows, err := q.QueryContext(ctx, sel, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpiredReservationsTx returns tickets in the given status created
// strictly before the cutoff, oldest first.  The read takes no row
// locks; the sweep therefore pairs it with CancelIfStatusTx so a
// ticket confirmed after this snapshot is left untouched.
func (r *TicketRepo) ExpiredReservationsTx(ctx context.Context, tx *sql.Tx, statusID uint8, cutoff time.Time) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE status_id = ? AND created_at < ? ORDER BY created_at`
	rows, err := tx.QueryContext(ctx, q, statusID, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stale []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stale, nil
}

// ListByShowtime returns all tickets of a showtime ordered by
// creation time, for staff review.
func (r *TicketRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE showtime_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
