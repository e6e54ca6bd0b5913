package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// PaymentRepo provides access to the append-only payments ledger.
// Rows are only ever inserted; there is deliberately no update or
// delete method, so the ledger keeps its audit value even after a
// ticket reaches a terminal status.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx appends a ledger entry within the provided transaction
// and populates the generated ID.  CreatedAt must be supplied by
// the caller so the entry carries the service clock's timestamp.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (ticket_id, amount_cents, method, user_id, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.TicketID, p.AmountCents, p.Method, p.UserID, p.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByTicket returns every ledger entry for the ticket, charges
// and refunds alike, ordered by creation time.  Used for audit.
func (r *PaymentRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]model.Payment, error) {
	const q = `SELECT id, ticket_id, amount_cents, method, user_id, created_at
	           FROM payments WHERE ticket_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.TicketID, &p.AmountCents, &p.Method, &p.UserID, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ChargedAmountCentsTx sums the positive entries of a ticket inside
// the caller's transaction, i.e. the amount originally charged.
// Refund entries are negative and excluded.
func (r *PaymentRepo) ChargedAmountCentsTx(ctx context.Context, tx *sql.Tx, ticketID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE ticket_id = ? AND amount_cents > 0`
	var sum int64
	err := tx.QueryRowContext(ctx, q, ticketID).Scan(&sum)
	return sum, err
}

// SumAmountBetween sums all entries (signed) with a timestamp in
// [from, to), yielding net revenue for the period.
func (r *PaymentRepo) SumAmountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE created_at >= ? AND created_at < ?`
	var sum int64
	err := r.db.QueryRowContext(ctx, q, from.UTC(), to.UTC()).Scan(&sum)
	return sum, err
}

// ListBetween returns all entries with a timestamp in [from, to)
// ordered by creation time, for period reports.
func (r *PaymentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Payment, error) {
	const q = `SELECT id, ticket_id, amount_cents, method, user_id, created_at
	           FROM payments WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.TicketID, &p.AmountCents, &p.Method, &p.UserID, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
