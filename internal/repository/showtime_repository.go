package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ShowtimeRepo manages persistence for showtimes.  Showtimes are
// immutable once created; only creation with an overlap check is
// supported.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

const showtimeColumns = `id, hall_id, film_title, starts_at, ends_at, base_price_cents, rule_id, created_at, updated_at`

func scanShowtime(row interface{ Scan(...any) error }) (model.Showtime, error) {
	var (
		st     model.Showtime
		ruleID sql.NullInt64
	)
	err := row.Scan(&st.ID, &st.HallID, &st.FilmTitle, &st.StartsAt, &st.EndsAt,
		&st.BasePriceCents, &ruleID, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return model.Showtime{}, err
	}
	if ruleID.Valid {
		id := uint64(ruleID.Int64)
		st.RuleID = &id
	}
	return st, nil
}

// Create inserts a new showtime after verifying that its
// [starts_at, ends_at) interval does not overlap another showtime
// in the same hall.  The check and the insert run inside one
// transaction so two staff terminals cannot both schedule into the
// same slot.  Returns ErrShowtimeOverlap on collision.  On success
// the generated ID and DB-default timestamps are populated on the
// given Showtime.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Overlap predicate: an existing showtime collides unless it ends
	// before the new one starts or starts after the new one ends.
	const overlapQ = `SELECT COUNT(*) FROM showtimes WHERE hall_id = ? AND NOT (ends_at <= ? OR starts_at >= ?)`
	var n int
	if err := tx.QueryRowContext(ctx, overlapQ, st.HallID, st.StartsAt.UTC(), st.EndsAt.UTC()).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrShowtimeOverlap
	}
	const q = `INSERT INTO showtimes (hall_id, film_title, starts_at, ends_at, base_price_cents, rule_id) VALUES (?, ?, ?, ?, ?, ?)`
	var ruleID any
	if st.RuleID != nil {
		ruleID = *st.RuleID
	}
	res, err := tx.ExecContext(ctx, q, st.HallID, st.FilmTitle, st.StartsAt.UTC(), st.EndsAt.UTC(), st.BasePriceCents, ruleID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	// Query back the row to populate DB-default timestamps.
	const sel = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	got, err := scanShowtime(tx.QueryRowContext(ctx, sel, st.ID))
	if err != nil {
		return err
	}
	*st = got
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a showtime by its ID.  It returns
// ErrShowtimeNotFound if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	st, err := scanShowtime(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Showtime{}, ErrShowtimeNotFound
	}
	return st, err
}

// GetByIDTx is like GetByID but participates in the caller's
// transaction.
func (r *ShowtimeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	st, err := scanShowtime(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Showtime{}, ErrShowtimeNotFound
	}
	return st, err
}

// ListFrom returns showtimes starting at or after the given instant,
// ordered by start time.  Used by the browse endpoints; an empty
// slice is returned when nothing is scheduled.
func (r *ShowtimeRepo) ListFrom(ctx context.Context, from time.Time) ([]model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE starts_at >= ? ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Showtime, 0)
	for rows.Next() {
		st, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
