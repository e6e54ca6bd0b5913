package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrSeatNotFound indicates that a seat does not exist.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides read access to the seats table.  Seats are
// immutable reference data created together with their hall.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetByID retrieves a seat.  Returns ErrSeatNotFound when absent.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (model.Seat, error) {
	const q = `SELECT id, hall_id, row_label, seat_number, category, is_active, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber,
		&s.Category, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Seat{}, ErrSeatNotFound
	}
	return s, err
}

// ListByHall returns all active seats of a hall ordered by row and
// number, for rendering seat maps.
func (r *SeatRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT id, hall_id, row_label, seat_number, category, is_active, created_at, updated_at
	           FROM seats WHERE hall_id = ? AND is_active = 1 ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber,
			&s.Category, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
