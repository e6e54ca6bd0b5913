package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrHallNotFound indicates that a hall does not exist.
var ErrHallNotFound = errors.New("hall not found")

// HallRepo provides read access to the halls table.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo returns a HallRepo bound to the given database.
func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{db: db} }

const hallColumns = `id, name, description, seat_rows, seat_cols, is_active, created_at, updated_at`

func scanHall(row interface{ Scan(...any) error }) (model.Hall, error) {
	var (
		h     model.Hall
		desc  sql.NullString
		rowsN sql.NullInt64
		colsN sql.NullInt64
	)
	err := row.Scan(&h.ID, &h.Name, &desc, &rowsN, &colsN, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return model.Hall{}, err
	}
	if desc.Valid {
		d := desc.String
		h.Description = &d
	}
	if rowsN.Valid {
		n := uint32(rowsN.Int64)
		h.SeatRows = &n
	}
	if colsN.Valid {
		n := uint32(colsN.Int64)
		h.SeatCols = &n
	}
	return h, nil
}

// GetByID retrieves a hall.  Returns ErrHallNotFound when absent.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	h, err := scanHall(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return model.Hall{}, ErrHallNotFound
	}
	return h, err
}

// List returns all active halls ordered by name.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Hall, 0)
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
