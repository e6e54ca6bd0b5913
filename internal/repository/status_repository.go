package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// LoadStatusSet reads the ticket_statuses vocabulary and builds the
// StatusSet used everywhere statuses are referenced.  It is called
// once at startup; the vocabulary is static configuration and never
// changes while the service runs.
func LoadStatusSet(ctx context.Context, db *sql.DB) (*model.StatusSet, error) {
	const q = `SELECT id, name FROM ticket_statuses ORDER BY id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var statuses []model.TicketStatus
	for rows.Next() {
		var s model.TicketStatus
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return model.NewStatusSet(statuses)
}
