package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrPriceRuleNotFound indicates that a price rule does not exist.
var ErrPriceRuleNotFound = errors.New("price rule not found")

// PriceRuleRepo provides read access to the price_rules table.
// Rules are reference data maintained by the operator; the service
// only ever looks them up by ID when pricing a registered
// customer's ticket.
type PriceRuleRepo struct {
	db *sql.DB
}

// NewPriceRuleRepo returns a PriceRuleRepo bound to the given database.
func NewPriceRuleRepo(db *sql.DB) *PriceRuleRepo { return &PriceRuleRepo{db: db} }

// GetByID retrieves a price rule.  Returns ErrPriceRuleNotFound
// when no rule with the given ID exists.
func (r *PriceRuleRepo) GetByID(ctx context.Context, id uint64) (model.PriceRule, error) {
	const q = `SELECT id, name, coefficient, created_at, updated_at FROM price_rules WHERE id = ?`
	var pr model.PriceRule
	err := r.db.QueryRowContext(ctx, q, id).Scan(&pr.ID, &pr.Name, &pr.Coefficient, &pr.CreatedAt, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.PriceRule{}, ErrPriceRuleNotFound
	}
	return pr, err
}

// GetByIDTx is like GetByID but participates in the caller's
// transaction.
func (r *PriceRuleRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.PriceRule, error) {
	const q = `SELECT id, name, coefficient, created_at, updated_at FROM price_rules WHERE id = ?`
	var pr model.PriceRule
	err := tx.QueryRowContext(ctx, q, id).Scan(&pr.ID, &pr.Name, &pr.Coefficient, &pr.CreatedAt, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.PriceRule{}, ErrPriceRuleNotFound
	}
	return pr, err
}

// List returns all price rules ordered by name.
func (r *PriceRuleRepo) List(ctx context.Context) ([]model.PriceRule, error) {
	const q = `SELECT id, name, coefficient, created_at, updated_at FROM price_rules ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.PriceRule, 0)
	for rows.Next() {
		var pr model.PriceRule
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Coefficient, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
