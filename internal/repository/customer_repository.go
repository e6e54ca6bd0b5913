package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ErrCustomerNotFound indicates that a customer does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrPhoneExists indicates a customer with the same phone number
// already exists.
var ErrPhoneExists = errors.New("phone already exists")

// CustomerRepo provides access to registered customers.  A ticket
// referencing a customer is priced with the showtime's rule
// coefficient; tickets without one use the guest coefficient.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// Create inserts a customer and populates the generated ID.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	c.Phone = strings.TrimSpace(c.Phone)
	const q = `INSERT INTO customers (full_name, phone) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.FullName, c.Phone)
	if err != nil {
		if isDuplicate(err) {
			return ErrPhoneExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID retrieves a customer.  Returns ErrCustomerNotFound when
// absent.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	const q = `SELECT id, full_name, phone, created_at, updated_at FROM customers WHERE id = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.FullName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Customer{}, ErrCustomerNotFound
	}
	return c, err
}

// GetByPhone retrieves a customer by phone number, the usual lookup
// at the counter.  Returns ErrCustomerNotFound when absent.
func (r *CustomerRepo) GetByPhone(ctx context.Context, phone string) (model.Customer, error) {
	phone = strings.TrimSpace(phone)
	const q = `SELECT id, full_name, phone, created_at, updated_at FROM customers WHERE phone = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, phone).Scan(&c.ID, &c.FullName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Customer{}, ErrCustomerNotFound
	}
	return c, err
}
