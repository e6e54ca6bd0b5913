// Package repository contains the MySQL data access layer.  Each
// repository wraps a *sql.DB handle; methods with a Tx suffix take
// an explicit *sql.Tx so several repositories can participate in
// one transaction.  Sentinel errors defined here let higher layers
// distinguish failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrSeatTaken is returned when inserting a ticket violates the
// unique active-seat key, i.e. another non-terminal ticket already
// claims the same (showtime, seat) pair.  The store layer maps it
// to the booking package's Conflict error.
var ErrSeatTaken = errors.New("seat already taken")

// ErrShowtimeOverlap is returned when creating a showtime whose
// interval collides with another showtime in the same hall.
var ErrShowtimeOverlap = errors.New("showtime overlaps an existing one")

// isDuplicate reports whether err is a MySQL duplicate-entry error
// (code 1062), produced when a unique key rejects an insert.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
