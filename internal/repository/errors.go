// Package repository implements the persistence gateway over gorm. The
// sentinel values below let the service layer tell storage failures apart
// from expected outcomes such as a missing row or a stale write.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by versioned saves when the stored version no
// longer matches the one the caller read.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique constraint,
// such as a second user with the same email.
var ErrDuplicate = errors.New("duplicate")

// translate maps driver errors onto the package sentinels. Unknown errors
// are returned unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite builds without the error translator
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
