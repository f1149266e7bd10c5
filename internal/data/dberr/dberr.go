// Package dberr classifies driver failures independently of the dialect.
package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConflict indicates a unique constraint collision.
	ErrConflict = errors.New("conflict")
	// ErrRetryable indicates a transient failure worth retrying.
	ErrRetryable = errors.New("retryable")
)

// Map tags err with ErrConflict or ErrRetryable when the driver reports one.
func Map(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case IsUniqueViolation(err):
		return errors.Join(ErrConflict, err)
	case IsRetryable(err):
		return errors.Join(ErrRetryable, err)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked")
}
