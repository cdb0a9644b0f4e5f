// Package store defines the database access surface shared by repositories
// and the error taxonomy surfaced to handlers.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository method runs
// standalone or inside a workflow transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	// ErrNotFound covers records absent within the caller's tenant and,
	// deliberately, records that exist in another tenant.
	ErrNotFound = errors.New("store: not found")
	// ErrForbidden covers cross-tenant access and system-role mutation.
	ErrForbidden = errors.New("store: forbidden")
	// ErrConflict covers unique-key violations.
	ErrConflict = errors.New("store: conflict")
	// ErrSystemRole is returned for mutation attempts on system roles.
	ErrSystemRole = errors.New("store: system role is immutable")
	// ErrRoleInUse is returned when deleting a role still assigned to users.
	ErrRoleInUse = errors.New("store: role is assigned to users")
)

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// MapRowError translates a pgx row-level error into the store taxonomy.
func MapRowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case IsUniqueViolation(err):
		return ErrConflict
	default:
		return err
	}
}
