package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isDuplicateKey checks if a PostgreSQL error is a unique_violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// nullableString maps an empty string to SQL NULL on write.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime maps a zero time.Time to SQL NULL on write.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// batchLimit maps a non-positive batchSize to SQL NULL, matching
// job.Store's "batchSize<=0 means no cap" contract: LIMIT NULL is
// equivalent to omitting LIMIT entirely in Postgres.
func batchLimit(batchSize int) any {
	if batchSize <= 0 {
		return nil
	}
	return batchSize
}
