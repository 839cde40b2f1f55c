package postgres

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// P0002	no_data_found
// 42501	insufficient_privilege
// 23503	foreign_key_violation
// 23505	unique_violation
// 40001	serialization_failure

const (
	AUTH_CODE          = "42501"
	RESOURCE_CODE      = "P0002"
	INCONSISTENCY_CODE = "23503"
	DUPLICATE_CODE     = "23505"
	SERIALIZATION_CODE = "40001"
)

// SERIALIZATION_ATTEMPTS is the number of times an update runs before a serialization failure is returned
const SERIALIZATION_ATTEMPTS = 3

// FindCodeInPSQLException returns the postgresql error code of an error, empty if none
func FindCodeInPSQLException(sourceError error) string {
	var pgErr *pgconn.PgError
	var result string
	if errors.As(sourceError, &pgErr) {
		result = pgErr.Code
	}

	return result
}

// IsSerializationFailure returns true if a concurrent transaction made the error, caller may retry
func IsSerializationFailure(err error) bool {
	return FindCodeInPSQLException(err) == SERIALIZATION_CODE
}

// RetryOnSerializationFailure runs fn until it succeeds, fails for another reason, or attempts are exhausted.
// Last error is returned
func RetryOnSerializationFailure(attempts int, fn func() error) error {
	var err error
	for attempt := 0; attempt < max(attempts, 1); attempt++ {
		if err = fn(); !IsSerializationFailure(err) {
			return err
		}
	}

	return errors.Wrapf(err, "still failing after %d attempts", attempts)
}
