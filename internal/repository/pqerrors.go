package repository

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"

	"banking-ledger/internal/errors"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
	pqNumericOverflow      = "22003"
)

// ErrSerialization marks a write conflict raised outside Postgres (for
// example by the in-memory store) so it is retried like a 40001.
var ErrSerialization = errors.New("could not serialize access due to concurrent update")

// ErrCommitOutcomeUnknown marks a COMMIT that failed on the connection. The
// server may have applied the transaction, so it must not be run again.
var ErrCommitOutcomeUnknown = errors.New("commit outcome unknown")

// CommitFailed classifies an error returned by COMMIT. Connection failures
// become ErrCommitOutcomeUnknown with the driver error flattened into the
// message; anything else (a serialization failure, say) keeps its chain.
func CommitFailed(err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrCommitOutcomeUnknown, err)
	}
	return err
}

// IsRetryable reports whether err is a transient storage failure that is
// safe to retry from the start of the transaction.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrCommitOutcomeUnknown) {
		return false
	}
	if IsConflict(err) {
		return true
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" // connection_exception
	}
	return errors.Is(err, driver.ErrBadConn)
}

// IsConflict reports whether err came from concurrent writers colliding.
func IsConflict(err error) bool {
	if errors.Is(err, ErrSerialization) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}
	return false
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
