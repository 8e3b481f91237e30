package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// cleanupFailed records a failed release of a feed body, a prepared
// statement or an index transaction.
func cleanupFailed(logger *slog.Logger, message, operation string, err error) {
	LogError(logger, message, err,
		slog.String("operation", operation),
		slog.String("component", "cleanup"))
}

// SafeCloseWithLogging closes closer, logging rather than returning a failure.
// Meant for defer on feed bodies and query rows.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		cleanupFailed(logger, "failed to close resource", operation, err)
	}
}

// SafeRollbackWithLogging rolls back tx. Deferred after a successful commit it
// sees sql.ErrTxDone, which is not logged.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return
	}
	cleanupFailed(logger, "failed to rollback transaction", operation, err)
}

// HandleDeferredError runs op and, when the surrounding function had not
// already failed, reports op's error through *result.
func HandleDeferredError(result *error, op func() error, logger *slog.Logger, operation string) {
	if op == nil {
		return
	}
	err := op()
	if err == nil {
		return
	}
	cleanupFailed(logger, "deferred operation failed", operation, err)
	if *result == nil {
		*result = fmt.Errorf("%s failed: %w", operation, err)
	}
}
