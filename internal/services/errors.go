package services

import (
	"errors"
	"log"

	apperrors "sitepulse/pkg/errors"

	"sitepulse/internal/metrics"
	"sitepulse/internal/store"
)

// translate maps a store error onto the client-facing taxonomy. missing is
// the not-found message for lookups that require the record to exist; when
// it is empty a store.ErrNotFound is treated like any other failure.
// Everything that is not a not-found becomes a STORAGE_ERROR: the engine
// error is logged in full and never reaches the caller.
func translate(area, op string, err error, missing string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if missing != "" && errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(missing)
	}

	log.Printf("[%s] %s failed: storage error: %v", area, op, err)
	metrics.RecordStorageError(op)
	return apperrors.Storage(op, err)
}
