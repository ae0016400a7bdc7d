package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/performance-analyzer-api/pkg/database"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

// requireFound maps a failed lookup to not-found or internal errors naming entity.
func requireFound(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// rowExists interprets the error of a uniqueness lookup.
func rowExists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}

// createFailed maps an insert rejected by a unique constraint to a duplicate
// error and anything else to an internal error naming entity.
func createFailed(err error, entity, duplicate string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, duplicate)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+entity)
}
