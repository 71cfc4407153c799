package repository

import (
	"errors"

	"github.com/amirasaad/treasury/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors so that
// infrastructure errors never leave this package.
// Traverses the error chain to find GORM errors.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKnown(err) {
		return err
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.Validation("resource already exists")
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return domain.Database("query", err)
}

// WrapError wraps a GORM operation and maps its error.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// notFoundAs names the missing entity in a not-found error.
func notFoundAs(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	return MapGormErrorToDomain(err)
}
