package services

import (
	"errors"

	"faderbank/pkg/apperrors"

	"gorm.io/gorm"
)

// storeErr translates a repository error into the service taxonomy: missing
// rows surface as NotFound with the given message, everything else as a
// transient store failure.
func storeErr(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(notFoundMsg)
	}
	return apperrors.StoreFailure(err)
}
