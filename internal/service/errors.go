package service

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// storeError keeps domain errors (not found, validation) and turns anything
// else coming from a store into ErrPersistenceFailed.
func storeError(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrPersistenceFailed.WithError(err)
}
