package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

// translate maps gorm errors onto the domain error taxonomy so callers
// never match on driver errors. what names the entity for messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("%s already exists", what)
	}
	return apperr.Store(what+" query failed", err)
}
