package services

import (
	"errors"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// InsufficientCreditsError means the wallet cannot cover at least one minute
// at the psychic's rate.
type InsufficientCreditsError struct {
	Required  models.Credits
	Available models.Credits
}

func (e *InsufficientCreditsError) Error() string {
	return "Insufficient credits: " + e.Required.String() + " required, " + e.Available.String() + " available"
}

// notFound converts a missing row into a NotFoundError and passes other errors through.
func notFound(err error, message string) error {
	if repository.IsNotFound(err) {
		return &NotFoundError{Message: message}
	}
	return err
}

func isServiceError(err error) bool {
	var (
		ve *ValidationError
		ce *ConflictError
		ne *NotFoundError
		ue *UnauthorizedError
		fe *ForbiddenError
		re *RateLimitError
		ie *InsufficientCreditsError
	)
	return errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &ne) || errors.As(err, &ue) ||
		errors.As(err, &fe) || errors.As(err, &re) || errors.As(err, &ie)
}
