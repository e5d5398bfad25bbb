package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNoBalance          = errors.New("no generations left on balance")
	ErrGenerationFailed   = errors.New("image generation failed")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentPending     = errors.New("payment has not been confirmed yet")
	ErrInvalidExecContext = errors.New("invalid executor context passed to repository")
)
