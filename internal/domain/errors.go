package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrGenerationFailed = errors.New("generation failed")
)
