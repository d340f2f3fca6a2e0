package auth

import "errors"

var (
	ErrMissingPhone = errors.New("phone is required")
	ErrMissingCode  = errors.New("code is required")
	ErrCodeInvalid  = errors.New("verification code is invalid or expired")
	ErrRateLimited  = errors.New("too many verification requests")
)
