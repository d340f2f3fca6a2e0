package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrAlreadyChecked    = errors.New("already checked in")
)
