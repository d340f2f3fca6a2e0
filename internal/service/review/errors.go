package review

import "errors"

var (
	ErrEntryNotFound    = errors.New("pending entry not found")
	ErrAlreadyProcessed = errors.New("pending entry already processed")
)
