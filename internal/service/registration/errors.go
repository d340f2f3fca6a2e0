package registration

import "errors"

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrEventNotFound    = errors.New("event not found")
	ErrCategoryNotFound = errors.New("ticket category not found")
)
