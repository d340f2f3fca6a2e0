package admin

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrCategoryNotFound  = errors.New("ticket category not found")
	ErrMissingName       = errors.New("name is required")
	ErrInvalidIdentity   = errors.New("identity type must be general or vip")
	ErrLimitsExceedEvent = errors.New("category limits exceed the event attendee ceiling")
)
