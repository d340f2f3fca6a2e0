package checkin

import "errors"

var (
	ErrMissingIdentifier = errors.New("token id or barcode required")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrNotOpen           = errors.New("check-in has not opened yet")
	ErrClosed            = errors.New("check-in has already closed")
)
