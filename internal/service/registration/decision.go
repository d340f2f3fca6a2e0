package registration

import (
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
)

// Outcome is the terminal state of a registration attempt.
type Outcome string

const (
	OutcomeIssued   Outcome = "issued"
	OutcomeQueued   Outcome = "queued"
	OutcomeRejected Outcome = "rejected"
)

// Reason is the machine-distinguishable code attached to every non-issued
// outcome.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonForceReview    Reason = "requires_review"
	ReasonNotCollectable Reason = "category_not_collectable"
	ReasonPhoneLimit     Reason = "phone_limit_reached"
	ReasonNotOpen        Reason = "collection_not_open"
	ReasonClosed         Reason = "collection_closed"
	ReasonWebDisabled    Reason = "web_collection_disabled"
	ReasonSoldOut        Reason = "sold_out"
	ReasonEventFull      Reason = "event_full"
)

var reasonMessages = map[Reason]string{
	ReasonNone:           "registration complete, ticket issued",
	ReasonForceReview:    "this category requires manual review",
	ReasonNotCollectable: "this category is not offered for self-service collection",
	ReasonPhoneLimit:     "this phone number has reached its ticket limit",
	ReasonNotOpen:        "ticket collection has not opened yet",
	ReasonClosed:         "ticket collection has already closed",
	ReasonWebDisabled:    "this event does not allow web self-service collection",
	ReasonSoldOut:        "this ticket category is sold out",
	ReasonEventFull:      "this event has reached its attendee limit",
}

func (r Reason) Message() string {
	return reasonMessages[r]
}

// collectionWindow checks the self-service issuance gates on the event: the
// collection time window, if set, and the web collection switch.
func collectionWindow(e *domain.Event, now time.Time) Reason {
	if e.CollectionStart != nil && now.Before(*e.CollectionStart) {
		return ReasonNotOpen
	}
	if e.CollectionEnd != nil && now.After(*e.CollectionEnd) {
		return ReasonClosed
	}
	if !e.AllowWebCollection {
		return ReasonWebDisabled
	}
	return ReasonNone
}
