package domain

import (
	"time"
)

// IdentityType selects which event-level per-phone ceiling applies to a
// ticket category.
type IdentityType string

const (
	IdentityGeneral IdentityType = "general"
	IdentityVIP     IdentityType = "vip"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationRejected  RegistrationStatus = "rejected"
)

type CheckinStatus string

const (
	CheckinUnchecked CheckinStatus = "unchecked"
	CheckinChecked   CheckinStatus = "checked"
)

type CollectionMethod string

const (
	CollectionWeb   CollectionMethod = "web"
	CollectionAdmin CollectionMethod = "admin"
)

type PendingStatus string

const (
	PendingOpen     PendingStatus = "pending"
	PendingApproved PendingStatus = "approved"
	PendingRejected PendingStatus = "rejected"
)

type Event struct {
	ID                 int64
	Name               string
	Description        string
	Location           string
	EventDate          *time.Time
	CollectionStart    *time.Time
	CollectionEnd      *time.Time
	CheckinStart       *time.Time
	CheckinEnd         *time.Time
	AllowWebCollection bool
	MaxAttendees       int // 0 = unlimited
	GeneralPhoneLimit  int // 0 = unlimited
	VIPPhoneLimit      int // 0 = unlimited
	CreatedAt          time.Time
}

// PhoneLimit returns the per-phone ceiling for the given identity class.
// Zero means unlimited.
func (e *Event) PhoneLimit(it IdentityType) int {
	if it == IdentityVIP {
		return e.VIPPhoneLimit
	}
	return e.GeneralPhoneLimit
}

type TicketCategory struct {
	ID              int64
	EventID         int64
	Name            string
	Description     string
	TotalLimit      int // 0 = unlimited
	DailyLimit      int // persisted and reported, not an admission gate
	IdentityType    IdentityType
	RequiresReview  bool
	AllowCollection bool
	SortOrder       int
	CreatedAt       time.Time
}

type User struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	ExternalID string
	CreatedAt  time.Time
}

// Registration is the permanent record of a registration attempt. Only its
// status ever changes.
type Registration struct {
	ID         int64
	UserID     int64
	EventID    int64
	CategoryID int64
	Phone      string
	Status     RegistrationStatus
	CreatedAt  time.Time
}

type Ticket struct {
	ID               int64
	TokenID          string
	Barcode          string
	RegistrationID   int64
	UserID           *int64
	EventID          int64
	CategoryID       int64
	Phone            string
	CheckinStatus    CheckinStatus
	CheckinTime      *time.Time
	CollectionMethod CollectionMethod
	CreatedAt        time.Time
}

type PendingEntry struct {
	ID             int64
	RegistrationID int64
	Name           string
	Email          string
	Phone          string
	EventID        int64
	CategoryID     int64
	Status         PendingStatus
	AdminNotes     string
	ReviewedBy     *int64
	ReviewedAt     *time.Time
	CreatedAt      time.Time
}

// TicketDetails is a ticket joined with the display fields the read side
// needs: event name and check-in window, category and holder names.
type TicketDetails struct {
	Ticket
	EventName    string
	EventDate    *time.Time
	CheckinStart *time.Time
	CheckinEnd   *time.Time
	CategoryName string
	UserName     string
	UserEmail    string
}

// PendingEntryDetails is a pending entry joined with event/category names
// for the admin review screen.
type PendingEntryDetails struct {
	PendingEntry
	EventName    string
	CategoryName string
}

type EventWithCategories struct {
	Event      Event
	Categories []TicketCategory
}

type EventStats struct {
	EventID      int64      `json:"event_id"`
	EventName    string     `json:"event_name"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	MaxAttendees int        `json:"max_attendees"`
	Total        int64      `json:"total"`
	Checked      int64      `json:"checked"`
	Unchecked    int64      `json:"unchecked"`
	PendingCount int64      `json:"pending_count"`
}
