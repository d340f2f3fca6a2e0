package httpgin

import (
	"time"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/service/registration"
)

type RegisterRequest struct {
	EventID    int64  `json:"event_id" binding:"required"`
	CategoryID int64  `json:"category_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	ExternalID string `json:"external_id"`
}

type RegisterResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	RequiresReview bool            `json:"requires_review"`
	RegistrationID int64           `json:"registration_id,omitempty"`
	Ticket         *TicketResponse `json:"ticket,omitempty"`
	CollectionLink string          `json:"collection_link,omitempty"`
}

type CheckinRequest struct {
	TokenID string `json:"token_id"`
	Barcode string `json:"barcode"`
}

type CheckinResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Ticket  *TicketDetailsResponse `json:"ticket,omitempty"`
}

type QueryTicketsRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type SendCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type VerifyCodeRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type EventInput struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	Location           string `json:"location"`
	EventDate          string `json:"event_date"`
	CollectionStart    string `json:"collection_start"`
	CollectionEnd      string `json:"collection_end"`
	CheckinStart       string `json:"checkin_start"`
	CheckinEnd         string `json:"checkin_end"`
	AllowWebCollection bool   `json:"allow_web_collection"`
	MaxAttendees       int    `json:"max_attendees"`
	GeneralPhoneLimit  int    `json:"general_phone_limit"`
	VIPPhoneLimit      int    `json:"vip_phone_limit"`
}

type CategoryInput struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	TotalLimit      int    `json:"total_limit"`
	DailyLimit      int    `json:"daily_limit"`
	IdentityType    string `json:"identity_type"`
	RequiresReview  bool   `json:"requires_review"`
	AllowCollection bool   `json:"allow_collection"`
	SortOrder       int    `json:"sort_order"`
}

type ReviewRequest struct {
	AdminID int64  `json:"admin_id"`
	Notes   string `json:"notes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

type EventResponse struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Location           string     `json:"location,omitempty"`
	EventDate          *time.Time `json:"event_date,omitempty"`
	CollectionStart    *time.Time `json:"collection_start,omitempty"`
	CollectionEnd      *time.Time `json:"collection_end,omitempty"`
	CheckinStart       *time.Time `json:"checkin_start,omitempty"`
	CheckinEnd         *time.Time `json:"checkin_end,omitempty"`
	AllowWebCollection bool       `json:"allow_web_collection"`
	MaxAttendees       int        `json:"max_attendees"`
	GeneralPhoneLimit  int        `json:"general_phone_limit"`
	VIPPhoneLimit      int        `json:"vip_phone_limit"`
	CreatedAt          time.Time  `json:"created_at"`
}

type CategoryResponse struct {
	ID              int64     `json:"id"`
	EventID         int64     `json:"event_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	TotalLimit      int       `json:"total_limit"`
	DailyLimit      int       `json:"daily_limit"`
	IdentityType    string    `json:"identity_type"`
	RequiresReview  bool      `json:"requires_review"`
	AllowCollection bool      `json:"allow_collection"`
	SortOrder       int       `json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
}

type EventDetailResponse struct {
	EventResponse
	Categories []CategoryResponse `json:"categories"`
}

type TicketResponse struct {
	ID               int64      `json:"id"`
	TokenID          string     `json:"token_id"`
	Barcode          string     `json:"barcode"`
	EventID          int64      `json:"event_id"`
	CategoryID       int64      `json:"category_id"`
	Phone            string     `json:"phone"`
	CheckinStatus    string     `json:"checkin_status"`
	CheckinTime      *time.Time `json:"checkin_time,omitempty"`
	CollectionMethod string     `json:"collection_method"`
	CreatedAt        time.Time  `json:"created_at"`
}

type TicketDetailsResponse struct {
	TicketResponse
	EventName    string     `json:"event_name"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	CheckinStart *time.Time `json:"checkin_start,omitempty"`
	CheckinEnd   *time.Time `json:"checkin_end,omitempty"`
	CategoryName string     `json:"category_name"`
	UserName     string     `json:"user_name,omitempty"`
	UserEmail    string     `json:"user_email,omitempty"`
}

type PendingEntryResponse struct {
	ID             int64      `json:"id"`
	RegistrationID int64      `json:"registration_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	EventID        int64      `json:"event_id"`
	EventName      string     `json:"event_name"`
	CategoryID     int64      `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	Status         string     `json:"status"`
	AdminNotes     string     `json:"admin_notes,omitempty"`
	ReviewedBy     *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:                 e.ID,
		Name:               e.Name,
		Description:        e.Description,
		Location:           e.Location,
		EventDate:          e.EventDate,
		CollectionStart:    e.CollectionStart,
		CollectionEnd:      e.CollectionEnd,
		CheckinStart:       e.CheckinStart,
		CheckinEnd:         e.CheckinEnd,
		AllowWebCollection: e.AllowWebCollection,
		MaxAttendees:       e.MaxAttendees,
		GeneralPhoneLimit:  e.GeneralPhoneLimit,
		VIPPhoneLimit:      e.VIPPhoneLimit,
		CreatedAt:          e.CreatedAt,
	}
}

func toEventResponses(events []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

func toCategoryResponse(c domain.TicketCategory) CategoryResponse {
	return CategoryResponse{
		ID:              c.ID,
		EventID:         c.EventID,
		Name:            c.Name,
		Description:     c.Description,
		TotalLimit:      c.TotalLimit,
		DailyLimit:      c.DailyLimit,
		IdentityType:    string(c.IdentityType),
		RequiresReview:  c.RequiresReview,
		AllowCollection: c.AllowCollection,
		SortOrder:       c.SortOrder,
		CreatedAt:       c.CreatedAt,
	}
}

func toCategoryResponses(cats []domain.TicketCategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toTicketResponse(t *domain.Ticket) *TicketResponse {
	if t == nil {
		return nil
	}
	return &TicketResponse{
		ID:               t.ID,
		TokenID:          t.TokenID,
		Barcode:          t.Barcode,
		EventID:          t.EventID,
		CategoryID:       t.CategoryID,
		Phone:            t.Phone,
		CheckinStatus:    string(t.CheckinStatus),
		CheckinTime:      t.CheckinTime,
		CollectionMethod: string(t.CollectionMethod),
		CreatedAt:        t.CreatedAt,
	}
}

func toTicketDetailsResponse(t *domain.TicketDetails) *TicketDetailsResponse {
	if t == nil {
		return nil
	}
	return &TicketDetailsResponse{
		TicketResponse: *toTicketResponse(&t.Ticket),
		EventName:      t.EventName,
		EventDate:      t.EventDate,
		CheckinStart:   t.CheckinStart,
		CheckinEnd:     t.CheckinEnd,
		CategoryName:   t.CategoryName,
		UserName:       t.UserName,
		UserEmail:      t.UserEmail,
	}
}

func toTicketDetailsResponses(tickets []domain.TicketDetails) []TicketDetailsResponse {
	out := make([]TicketDetailsResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, *toTicketDetailsResponse(&tickets[i]))
	}
	return out
}

func toPendingEntryResponse(p domain.PendingEntryDetails) PendingEntryResponse {
	return PendingEntryResponse{
		ID:             p.ID,
		RegistrationID: p.RegistrationID,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		EventID:        p.EventID,
		EventName:      p.EventName,
		CategoryID:     p.CategoryID,
		CategoryName:   p.CategoryName,
		Status:         string(p.Status),
		AdminNotes:     p.AdminNotes,
		ReviewedBy:     p.ReviewedBy,
		ReviewedAt:     p.ReviewedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func toRegisterResponse(r *registration.Result) RegisterResponse {
	return RegisterResponse{
		Success:        r.Success(),
		Message:        r.Message,
		RequiresReview: r.RequiresReview,
		RegistrationID: r.RegistrationID,
		Ticket:         toTicketResponse(r.Ticket),
		CollectionLink: r.CollectionLink,
	}
}

func (in EventInput) toDomain(id int64) (*domain.Event, error) {
	e := &domain.Event{
		ID:                 id,
		Name:               in.Name,
		Description:        in.Description,
		Location:           in.Location,
		AllowWebCollection: in.AllowWebCollection,
		MaxAttendees:       in.MaxAttendees,
		GeneralPhoneLimit:  in.GeneralPhoneLimit,
		VIPPhoneLimit:      in.VIPPhoneLimit,
	}

	for _, f := range []struct {
		raw  string
		dest **time.Time
	}{
		{in.EventDate, &e.EventDate},
		{in.CollectionStart, &e.CollectionStart},
		{in.CollectionEnd, &e.CollectionEnd},
		{in.CheckinStart, &e.CheckinStart},
		{in.CheckinEnd, &e.CheckinEnd},
	} {
		if f.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dest = &t
	}

	return e, nil
}

func (in CategoryInput) toDomain(eventID, id int64) *domain.TicketCategory {
	it := domain.IdentityType(in.IdentityType)
	if in.IdentityType == "" {
		it = domain.IdentityGeneral
	}

	return &domain.TicketCategory{
		ID:              id,
		EventID:         eventID,
		Name:            in.Name,
		Description:     in.Description,
		TotalLimit:      in.TotalLimit,
		DailyLimit:      in.DailyLimit,
		IdentityType:    it,
		RequiresReview:  in.RequiresReview,
		AllowCollection: in.AllowCollection,
		SortOrder:       in.SortOrder,
	}
}
