package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/gate-go/internal/service"
	"github.com/kirinyoku/gate-go/internal/service/admin"
	"github.com/kirinyoku/gate-go/internal/service/auth"
	"github.com/kirinyoku/gate-go/internal/service/checkin"
	"github.com/kirinyoku/gate-go/internal/service/query"
	"github.com/kirinyoku/gate-go/internal/service/registration"
	"github.com/kirinyoku/gate-go/internal/service/review"
)

func NewRouter(
	svcs *service.Services,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API
	r.POST("/auth/sms/send", handleSendCode(svcs))
	r.POST("/auth/sms/verify", handleVerifyCode(svcs))

	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))

	r.POST("/registrations", handleRegister(svcs))
	r.POST("/registrations/query", handleTicketsByPhone(svcs))

	r.GET("/tickets/:token", handleTicketByToken(svcs))
	r.POST("/checkin", handleCheckin(svcs))

	// Admin-API
	// TODO: add admin auth middleware
	adm := r.Group("/admin")
	{
		adm.GET("/events", handleAdminListEvents(svcs))
		adm.POST("/events", handleCreateEvent(svcs))
		adm.PUT("/events/:id", handleUpdateEvent(svcs))

		adm.GET("/events/:id/categories", handleListCategories(svcs))
		adm.POST("/events/:id/categories", handleCreateCategory(svcs))
		adm.PUT("/events/:id/categories/:cid", handleUpdateCategory(svcs))

		adm.GET("/pending", handleListPending(svcs))
		adm.POST("/pending/:id/approve", handleApprove(svcs))
		adm.POST("/pending/:id/reject", handleReject(svcs))

		adm.GET("/statistics", handleStatsByEvents(svcs))
		adm.GET("/statistics/:id", handleEventStats(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Request SMS verification code
// @Param    req body  SendCodeRequest true "payload"
// @Success  200 {object} map[string]bool
// @Failure  429 {object} ErrorResponse
// @Router   /auth/sms/send [post]
func handleSendCode(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Auth.SendCode(c.Request.Context(), req.Phone); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	}
}

// @Summary  Verify SMS code
// @Param    req body  VerifyCodeRequest true "payload"
// @Success  200 {object} map[string]bool
// @Failure  400 {object} ErrorResponse
// @Router   /auth/sms/verify [post]
func handleVerifyCode(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Auth.VerifyCode(c.Request.Context(), req.Phone, req.Code); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"verified": true})
	}
}

// @Summary  List events
// @Success  200 {array} EventResponse
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Query.ListEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, toEventResponses(events), "public, max-age=60", true)
	}
}

// @Summary  Get event with categories
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} EventDetailResponse
// @Failure  404 {object} ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		ewc, err := svcs.Query.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := EventDetailResponse{
			EventResponse: toEventResponse(ewc.Event),
			Categories:    toCategoryResponses(ewc.Categories),
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=60", true)
	}
}

// @Summary  Register for an event
// @Param    req body  RegisterRequest true "payload"
// @Success  200 {object} RegisterResponse "issued, queued or rejected"
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /registrations [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Registration.Register(c.Request.Context(), registration.Request{
			EventID:    req.EventID,
			CategoryID: req.CategoryID,
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			ExternalID: req.ExternalID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toRegisterResponse(res))
	}
}

// @Summary  List the caller's tickets by phone
// @Param    req body  QueryTicketsRequest true "payload"
// @Success  200 {array} TicketDetailsResponse
// @Router   /registrations/query [post]
func handleTicketsByPhone(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QueryTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		tickets, err := svcs.Query.TicketsByPhone(c.Request.Context(), req.Phone)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toTicketDetailsResponses(tickets))
	}
}

// @Summary  Get ticket by collection token
// @Param    token  path  string  true  "Token ID"
// @Success  200 {object} TicketDetailsResponse
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{token} [get]
func handleTicketByToken(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket, err := svcs.Query.TicketByToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toTicketDetailsResponse(ticket))
	}
}

// @Summary  Check a ticket in
// @Param    req body  CheckinRequest true "token_id or barcode"
// @Success  200 {object} CheckinResponse "success false on a repeated scan"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "outside the check-in window"
// @Router   /checkin [post]
func handleCheckin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svcs.Checkin.CheckIn(c.Request.Context(), req.TokenID, req.Barcode)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CheckinResponse{
			Success: res.Success,
			Message: res.Message,
			Ticket:  toTicketDetailsResponse(res.Ticket),
		})
	}
}

// @Summary  List events (admin)
// @Success  200 {array} EventResponse
// @Router   /admin/events [get]
func handleAdminListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Admin.ListEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toEventResponses(events))
	}
}

// @Summary  Create event
// @Param    req body  EventInput true "payload"
// @Success  201 {object} IDResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		e, err := req.toDomain(0)
		if err != nil {
			badRequest(c, "invalid timestamp (RFC3339)")
			return
		}
		id, err := svcs.Admin.CreateEvent(c.Request.Context(), e)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, IDResponse{ID: id})
	}
}

// @Summary  Update event
// @Param    id   path  int        true  "Event ID"
// @Param    req  body  EventInput true  "payload"
// @Success  200 {object} IDResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/events/{id} [put]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req EventInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		e, err := req.toDomain(eventID)
		if err != nil {
			badRequest(c, "invalid timestamp (RFC3339)")
			return
		}
		if err := svcs.Admin.UpdateEvent(c.Request.Context(), e); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, IDResponse{ID: eventID})
	}
}

// @Summary  List ticket categories
// @Param    id  path  int  true  "Event ID"
// @Success  200 {array} CategoryResponse
// @Router   /admin/events/{id}/categories [get]
func handleListCategories(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cats, err := svcs.Admin.ListCategories(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toCategoryResponses(cats))
	}
}

// @Summary  Create ticket category
// @Param    id   path  int           true  "Event ID"
// @Param    req  body  CategoryInput true  "payload"
// @Success  201 {object} IDResponse
// @Failure  409 {object} ErrorResponse "limits exceed event ceiling"
// @Router   /admin/events/{id}/categories [post]
func handleCreateCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CategoryInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Admin.CreateCategory(c.Request.Context(), req.toDomain(eventID, 0))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, IDResponse{ID: id})
	}
}

// @Summary  Update ticket category
// @Param    id   path  int           true  "Event ID"
// @Param    cid  path  int           true  "Category ID"
// @Param    req  body  CategoryInput true  "payload"
// @Success  200 {object} IDResponse
// @Router   /admin/events/{id}/categories/{cid} [put]
func handleUpdateCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		catID, ok := parseInt64Param(c, "cid")
		if !ok {
			return
		}
		var req CategoryInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Admin.UpdateCategory(c.Request.Context(), req.toDomain(eventID, catID)); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, IDResponse{ID: catID})
	}
}

// @Summary  List open pending entries
// @Success  200 {array} PendingEntryResponse
// @Router   /admin/pending [get]
func handleListPending(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svcs.Review.Pending(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		out := make([]PendingEntryResponse, 0, len(entries))
		for _, p := range entries {
			out = append(out, toPendingEntryResponse(p))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Approve pending entry
// @Param    id   path  int           true  "Entry ID"
// @Param    req  body  ReviewRequest true  "payload"
// @Success  200 {object} TicketResponse
// @Failure  409 {object} ErrorResponse "already processed"
// @Router   /admin/pending/{id}/approve [post]
func handleApprove(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		ticket, err := svcs.Review.Approve(c.Request.Context(), entryID, req.AdminID, req.Notes)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toTicketResponse(ticket))
	}
}

// @Summary  Reject pending entry
// @Param    id   path  int           true  "Entry ID"
// @Param    req  body  ReviewRequest true  "payload"
// @Success  200 {object} map[string]bool
// @Failure  409 {object} ErrorResponse "already processed"
// @Router   /admin/pending/{id}/reject [post]
func handleReject(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Review.Reject(c.Request.Context(), entryID, req.AdminID, req.Notes); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rejected": true})
	}
}

// @Summary  Statistics across events
// @Success  200 {array} domain.EventStats
// @Router   /admin/statistics [get]
func handleStatsByEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svcs.Query.StatsByEvents(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, stats, "public, max-age=15", true)
	}
}

// @Summary  Statistics for one event
// @Param    id  path  int  true  "Event ID"
// @Success  200 {object} domain.EventStats
// @Failure  404 {object} ErrorResponse
// @Router   /admin/statistics/{id} [get]
func handleEventStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		stats, err := svcs.Query.EventStats(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, stats, "public, max-age=15", true)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrMissingPhone),
		errors.Is(err, auth.ErrMissingCode),
		errors.Is(err, auth.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, auth.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
		return
	// registration service
	case errors.Is(err, registration.ErrMissingFields):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing required fields"})
		return
	case errors.Is(err, registration.ErrEventNotFound),
		errors.Is(err, registration.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	// checkin service
	case errors.Is(err, checkin.ErrMissingIdentifier):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "token_id or barcode required"})
		return
	case errors.Is(err, checkin.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, checkin.ErrNotOpen),
		errors.Is(err, checkin.ErrClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	// review service
	case errors.Is(err, review.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "pending entry not found"})
		return
	case errors.Is(err, review.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "entry already processed"})
		return
	// admin service
	case errors.Is(err, admin.ErrEventNotFound),
		errors.Is(err, admin.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, admin.ErrMissingName),
		errors.Is(err, admin.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, admin.ErrLimitsExceedEvent):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	// query service
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, query.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, query.ErrMissingPhone):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone is required"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
