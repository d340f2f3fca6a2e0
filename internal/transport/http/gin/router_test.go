package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/repository"
	"github.com/kirinyoku/gate-go/internal/service"
	"github.com/kirinyoku/gate-go/internal/service/checkin"
)

type memTicketStore struct {
	mu      sync.Mutex
	tickets map[int64]*domain.TicketDetails
}

func (s *memTicketStore) FindTicket(ctx context.Context, tokenID, barcode string) (*domain.TicketDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if (tokenID != "" && t.TokenID == tokenID) || (barcode != "" && t.Barcode == barcode) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memTicketStore) MarkChecked(ctx context.Context, ticketID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok || t.CheckinStatus != domain.CheckinUnchecked {
		return false, nil
	}
	t.CheckinStatus = domain.CheckinChecked
	t.CheckinTime = &at
	return true, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memTicketStore{tickets: map[int64]*domain.TicketDetails{
		1: {
			Ticket: domain.Ticket{
				ID:            1,
				TokenID:       "tok-1",
				Barcode:       "TJM17000000000001",
				EventID:       5,
				CheckinStatus: domain.CheckinUnchecked,
			},
			EventName: "Launch Night",
		},
	}}

	svcs := &service.Services{
		Checkin: checkin.New(store, nil, nil),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(svcs, logger)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCheckinEndpoint_Success(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/checkin", CheckinRequest{TokenID: "tok-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckinResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Ticket)
	assert.Equal(t, "checked", resp.Ticket.CheckinStatus)
}

func TestCheckinEndpoint_RepeatIsNotAnError(t *testing.T) {
	r := newTestRouter(t)

	first := doJSON(t, r, http.MethodPost, "/checkin", CheckinRequest{TokenID: "tok-1"})
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, r, http.MethodPost, "/checkin", CheckinRequest{TokenID: "tok-1"})
	require.Equal(t, http.StatusOK, second.Code)

	var resp CheckinResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "ticket already checked in", resp.Message)
}

func TestCheckinEndpoint_NotFound(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/checkin", CheckinRequest{TokenID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckinEndpoint_MissingIdentifier(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/checkin", CheckinRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
