package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/repository"
)

type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[int64]*domain.TicketDetails
}

func newFakeTicketStore(tickets ...*domain.TicketDetails) *fakeTicketStore {
	s := &fakeTicketStore{tickets: make(map[int64]*domain.TicketDetails)}
	for _, t := range tickets {
		s.tickets[t.ID] = t
	}
	return s
}

func (s *fakeTicketStore) FindTicket(ctx context.Context, tokenID, barcode string) (*domain.TicketDetails, error) {
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

func (s *fakeTicketStore) MarkChecked(ctx context.Context, ticketID int64, at time.Time) (bool, error) {
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

func uncheckedTicket() *domain.TicketDetails {
	return &domain.TicketDetails{
		Ticket: domain.Ticket{
			ID:            1,
			TokenID:       "tok-1",
			Barcode:       "TJM17000000000001",
			EventID:       5,
			CheckinStatus: domain.CheckinUnchecked,
		},
		EventName: "Launch Night",
	}
}

func TestCheckIn_ByToken(t *testing.T) {
	store := newFakeTicketStore(uncheckedTicket())
	svc := New(store, nil, nil)

	res, err := svc.CheckIn(context.Background(), "tok-1", "")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, domain.CheckinChecked, res.Ticket.CheckinStatus)
	assert.NotNil(t, res.Ticket.CheckinTime)
}

func TestCheckIn_ByBarcode(t *testing.T) {
	store := newFakeTicketStore(uncheckedTicket())
	svc := New(store, nil, nil)

	res, err := svc.CheckIn(context.Background(), "", "TJM17000000000001")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestCheckIn_MissingIdentifier(t *testing.T) {
	svc := New(newFakeTicketStore(), nil, nil)

	_, err := svc.CheckIn(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestCheckIn_TicketNotFound(t *testing.T) {
	svc := New(newFakeTicketStore(), nil, nil)

	_, err := svc.CheckIn(context.Background(), "nope", "")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestCheckIn_RepeatedScanKeepsFirstTimestamp(t *testing.T) {
	store := newFakeTicketStore(uncheckedTicket())
	svc := New(store, nil, nil)

	first, err := svc.CheckIn(context.Background(), "tok-1", "")
	require.NoError(t, err)
	require.True(t, first.Success)
	firstTime := *first.Ticket.CheckinTime

	second, err := svc.CheckIn(context.Background(), "tok-1", "")
	require.NoError(t, err)

	assert.False(t, second.Success)
	assert.Equal(t, "ticket already checked in", second.Message)
	require.NotNil(t, second.Ticket.CheckinTime)
	assert.Equal(t, firstTime, *second.Ticket.CheckinTime)
}

func TestCheckIn_WindowGates(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	t.Run("before open", func(t *testing.T) {
		ticket := uncheckedTicket()
		ticket.CheckinStart = &later
		svc := New(newFakeTicketStore(ticket), nil, nil)
		svc.now = func() time.Time { return now }

		_, err := svc.CheckIn(context.Background(), "tok-1", "")
		assert.ErrorIs(t, err, ErrNotOpen)
	})

	t.Run("after close", func(t *testing.T) {
		ticket := uncheckedTicket()
		ticket.CheckinEnd = &earlier
		svc := New(newFakeTicketStore(ticket), nil, nil)
		svc.now = func() time.Time { return now }

		_, err := svc.CheckIn(context.Background(), "tok-1", "")
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("inside window", func(t *testing.T) {
		ticket := uncheckedTicket()
		ticket.CheckinStart = &earlier
		ticket.CheckinEnd = &later
		svc := New(newFakeTicketStore(ticket), nil, nil)
		svc.now = func() time.Time { return now }

		res, err := svc.CheckIn(context.Background(), "tok-1", "")
		require.NoError(t, err)
		assert.True(t, res.Success)
	})
}

func TestCheckIn_ConcurrentScansCheckOnce(t *testing.T) {
	store := newFakeTicketStore(uncheckedTicket())
	svc := New(store, nil, nil)

	const scans = 10

	var wg sync.WaitGroup
	results := make([]*Result, scans)

	for i := 0; i < scans; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CheckIn(context.Background(), "tok-1", "")
			if assert.NoError(t, err) {
				results[i] = res
			}
		}()
	}
	wg.Wait()

	var succeeded int
	for _, res := range results {
		require.NotNil(t, res)
		if res.Success {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}
