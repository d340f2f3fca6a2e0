package review

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/gate-go/internal/domain"
	"github.com/kirinyoku/gate-go/internal/repository"
)

type fakeReviewStore struct {
	mu sync.Mutex

	entries       map[int64]*domain.PendingEntry
	registrations map[int64]domain.RegistrationStatus
	tickets       []*domain.Ticket
	nextID        int64
}

func newFakeReviewStore(entries ...*domain.PendingEntry) *fakeReviewStore {
	s := &fakeReviewStore{
		entries:       make(map[int64]*domain.PendingEntry),
		registrations: make(map[int64]domain.RegistrationStatus),
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.registrations[e.RegistrationID] = domain.RegistrationPending
	}
	return s
}

func (s *fakeReviewStore) Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, (*fakeReviewTx)(s))
}

func (s *fakeReviewStore) ListOpen(ctx context.Context) ([]domain.PendingEntryDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PendingEntryDetails
	for _, e := range s.entries {
		if e.Status == domain.PendingOpen {
			out = append(out, domain.PendingEntryDetails{PendingEntry: *e})
		}
	}
	return out, nil
}

type fakeReviewTx fakeReviewStore

func (t *fakeReviewTx) GetEntry(ctx context.Context, id int64) (*domain.PendingEntry, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *fakeReviewTx) MarkReviewed(
	ctx context.Context,
	id int64,
	status domain.PendingStatus,
	reviewedBy int64,
	notes string,
	at time.Time,
) (bool, error) {
	e, ok := t.entries[id]
	if !ok || e.Status != domain.PendingOpen {
		return false, nil
	}
	e.Status = status
	e.ReviewedBy = &reviewedBy
	e.ReviewedAt = &at
	e.AdminNotes = notes
	return true, nil
}

func (t *fakeReviewTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	t.nextID++
	tk.ID = t.nextID
	cp := *tk
	t.tickets = append(t.tickets, &cp)
	return nil
}

func (t *fakeReviewTx) SetRegistrationStatus(ctx context.Context, regID int64, status domain.RegistrationStatus) error {
	t.registrations[regID] = status
	return nil
}

func openEntry() *domain.PendingEntry {
	return &domain.PendingEntry{
		ID:             1,
		RegistrationID: 100,
		Name:           "Ada",
		Email:          "ada@example.com",
		Phone:          "5550100",
		EventID:        5,
		CategoryID:     10,
		Status:         domain.PendingOpen,
	}
}

func TestApprove_IssuesTicket(t *testing.T) {
	store := newFakeReviewStore(openEntry())
	svc := New(store, nil, nil, nil, Config{})

	ticket, err := svc.Approve(context.Background(), 1, 7, "verified by phone")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.Barcode, domain.BarcodePrefix))
	assert.NotEmpty(t, ticket.TokenID)
	assert.Equal(t, domain.CollectionAdmin, ticket.CollectionMethod)
	assert.Equal(t, domain.CheckinUnchecked, ticket.CheckinStatus)

	entry := store.entries[1]
	assert.Equal(t, domain.PendingApproved, entry.Status)
	require.NotNil(t, entry.ReviewedBy)
	assert.Equal(t, int64(7), *entry.ReviewedBy)
	assert.Equal(t, "verified by phone", entry.AdminNotes)
	assert.Equal(t, domain.RegistrationConfirmed, store.registrations[100])
	assert.Len(t, store.tickets, 1)
}

func TestApprove_EntryNotFound(t *testing.T) {
	svc := New(newFakeReviewStore(), nil, nil, nil, Config{})

	_, err := svc.Approve(context.Background(), 42, 7, "")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestApprove_AlreadyProcessed(t *testing.T) {
	store := newFakeReviewStore(openEntry())
	svc := New(store, nil, nil, nil, Config{})

	_, err := svc.Approve(context.Background(), 1, 7, "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), 1, 8, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Len(t, store.tickets, 1)
}

func TestReject_ClosesEntry(t *testing.T) {
	store := newFakeReviewStore(openEntry())
	svc := New(store, nil, nil, nil, Config{})

	err := svc.Reject(context.Background(), 1, 7, "duplicate request")
	require.NoError(t, err)

	entry := store.entries[1]
	assert.Equal(t, domain.PendingRejected, entry.Status)
	assert.Equal(t, domain.RegistrationRejected, store.registrations[100])
	assert.Empty(t, store.tickets)
}

func TestReject_AfterApproveFails(t *testing.T) {
	store := newFakeReviewStore(openEntry())
	svc := New(store, nil, nil, nil, Config{})

	_, err := svc.Approve(context.Background(), 1, 7, "")
	require.NoError(t, err)

	err = svc.Reject(context.Background(), 1, 8, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	// The approval's consequences stand.
	assert.Equal(t, domain.RegistrationConfirmed, store.registrations[100])
}

func TestConcurrentReviewDecidesOnce(t *testing.T) {
	store := newFakeReviewStore(openEntry())
	svc := New(store, nil, nil, nil, Config{})

	const reviewers = 8

	var wg sync.WaitGroup
	outcomes := make([]error, reviewers)

	for i := 0; i < reviewers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, outcomes[i] = svc.Approve(context.Background(), 1, int64(i), "")
			} else {
				outcomes[i] = svc.Reject(context.Background(), 1, int64(i), "")
			}
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range outcomes {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyProcessed)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.LessOrEqual(t, len(store.tickets), 1)
}

func TestPending_ListsOpenOnly(t *testing.T) {
	decided := openEntry()
	decided.ID = 2
	decided.RegistrationID = 101
	decided.Status = domain.PendingApproved

	store := newFakeReviewStore(openEntry(), decided)
	svc := New(store, nil, nil, nil, Config{})

	entries, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
}
