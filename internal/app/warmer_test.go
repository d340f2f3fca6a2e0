package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/gate-go/internal/domain"
)

type fakeFeed struct {
	events []int64
	err    error
}

func (f *fakeFeed) Subscribe(ctx context.Context, handler func(ctx context.Context, eventID int64)) error {
	for _, id := range f.events {
		handler(ctx, id)
	}
	return f.err
}

type fakeStats struct {
	refreshed []int64
	failOn    int64
}

func (s *fakeStats) EventStats(ctx context.Context, eventID int64) (*domain.EventStats, error) {
	if eventID == s.failOn {
		return nil, errors.New("aggregate query failed")
	}
	s.refreshed = append(s.refreshed, eventID)
	return &domain.EventStats{EventID: eventID}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsWarmer_RefreshesChangedEvents(t *testing.T) {
	stats := &fakeStats{}
	w := &statsWarmer{
		feed:   &fakeFeed{events: []int64{5, 7, 5}, err: context.Canceled},
		stats:  stats,
		logger: discardLogger(),
	}

	err := w.run(context.Background())

	require.NoError(t, err, "cancellation is a clean shutdown")
	assert.Equal(t, []int64{5, 7, 5}, stats.refreshed)
}

func TestStatsWarmer_KeepsGoingAfterRefreshFailure(t *testing.T) {
	stats := &fakeStats{failOn: 7}
	w := &statsWarmer{
		feed:   &fakeFeed{events: []int64{7, 9}, err: context.Canceled},
		stats:  stats,
		logger: discardLogger(),
	}

	require.NoError(t, w.run(context.Background()))
	assert.Equal(t, []int64{9}, stats.refreshed)
}

func TestStatsWarmer_SurfacesFeedErrors(t *testing.T) {
	feedErr := errors.New("redis connection lost")
	w := &statsWarmer{
		feed:   &fakeFeed{err: feedErr},
		stats:  &fakeStats{},
		logger: discardLogger(),
	}

	err := w.run(context.Background())

	require.ErrorIs(t, err, feedErr)
}
