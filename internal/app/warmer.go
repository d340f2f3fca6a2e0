package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirinyoku/gate-go/internal/domain"
)

type statsSource interface {
	EventStats(ctx context.Context, eventID int64) (*domain.EventStats, error)
}

type changeFeed interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, eventID int64)) error
}

// statsWarmer listens for event-changed signals and recomputes the event's
// statistics. Writers drop the cached entry before publishing, so the
// recompute lands in cache and dashboards read a warm copy instead of paying
// the aggregate query themselves.
type statsWarmer struct {
	feed   changeFeed
	stats  statsSource
	logger *slog.Logger
}

func (w *statsWarmer) run(ctx context.Context) error {
	err := w.feed.Subscribe(ctx, w.refresh)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *statsWarmer) refresh(ctx context.Context, eventID int64) {
	if _, err := w.stats.EventStats(ctx, eventID); err != nil {
		w.logger.Warn("stats refresh failed", "event_id", eventID, "error", err)
		return
	}
	w.logger.Debug("stats cache warmed", "event_id", eventID)
}
