// Package notify is the outbound messaging seam. The default implementation
// just logs; a real SMS or mail gateway plugs in behind the same interface.
package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers user-facing messages. Implementations must not block on
// delivery; failures are logged, never surfaced to the caller.
type Notifier interface {
	// TicketReady tells the holder their ticket is issued and where to
	// collect it. Email may be empty.
	TicketReady(ctx context.Context, email, phone, link string)

	// VerificationCode sends a short-lived login code to the phone.
	VerificationCode(ctx context.Context, phone, code string)
}

// LogNotifier writes every message to the structured log instead of sending
// it anywhere. Used in development and as the default wiring.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) TicketReady(ctx context.Context, email, phone, link string) {
	n.log.InfoContext(ctx, "ticket ready notification",
		slog.String("email", email),
		slog.String("phone", phone),
		slog.String("link", link),
	)
}

func (n *LogNotifier) VerificationCode(ctx context.Context, phone, code string) {
	n.log.InfoContext(ctx, "verification code notification",
		slog.String("phone", phone),
		slog.String("code", code),
	)
}
