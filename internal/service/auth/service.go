package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/kirinyoku/gate-go/internal/metrics"
	"github.com/kirinyoku/gate-go/internal/notify"
)

// CodeStore abstracts the verification-code lifecycle: one outstanding code
// per phone, expiry handled by the store.
type CodeStore interface {
	Save(ctx context.Context, phone, code string) error
	Get(ctx context.Context, phone string) (string, bool, error)
	Consume(ctx context.Context, phone string) error
}

// Limiter bounds how often a phone may request a fresh code.
type Limiter interface {
	Allow(ctx context.Context, suffix string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Service struct {
	codes    CodeStore
	limiter  Limiter
	notifier notify.Notifier
}

func New(codes CodeStore, limiter Limiter, notifier notify.Notifier) *Service {
	return &Service{
		codes:    codes,
		limiter:  limiter,
		notifier: notifier,
	}
}

const codeLength = 6

// SendCode mints a six-digit verification code for the phone and hands it to
// the notification side-channel. Only the rate limiter can refuse.
//
// Returns:
//   - error: auth.ErrMissingPhone, auth.ErrRateLimited.
func (s *Service) SendCode(ctx context.Context, phone string) error {
	const op = "service.auth.SendCode"

	if phone == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingPhone)
	}

	if s.limiter != nil {
		ok, _, _, err := s.limiter.Allow(ctx, phone)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return fmt.Errorf("%s: %w", op, ErrRateLimited)
		}
	}

	code, err := generateCode(codeLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.codes.Save(ctx, phone, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveSMSCode()

	if s.notifier != nil {
		s.notifier.VerificationCode(ctx, phone, code)
	}

	return nil
}

// VerifyCode checks the submitted code against the outstanding one and
// consumes it on success; a code never verifies twice.
//
// Returns:
//   - error: auth.ErrMissingPhone, auth.ErrMissingCode.
//   - error: auth.ErrCodeInvalid on a missing, expired or mismatched code.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) error {
	const op = "service.auth.VerifyCode"

	if phone == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingPhone)
	}
	if code == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingCode)
	}

	stored, ok, err := s.codes.Get(ctx, phone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok || stored != code {
		return fmt.Errorf("%s: %w", op, ErrCodeInvalid)
	}

	if err := s.codes.Consume(ctx, phone); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func generateCode(length int) (string, error) {
	const charset = "0123456789"

	code := make([]byte, length)
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code), nil
}
