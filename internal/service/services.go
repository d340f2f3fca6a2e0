package service

import (
	"github.com/kirinyoku/gate-go/internal/notify"
	redisx "github.com/kirinyoku/gate-go/internal/redis"
	postgres "github.com/kirinyoku/gate-go/internal/repository/postgres"
	redis "github.com/kirinyoku/gate-go/internal/repository/redis"
	"github.com/kirinyoku/gate-go/internal/service/admin"
	"github.com/kirinyoku/gate-go/internal/service/auth"
	"github.com/kirinyoku/gate-go/internal/service/checkin"
	"github.com/kirinyoku/gate-go/internal/service/query"
	"github.com/kirinyoku/gate-go/internal/service/registration"
	"github.com/kirinyoku/gate-go/internal/service/review"
)

type Services struct {
	Registration *registration.Service
	Checkin      *checkin.Service
	Review       *review.Service
	Admin        *admin.Service
	Query        *query.Service
	Auth         *auth.Service
}

type Config struct {
	Registration registration.Config
	Review       review.Config
	Query        query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.EventsPubSub,
	codes *redis.VerificationStore,
	smsLimiter *redis.SlidingWindowLimiter,
	notifier notify.Notifier,
	cfg Config,
) *Services {
	return &Services{
		Registration: registration.New(postgres.NewRegistrationFlow(store), cache, pubsub, notifier, cfg.Registration),
		Checkin:      checkin.New(postgres.NewCheckinStore(store), cache, pubsub),
		Review:       review.New(postgres.NewReviewFlow(store), cache, pubsub, notifier, cfg.Review),
		Admin:        admin.New(store, cache, pubsub),
		Query:        query.New(store, cache, cfg.Query),
		Auth:         auth.New(codes, smsLimiter, notifier),
	}
}
