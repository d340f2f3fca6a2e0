package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisx "github.com/kirinyoku/gate-go/internal/redis"
)

func TestVerificationStore_SaveGetConsume(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewVerificationStore(db, 10*time.Minute)

	key := redisx.KeyVerificationCode("5550100")

	mock.ExpectSet(key, "123456", 10*time.Minute).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), "5550100", "123456"))

	mock.ExpectGet(key).SetVal("123456")
	code, ok, err := store.Get(context.Background(), "5550100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123456", code)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, store.Consume(context.Background(), "5550100"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewVerificationStore(db, 10*time.Minute)

	mock.ExpectGet(redisx.KeyVerificationCode("5550100")).RedisNil()

	_, ok, err := store.Get(context.Background(), "5550100")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_InvalidateStats(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := New(db)

	mock.ExpectDel(redisx.KeyEventStats(5), redisx.KeyStatsOverview()).SetVal(2)

	assert.NoError(t, cache.InvalidateStats(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
