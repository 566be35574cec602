package registry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

func TestLoadAllSkipsCorruptEntries(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedisRegistry(client, logger.Nop())

	good := &models.WatchedEntity{
		Address:  "wallet-1",
		Category: models.CategoryWalletSolana,
		Active:   true,
	}
	raw, err := json.Marshal(good)
	require.NoError(t, err)

	mock.ExpectHGetAll(hashKey).SetVal(map[string]string{
		good.Key():     string(raw),
		"broken:entry": "{not json",
	})

	entities, err := r.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, good.Key(), entities[0].Key())
}

func TestAddMarksActiveAndStampsCreation(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedisRegistry(client, logger.Nop())

	entity := &models.WatchedEntity{
		Address:  "owner/repo",
		Category: models.CategoryRepo,
	}
	mock.Regexp().ExpectHSet(hashKey, entity.Key(), `.*"active":true.*`).SetVal(1)

	require.NoError(t, r.Add(context.Background(), entity))
	require.True(t, entity.Active)
	require.False(t, entity.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateRoundTrips(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedisRegistry(client, logger.Nop())

	entity := &models.WatchedEntity{
		Address:   "wallet-2",
		Category:  models.CategoryWalletSolana,
		Active:    true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(entity)
	require.NoError(t, err)

	mock.ExpectHGet(hashKey, entity.Key()).SetVal(string(raw))
	mock.Regexp().ExpectHSet(hashKey, entity.Key(), `.*"active":false.*`).SetVal(0)

	require.NoError(t, r.Deactivate(context.Background(), entity.Key()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateUnknownEntity(t *testing.T) {
	client, mock := redismock.NewClientMock()
	r := NewRedisRegistry(client, logger.Nop())

	mock.ExpectHGet(hashKey, "wallet-solana:missing").RedisNil()

	err := r.Deactivate(context.Background(), "wallet-solana:missing")
	require.Error(t, err)
}
