package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/javiersolana/crypto-swarm/internal/provider"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

func TestRedisAdmitFirstSeen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisLedger(client, logger.Nop(), WithHorizon(720*time.Hour))

	mock.ExpectSetNX(keyPrefix+"buy:sig-1", 1, 720*time.Hour).SetVal(true)

	ok, err := l.Admit(context.Background(), "buy:sig-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAdmitDuplicate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisLedger(client, logger.Nop())

	mock.ExpectSetNX(keyPrefix+"news:99", 1, 30*24*time.Hour).SetVal(false)

	ok, err := l.Admit(context.Background(), "news:99")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAdmitStoreFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisLedger(client, logger.Nop())

	mock.ExpectSetNX(keyPrefix+"buy:sig-2", 1, 30*24*time.Hour).SetErr(errors.New("connection refused"))

	ok, err := l.Admit(context.Background(), "buy:sig-2")
	require.False(t, ok)
	require.ErrorIs(t, err, provider.ErrLedgerUnavailable)
}
