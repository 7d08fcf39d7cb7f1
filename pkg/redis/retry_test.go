package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryableGet_RetriesTransientErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("stats:admin:20240101:20240131").SetErr(errors.New("read: connection reset by peer"))
	mock.ExpectGet("stats:admin:20240101:20240131").SetVal(`{"summary":{}}`)

	got, err := NewFromClient(db).RetryableGet(context.Background(), "stats:admin:20240101:20240131")

	require.NoError(t, err)
	assert.Equal(t, `{"summary":{}}`, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryableSet_StopsOnCommandErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSet("k", "v", time.Minute).SetErr(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))

	err := NewFromClient(db).RetryableSet(context.Background(), "k", "v", time.Minute)

	assert.ErrorContains(t, err, "WRONGTYPE")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryableDelete_GivesUpAfterMaxAttempts(t *testing.T) {
	db, mock := redismock.NewClientMock()
	for i := 0; i < 3; i++ {
		mock.ExpectDel("k").SetErr(errors.New("i/o timeout"))
	}

	err := NewFromClient(db).RetryableDelete(context.Background(), "k")

	assert.ErrorContains(t, err, "i/o timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}
