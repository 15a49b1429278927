package chatstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "session-1234", logger.NewTestLogger(t)), mr
}

func sampleTranscript() []dialogue.Message {
	return []dialogue.Message{
		{Sender: dialogue.SenderUser, Text: "Build me a WordPress site"},
		{Sender: dialogue.SenderBot, Text: "What's your name?"},
		{Sender: dialogue.SenderBot, Text: "Your estimate is ready:", AttachedLink: "https://x/y.pdf"},
	}
}

func TestSaveAndLoadTranscript(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTranscript(ctx, "Estimator chat session-", sampleTranscript()))

	title, msgs, err := store.LoadTranscript(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Estimator chat session-", title)
	require.Len(t, msgs, 3)
	assert.Equal(t, dialogue.SenderUser, msgs[0].Sender)
	assert.Equal(t, "https://x/y.pdf", msgs[2].AttachedLink)
}

func TestSaveTranscript_Overwrites(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTranscript(ctx, "v1", sampleTranscript()[:1]))
	require.NoError(t, store.SaveTranscript(ctx, "v2", sampleTranscript()))

	title, msgs, err := store.LoadTranscript(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", title)
	assert.Len(t, msgs, 3)
}

func TestSaveTranscript_SetsTTL(t *testing.T) {
	store, mr := newMiniredisStore(t)

	require.NoError(t, store.SaveTranscript(context.Background(), "t", sampleTranscript()))

	ttl := mr.TTL(transcriptKey("session-1234"))
	assert.Equal(t, transcriptTTL, ttl)

	// After the TTL elapses, the transcript is gone.
	mr.FastForward(transcriptTTL + time.Minute)
	title, msgs, err := store.LoadTranscript(context.Background())
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Nil(t, msgs)
}

func TestLoadTranscript_Missing(t *testing.T) {
	store, _ := newMiniredisStore(t)

	title, msgs, err := store.LoadTranscript(context.Background())
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Nil(t, msgs)
}

func TestSaveTranscript_RedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb, "session-1234", logger.NewTestLogger(t))

	mock.Regexp().ExpectSet(transcriptKey("session-1234"), `.*`, transcriptTTL).
		SetErr(fmt.Errorf("connection reset"))

	err := store.SaveTranscript(context.Background(), "t", sampleTranscript())
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeTranscriptSaveFailed), errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTranscript_RedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewRedisStore(rdb, "session-1234", logger.NewTestLogger(t))

	mock.ExpectGet(transcriptKey("session-1234")).SetErr(fmt.Errorf("connection reset"))

	_, _, err := store.LoadTranscript(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTranscript_CorruptRecord(t *testing.T) {
	store, mr := newMiniredisStore(t)
	require.NoError(t, mr.Set(transcriptKey("session-1234"), "not-json"))

	_, _, err := store.LoadTranscript(context.Background())
	require.Error(t, err)
}
