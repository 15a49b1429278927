// Package chatstore persists session transcripts in Redis. It backs the
// debounced autosave and lets a saved session be inspected later.
package chatstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"proposal-chat/internal/common/errors"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"

	"github.com/redis/go-redis/v9"
)

// Saved transcripts expire on their own; the chat store is a convenience
// archive, not the system of record.
const transcriptTTL = 30 * 24 * time.Hour

type RedisStore struct {
	rdb       *redis.Client
	sessionID string
	log       logger.Logger
}

type record struct {
	Title      string             `json:"title"`
	Transcript []dialogue.Message `json:"transcript"`
	SavedAt    time.Time          `json:"savedAt"`
}

func NewRedisStore(rdb *redis.Client, sessionID string, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisStore{rdb: rdb, sessionID: sessionID, log: log}
}

func transcriptKey(sessionID string) string {
	return "chat:transcript:" + sessionID
}

// SaveTranscript overwrites the stored transcript for this session.
// Overlapping autosaves coalesce upstream, so last-write-wins is fine.
func (s *RedisStore) SaveTranscript(ctx context.Context, title string, transcript []dialogue.Message) error {
	data, err := json.Marshal(record{
		Title:      title,
		Transcript: transcript,
		SavedAt:    time.Now().UTC(),
	})
	if err != nil {
		return errors.NewTranscriptSaveFailedError(fmt.Errorf("failed to marshal transcript: %w", err))
	}

	if err := s.rdb.Set(ctx, transcriptKey(s.sessionID), data, transcriptTTL).Err(); err != nil {
		return errors.NewTranscriptSaveFailedError(err)
	}

	s.log.Debug("transcript saved", map[string]interface{}{
		"sessionId": s.sessionID,
		"messages":  len(transcript),
	})
	return nil
}

// LoadTranscript returns the stored title and messages for this session.
func (s *RedisStore) LoadTranscript(ctx context.Context) (string, []dialogue.Message, error) {
	data, err := s.rdb.Get(ctx, transcriptKey(s.sessionID)).Result()
	if err == redis.Nil {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return rec.Title, rec.Transcript, nil
}
