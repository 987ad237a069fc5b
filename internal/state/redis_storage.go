package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "shop:session:"
	sessionScanMatch = sessionKeyPrefix + "*"
	sessionScanBatch = 100
)

// KV is the subset of the Redis client used by RedisStorage.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteIf(ctx context.Context, key string, match func(current string) bool) (bool, error)
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
}

// RedisStorage persists conversation sessions in Redis.
type RedisStorage struct {
	client KV
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage initializes a Redis-backed Storage. A zero ttl keeps sessions forever.
func NewRedisStorage(client KV, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		ttl:    ttl,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetState returns the stored session or ErrStateNotFound when absent.
func (s *RedisStorage) GetState(ctx context.Context, chatID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Warn("failed to get session from redis", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, fmt.Errorf("get session: %w", err)
	}

	session, err := decodeSession(data)
	if err != nil {
		s.log.Warn("failed to decode session", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, err
	}

	return session, nil
}

// SetState overwrites the session of the chat with the given state.
func (s *RedisStorage) SetState(ctx context.Context, chatID int64, st State) error {
	if !st.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownState, st)
	}

	payload, err := json.Marshal(&Session{
		ChatID:       chatID,
		CurrentState: st,
		UpdatedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(chatID), payload, s.ttl); err != nil {
		s.log.Warn("failed to save session in redis", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return fmt.Errorf("set session: %w", err)
	}

	return nil
}

// ClearState removes the session of the chat.
func (s *RedisStorage) ClearState(ctx context.Context, chatID int64) error {
	if err := s.client.Delete(ctx, sessionKey(chatID)); err != nil {
		s.log.Warn("failed to clear session", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}

// ClearStateIfUnchanged removes the session only while it still carries the
// updated_at of seen. It reports false when the chat has written a newer
// session or the session is gone.
func (s *RedisStorage) ClearStateIfUnchanged(ctx context.Context, seen *Session) (bool, error) {
	deleted, err := s.client.DeleteIf(ctx, sessionKey(seen.ChatID), func(current string) bool {
		stored, err := decodeSession(current)
		return err == nil && stored.UpdatedAt.Equal(seen.UpdatedAt)
	})
	if err != nil {
		s.log.Warn("failed to clear session", slog.Int64("chat_id", seen.ChatID), slog.Any("error", err))
		return false, fmt.Errorf("clear session: %w", err)
	}

	return deleted, nil
}

// GetAllStates scans the session key space. Undecodable records are skipped.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionScanMatch, sessionScanBatch)
		if err != nil {
			s.log.Warn("failed to scan sessions", slog.Any("error", err))
			return nil, fmt.Errorf("scan sessions: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("get session %s: %w", key, err)
			}

			session, err := decodeSession(data)
			if err != nil {
				s.log.Warn("skipping undecodable session", slog.String("key", key), slog.Any("error", err))
				continue
			}
			result = append(result, session)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func decodeSession(data string) (*Session, error) {
	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !session.CurrentState.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, session.CurrentState)
	}
	return &session, nil
}

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

