package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"boostgate/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// SessionStore implements ports.SessionStore using Redis. Sessions are
// keyed by token ID so deleting the record revokes the token immediately.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// Save stores a session record with TTL.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+session.TokenID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis session save: %w", err)
	}
	return nil
}

// Get retrieves a session by token ID. Returns nil, nil when absent, which
// callers treat as a revoked or expired session.
func (s *SessionStore) Get(ctx context.Context, tokenID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.prefix+tokenID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis session get: %w", err)
	}

	session := &domain.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes a session, revoking its token.
func (s *SessionStore) Delete(ctx context.Context, tokenID string) error {
	if err := s.client.Del(ctx, s.prefix+tokenID).Err(); err != nil {
		return fmt.Errorf("redis session delete: %w", err)
	}
	return nil
}

// UpdateBalance refreshes the cached balance without touching the TTL.
func (s *SessionStore) UpdateBalance(ctx context.Context, tokenID string, balance decimal.Decimal) error {
	key := s.prefix + tokenID

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil // session gone, nothing to refresh
		}
		return fmt.Errorf("redis session get: %w", err)
	}

	session := &domain.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}
	session.Balance = balance

	updated, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key, updated, goredis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis session update: %w", err)
	}
	return nil
}
