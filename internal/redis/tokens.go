package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("refresh token not found or already used")

// RefreshStore tracks live refresh tokens by their JWT id. Consume is
// one-shot: a token can be exchanged exactly once.
type RefreshStore struct {
	client *redis.Client
}

func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

func refreshKey(jti string) string {
	return "refresh:" + jti
}

func (s *RefreshStore) Save(ctx context.Context, jti, accountID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(jti), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *RefreshStore) Consume(ctx context.Context, jti string) (string, error) {
	accountID, err := s.client.GetDel(ctx, refreshKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return accountID, nil
}
