package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studytrackhq/studytrack-api/internal/models"
)

// ErrTokenNotFound signals a refresh token that is absent, expired, or revoked.
var ErrTokenNotFound = errors.New("refresh token not found")

// TokenRepository stores refresh tokens in Redis. The key TTL matches the
// token expiry, so expiry and revocation are both just key absence.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository constructs a token repository.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

func tokenKey(token string) string {
	return "refresh_token:" + token
}

// Save persists a refresh token until its expiry.
func (r *TokenRepository) Save(ctx context.Context, token *models.RefreshToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refresh token already expired")
	}

	if err := r.client.Set(ctx, tokenKey(token.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}
	return nil
}

// Find loads a refresh token by its value.
func (r *TokenRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	raw, err := r.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}

	var stored models.RefreshToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	return &stored, nil
}

// Revoke removes a refresh token.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis del refresh token: %w", err)
	}
	return nil
}
