package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trialconnect/agent/internal/domain"
)

const redisKeyPrefix = "agent:"

// Redis is the store backend that survives agent restarts.
type Redis struct {
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// take reads and deletes a key in one round trip.
func (r *Redis) take(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.client.GetDel(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Session(ctx context.Context) (*domain.Session, error) {
	var token string
	ok, err := r.get(ctx, keyToken, &token)
	if err != nil || !ok {
		return nil, err
	}

	var user domain.UserRecord
	ok, err = r.get(ctx, keyUser, &user)
	if err != nil || !ok {
		return nil, err
	}

	return &domain.Session{Token: token, User: user}, nil
}

func (r *Redis) SaveSession(ctx context.Context, s domain.Session) error {
	if err := r.put(ctx, keyToken, s.Token); err != nil {
		return err
	}
	return r.put(ctx, keyUser, s.User)
}

func (r *Redis) ClearSession(ctx context.Context) error {
	return r.client.Del(ctx, redisKeyPrefix+keyToken, redisKeyPrefix+keyUser).Err()
}

func (r *Redis) PutPendingAccount(ctx context.Context, a domain.PendingAccount) error {
	return r.put(ctx, keyPendingAccount, a)
}

func (r *Redis) TakePendingAccount(ctx context.Context) (*domain.PendingAccount, error) {
	var a domain.PendingAccount
	ok, err := r.take(ctx, keyPendingAccount, &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

func (r *Redis) HasPendingAccount(ctx context.Context) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+keyPendingAccount).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", keyPendingAccount, err)
	}
	return n > 0, nil
}

func (r *Redis) ClearPendingAccountIfNot(ctx context.Context, auth0ID string) error {
	var a domain.PendingAccount
	ok, err := r.get(ctx, keyPendingAccount, &a)
	if err != nil {
		// An unreadable record is stale by definition.
		return r.ClearPendingAccount(ctx)
	}
	if !ok {
		return nil
	}
	if a.Auth0ID != auth0ID {
		return r.ClearPendingAccount(ctx)
	}
	return nil
}

func (r *Redis) ClearPendingAccount(ctx context.Context) error {
	return r.client.Del(ctx, redisKeyPrefix+keyPendingAccount).Err()
}

func (r *Redis) PutPendingOnboarding(ctx context.Context, o domain.PendingOnboarding) error {
	return r.put(ctx, keyPendingOnboarding, o)
}

func (r *Redis) TakePendingOnboarding(ctx context.Context) (*domain.PendingOnboarding, error) {
	var o domain.PendingOnboarding
	ok, err := r.take(ctx, keyPendingOnboarding, &o)
	if err != nil || !ok {
		return nil, err
	}
	return &o, nil
}

func (r *Redis) SetOTPExpiry(ctx context.Context, email string, at time.Time) error {
	return r.put(ctx, otpKey(email), at)
}

func (r *Redis) OTPExpiry(ctx context.Context, email string) (*time.Time, error) {
	var at time.Time
	ok, err := r.get(ctx, otpKey(email), &at)
	if err != nil || !ok {
		return nil, err
	}
	return &at, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
