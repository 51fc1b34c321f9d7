package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/trialconnect/agent/internal/domain"
)

// Memory is the default in-process store backend.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) get(key string, out any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) delete(keys ...string) {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
	}
	m.mu.Unlock()
}

func (m *Memory) Session(ctx context.Context) (*domain.Session, error) {
	var token string
	ok, err := m.get(keyToken, &token)
	if err != nil || !ok {
		return nil, err
	}

	var user domain.UserRecord
	ok, err = m.get(keyUser, &user)
	if err != nil || !ok {
		return nil, err
	}

	return &domain.Session{Token: token, User: user}, nil
}

func (m *Memory) SaveSession(ctx context.Context, s domain.Session) error {
	if err := m.put(keyToken, s.Token); err != nil {
		return err
	}
	return m.put(keyUser, s.User)
}

func (m *Memory) ClearSession(ctx context.Context) error {
	m.delete(keyToken, keyUser)
	return nil
}

func (m *Memory) PutPendingAccount(ctx context.Context, a domain.PendingAccount) error {
	return m.put(keyPendingAccount, a)
}

func (m *Memory) TakePendingAccount(ctx context.Context) (*domain.PendingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.values[keyPendingAccount]
	if !ok {
		return nil, nil
	}
	delete(m.values, keyPendingAccount)

	var a domain.PendingAccount
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", keyPendingAccount, err)
	}
	return &a, nil
}

func (m *Memory) HasPendingAccount(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[keyPendingAccount]
	return ok, nil
}

func (m *Memory) ClearPendingAccountIfNot(ctx context.Context, auth0ID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.values[keyPendingAccount]
	if !ok {
		return nil
	}

	var a domain.PendingAccount
	if err := json.Unmarshal(raw, &a); err != nil {
		// An unreadable record is stale by definition.
		delete(m.values, keyPendingAccount)
		return nil
	}
	if a.Auth0ID != auth0ID {
		delete(m.values, keyPendingAccount)
	}
	return nil
}

func (m *Memory) ClearPendingAccount(ctx context.Context) error {
	m.delete(keyPendingAccount)
	return nil
}

func (m *Memory) PutPendingOnboarding(ctx context.Context, o domain.PendingOnboarding) error {
	return m.put(keyPendingOnboarding, o)
}

func (m *Memory) TakePendingOnboarding(ctx context.Context) (*domain.PendingOnboarding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.values[keyPendingOnboarding]
	if !ok {
		return nil, nil
	}
	delete(m.values, keyPendingOnboarding)

	var o domain.PendingOnboarding
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", keyPendingOnboarding, err)
	}
	return &o, nil
}

func (m *Memory) SetOTPExpiry(ctx context.Context, email string, at time.Time) error {
	return m.put(otpKey(email), at)
}

func (m *Memory) OTPExpiry(ctx context.Context, email string) (*time.Time, error) {
	var at time.Time
	ok, err := m.get(otpKey(email), &at)
	if err != nil || !ok {
		return nil, err
	}
	return &at, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
