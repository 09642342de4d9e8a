package session

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) AccessSessionKey(accessID string) string {
	return "session:access:" + accessID
}

func newTestManager() (*Manager, *memoryStore) {
	store := newMemoryStore()
	return &Manager{store: store, keyer: prefixKeyer{}, ttl: time.Hour}, store
}

func TestGenerateAndHasSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	token, err := m.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected refresh token")
	}

	ok, err := m.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected live session")
	}

	ok, err = m.HasSession(ctx, "access-2")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("did not expect session for unknown access id")
	}
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	token, err := m.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	newID, newToken, err := m.Rotate(ctx, "access-1", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newID == "access-1" || newToken == token {
		t.Fatal("rotation must issue a fresh pair")
	}

	if _, ok := store.values["session:access:access-1"]; ok {
		t.Fatal("old session should be deleted after rotation")
	}
	if _, ok := store.values["session:access:"+newID]; !ok {
		t.Fatal("new session should be stored")
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if _, err := m.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, _, err := m.Rotate(ctx, "access-1", "forged")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if _, err := m.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := m.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err := m.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("session should be gone after revoke")
	}
}
