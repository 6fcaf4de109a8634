package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

func exerciseStore(t *testing.T, store repositories.TokenStore) {
	t.Helper()
	ctx := context.Background()

	token, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store failed: %v", err)
	}
	if token != "" {
		t.Fatalf("Expected empty token, got %q", token)
	}

	if err := store.Save(ctx, "token-1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "token-2"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if token, _ := store.Load(ctx); token != "token-2" {
		t.Errorf("Expected token-2, got %q", token)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}
	if token, _ := store.Load(ctx); token != "" {
		t.Errorf("Expected empty token after clear, got %q", token)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path, zaptest.NewLogger(t))
	exerciseStore(t, store)

	if err := store.Save(context.Background(), "secret"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestFileStoreDefaultPath(t *testing.T) {
	store := NewFileStore("", zap.NewNop())
	if store.Path() != DefaultFileName {
		t.Errorf("Expected default path %s, got %s", DefaultFileName, store.Path())
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis token store test")
	}

	store, err := NewRedisStore(context.Background(), RedisConfig{URL: url, Key: "empathy:test:token"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create redis store: %v", err)
	}
	defer store.Close()
	_ = store.Clear(context.Background())

	exerciseStore(t, store)
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), RedisConfig{}, zap.NewNop()); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := NewRedisStore(context.Background(), RedisConfig{URL: "not-a-url"}, zap.NewNop()); err == nil {
		t.Error("Expected error for malformed URL")
	}
}
