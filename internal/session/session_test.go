package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, s.Active(), "empty store loads a logged-out session")

	require.NoError(t, store.Save(ctx, Session{Token: "T1", Username: "alice"}))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "T1", Username: "alice"}, s)

	require.NoError(t, store.Save(ctx, Session{Token: "T2", Username: "bob"}))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", s.Token)

	require.NoError(t, store.Clear(ctx))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{}, s)

	require.NoError(t, store.Clear(ctx), "clearing twice is fine")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), Session{Token: "T1", Username: "alice"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second store on the same path sees the saved session.
	s, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Username)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CODEMASTER_REDIS_ADDR")
	if addr == "" {
		t.Skip("CODEMASTER_REDIS_ADDR not set")
	}

	prefix := "codemaster-test:" + t.Name() + ":"
	store, err := NewRedisStore(context.Background(), addr, os.Getenv("CODEMASTER_REDIS_PASSWORD"), prefix)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Clear(context.Background())
		store.Close()
	})

	exerciseStore(t, store)
}

func TestRedisStore_Keys(t *testing.T) {
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	defer store.Close()

	assert.Equal(t, "codemaster:token", store.tokenKey())
	assert.Equal(t, "codemaster:username", store.usernameKey())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open(ctx, Options{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
