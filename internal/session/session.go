// Package session persists the logged-in user's token and username between
// runs of the terminal client.
//
// Stores do not inspect the token. The two values are always written and
// cleared together.
package session

import (
	"context"
	"fmt"
)

// Session is the persisted login. The zero value means logged out.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Active reports whether s holds a token.
func (s Session) Active() bool {
	return s.Token != ""
}

// Store persists a Session. Load on an empty store returns the zero Session
// and no error.
type Store interface {
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) (Session, error)
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a Store.
type Options struct {
	Backend string

	// Path is the session file for the file backend.
	Path string

	// RedisAddr, RedisPassword and RedisPrefix configure the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
}

// Open builds the Store named by opts.Backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("session: file backend needs a path")
		}
		return NewFileStore(opts.Path), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisPrefix)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("session: unknown backend %q", opts.Backend)
}
