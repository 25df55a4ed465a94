package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"
)

// Provider defines the cache operations used by the reasoning client.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// Key builds a namespaced cache key from the SHA-256 of parts.
func Key(namespace string, parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return "clearpath:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Options selects and configures a provider.
type Options struct {
	Enabled bool
	Memory  bool
	Valkey  ValkeyConfig
}

// New returns the configured provider. A disabled cache yields NoopProvider;
// when Valkey is unreachable the error is logged and NoopProvider is used.
func New(opts Options, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case !opts.Enabled:
		return NoopProvider{}
	case opts.Memory:
		logger.Info("reasoning cache enabled", slog.String("backend", "memory"))
		return NewMemoryProvider()
	}
	provider, err := NewValkeyProvider(opts.Valkey)
	if err != nil {
		logger.Error("valkey cache initialisation failed, continuing without cache", slog.Any("error", err))
		return NoopProvider{}
	}
	logger.Info("reasoning cache enabled", slog.String("backend", "valkey"), slog.String("addr", opts.Valkey.Addr))
	return provider
}

// NoopProvider implements Provider but never stores data.
type NoopProvider struct{}

// Get always returns ErrCacheMiss.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set discards the value.
func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// SetNX reports success without storing anything.
func (NoopProvider) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}

// Del is a no-op.
func (NoopProvider) Del(context.Context, string) error { return nil }

// Close is a no-op.
func (NoopProvider) Close() error { return nil }
