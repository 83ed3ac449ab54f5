package cache

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache stores rendered query responses. Entries are bound to the
// generation the caller read before querying; Cycle starts a new generation
// so entries of an older one are never returned again, and a Set under an
// older generation is never visible to readers of the current one.
type Cache interface {
	Get(ctx context.Context, gen int64, key string) (string, bool, error)
	Set(ctx context.Context, gen int64, key string, value string) error
	Cycle(ctx context.Context) error
	Generation(ctx context.Context) (int64, error)
	Close()
}

const defaultTTL = 5 * time.Minute

// New returns a Valkey backed cache when addr is set, an in-memory one
// otherwise. namespace separates the keys of several deployments sharing a
// server.
func New(addr, namespace string, ttl time.Duration) (Cache, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = "blocks"
	}

	if addr == "" {
		return NewMemory(ttl), nil
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		DisableCache: strings.Contains(addr, "127.0.0.1") || strings.Contains(addr, "localhost"),
		InitAddress:  []string{addr},
	})
	if err != nil {
		return nil, err
	}
	return &Valkey{client: client, namespace: namespace, ttl: ttl}, nil
}
