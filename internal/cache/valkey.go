package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey keeps entries under "{namespace:generation}:key". The generation
// counter lives on the server so a Cycle from the editor process is seen by
// every API process.
type Valkey struct {
	client    valkey.Client
	namespace string
	ttl       time.Duration
}

var _ Cache = (*Valkey)(nil)

func (s *Valkey) generationKey() string {
	return "{" + s.namespace + "}:generation"
}

func (s *Valkey) Generation(ctx context.Context) (int64, error) {
	cmd := s.client.B().Get().Key(s.generationKey()).Build()
	gen, err := s.client.Do(ctx, cmd).AsInt64()
	if valkey.IsValkeyNil(err) {
		return 0, nil
	}
	return gen, err
}

func (s *Valkey) entryKey(gen int64, key string) string {
	return fmt.Sprintf("{%s:%d}:%s", s.namespace, gen, key)
}

func (s *Valkey) Get(ctx context.Context, gen int64, key string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(gen, key)).Build()
	val, err := s.client.Do(ctx, cmd).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set writes under gen. A write racing a Cycle lands in the old generation,
// which no reader asks for again.
func (s *Valkey) Set(ctx context.Context, gen int64, key string, value string) error {
	cmd := s.client.B().Set().Key(s.entryKey(gen, key)).Value(value).Px(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Cycle bumps the shared generation. Old entries expire with their TTL.
func (s *Valkey) Cycle(ctx context.Context) error {
	cmd := s.client.B().Incr().Key(s.generationKey()).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *Valkey) Close() {
	s.client.Close()
}
