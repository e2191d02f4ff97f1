package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-authgate/keygate/internal/core"

	"github.com/redis/rueidis"
	"golang.org/x/sync/singleflight"
)

// Compile-time interface check.
var _ core.Cache[struct{}] = (*RueidisCache[struct{}])(nil)

// RueidisCache stores JSON-encoded values in Redis so that several keygate
// instances share user lookups and gauge counts.
type RueidisCache[T any] struct {
	client    rueidis.Client
	keyPrefix string
	group     singleflight.Group
}

// NewRueidisCache connects to Redis and pings it before returning.
func NewRueidisCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
) (*RueidisCache[T], error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		SelectDB:     db,
		ClientName:   "keygate",
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	r := &RueidisCache[T]{client: client, keyPrefix: keyPrefix}
	if err := r.Health(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func (r *RueidisCache[T]) key(k string) string {
	return r.keyPrefix + k
}

// Get decodes the JSON stored under key. A missing key is ErrCacheMiss.
func (r *RueidisCache[T]) Get(ctx context.Context, key string) (T, error) {
	var value T

	raw, err := r.client.Do(ctx, r.client.B().Get().Key(r.key(key)).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return value, ErrCacheMiss
	case err != nil:
		return value, unavailable(err)
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}

// Set stores value as JSON. The entry expires after ttl.
func (r *RueidisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	cmd := r.client.B().Set().Key(r.key(key)).Value(rueidis.BinaryString(encoded)).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete evicts key. Deleting a missing key is not an error.
func (r *RueidisCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Do(ctx, r.client.B().Del().Key(r.key(key)).Build()).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *RueidisCache[T]) Close() error {
	r.client.Close()
	return nil
}

// Health pings Redis.
func (r *RueidisCache[T]) Health(ctx context.Context) error {
	if err := r.client.Do(ctx, r.client.B().Ping().Build()).Error(); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}

// GetWithFetch retrieves a value using the cache-aside pattern. A Redis
// outage degrades to calling fetchFunc directly. Stampede protection is
// per instance only.
func (r *RueidisCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := r.Get(ctx, key); err == nil {
		return value, nil
	}
	return fetchShared(ctx, &r.group, key, func(ctx context.Context) (T, error) {
		value, err := fetchFunc(ctx, key)
		if err != nil {
			return value, err
		}
		_ = r.Set(ctx, key, value, ttl)
		return value, nil
	})
}
