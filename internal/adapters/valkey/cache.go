package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

const seenPrefix = "listings:seen:"

// Cache implements ports.CacheService and ports.SeenStore using Valkey.
type Cache struct {
	client valkey.Client
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key. A missing key returns ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Seen reports whether a listing ID was marked seen.
func (c *Cache) Seen(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Do(ctx, c.client.B().Exists().Key(seenPrefix+id).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen records a listing ID for ttl.
func (c *Cache) MarkSeen(ctx context.Context, id string, ttl time.Duration) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(seenPrefix+id).Value("1").Nx().Ex(ttl).Build(),
	)
	if err := cmd.Error(); err != nil && !valkey.IsValkeyNil(err) {
		return err
	}
	return nil
}

// Ping checks the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
