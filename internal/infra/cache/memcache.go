package cache

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("cache")

// Memcache stores dashboard payloads shared by every API instance.
type Memcache struct {
	client *memcache.Client
}

func NewMemcache(client *memcache.Client) *Memcache {
	return &Memcache{client: client}
}

func (c *Memcache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_, span := tracer.Start(ctx, "Cache.Memcache.Get")
	defer span.End()

	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		span.SetAttributes(attribute.Bool("hit", false))
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, errors.Wrap(err, "Cache.Memcache.Get")
	}
	span.SetAttributes(attribute.Bool("hit", true))
	return item.Value, true, nil
}

func (c *Memcache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := tracer.Start(ctx, "Cache.Memcache.Set")
	defer span.End()

	err := c.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(ttl / time.Second),
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "Cache.Memcache.Set")
	}
	return nil
}
