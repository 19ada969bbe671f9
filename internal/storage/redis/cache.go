// Package redis stores agency search results in Redis.
package redis

import (
	"context"
	"crypto/sha1" //nolint:gosec // key hashing only
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/logger"
)

const (
	defaultPrefix = "agency:search"
	pingTimeout   = 2 * time.Second
)

type Conf struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, conf Conf) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis %s: %w", conf.Addr, err)
	}

	return client, nil
}

// SearchCache implements agency.SearchCache. Entries expire after the
// configured TTL.
type SearchCache struct {
	l      *logger.Logger
	client goredis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewSearchCache(l *logger.Logger, client goredis.Cmdable, conf Conf) *SearchCache {
	prefix := conf.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &SearchCache{l: l, client: client, ttl: conf.TTL, prefix: prefix}
}

func (c *SearchCache) key(searchKey string) string {
	sum := sha1.Sum([]byte(searchKey)) //nolint:gosec

	return fmt.Sprintf("%s:%x", c.prefix, sum[:])
}

func (c *SearchCache) Get(ctx context.Context, searchKey string) ([]agency.Offer, bool, error) {
	raw, err := c.client.Get(ctx, c.key(searchKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var offers []agency.Offer
	if err := json.Unmarshal(raw, &offers); err != nil {
		return nil, false, fmt.Errorf("decode cached offers: %w", err)
	}

	return offers, true, nil
}

func (c *SearchCache) Set(ctx context.Context, searchKey string, offers []agency.Offer) error {
	raw, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("encode offers: %w", err)
	}

	if err := c.client.Set(ctx, c.key(searchKey), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	c.l.LogDebug("cached %d offers for %s (ttl %s)", len(offers), searchKey, c.ttl)

	return nil
}
