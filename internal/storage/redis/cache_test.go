package redis

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/avstrong/hotelbooking/internal/agency"
	"github.com/avstrong/hotelbooking/internal/logger"
	"github.com/avstrong/hotelbooking/internal/pricing"
)

func TestSearchCache_KeyIsPrefixedHash(t *testing.T) {
	t.Parallel()

	c := NewSearchCache(logger.New(log.New(io.Discard, "", 0)), nil, Conf{})

	a := c.key("search:montpellier|2025-06-01|2025-06-04|2|")
	b := c.key("search:sète|2025-06-01|2025-06-04|2|")

	if !strings.HasPrefix(a, defaultPrefix+":") || a == b {
		t.Fatalf("unexpected keys %s %s", a, b)
	}
}

func TestSearchCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skipf("REDIS_ADDR not set")
	}

	ctx := context.Background()
	conf := Conf{Addr: addr, TTL: time.Minute, Prefix: "test:search"}

	client, err := NewClient(ctx, conf)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	c := NewSearchCache(logger.New(log.New(io.Discard, "", 0)), client, conf)
	key := "search:montpellier|" + time.Now().Format(time.RFC3339Nano)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	d, _ := pricing.New(pricing.DefaultRate)
	want := []agency.Offer{{OfferID: "opera-201-x", HotelCode: "opera", Quote: d.Quote(660)}}

	if err := c.Set(ctx, key, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}

	if len(got) != 1 || got[0].Final != 594 || got[0].Original != 660 {
		t.Fatalf("cached offer changed: %+v", got)
	}
}
