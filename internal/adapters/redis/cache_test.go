package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "github.com/elite42/gudbro-verticals-sub027/internal/adapters/redis"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
)

func TestCache_RoundTripAndDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	in := domain.Room{ID: "r1", PropertyID: "p1", Name: "Sea View", BasePricePerNight: 500000, Currency: "VND", Capacity: 2}
	if err := c.Set(ctx, "room:p1:r1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out domain.Room
	ok, err := c.Get(ctx, "room:p1:r1", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}

	// keys live under the accom: namespace
	if !mr.Exists("accom:room:p1:r1") {
		t.Fatalf("expected namespaced key in redis")
	}

	if err := c.Del(ctx, "room:p1:r1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = c.Get(ctx, "room:p1:r1", &out)
	if err != nil {
		t.Fatalf("get after del: %v", err)
	}
	if ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_MissIsNotError(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)

	var out domain.Property
	ok, err := c.Get(context.Background(), "prop:nope", &out)
	if err != nil {
		t.Fatalf("miss should not error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}
