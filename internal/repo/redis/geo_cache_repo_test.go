package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/maxjeon97/friender/internal/domain/model"
)

func newTestGeoCache(t *testing.T) (*GeoCacheRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewGeoCacheRepo(client), mr
}

func TestGeoCacheRoundTrip(t *testing.T) {
	repo, _ := newTestGeoCache(t)
	ctx := context.Background()

	areas := []model.Area{
		{ZipCode: "94510", Distance: 0, City: "Benicia", State: "CA"},
		{ZipCode: "94511", Distance: 4.2, City: "Bethel Island", State: "CA"},
	}

	if err := repo.SetAreas(ctx, "94510", 25, areas, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, hit, err := repo.GetAreas(ctx, "94510", 25)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("want cache hit")
	}
	if len(got) != 2 || got[1] != areas[1] {
		t.Fatalf("cache entry mismatch: %+v", got)
	}
}

func TestGeoCacheMiss(t *testing.T) {
	repo, _ := newTestGeoCache(t)

	_, hit, err := repo.GetAreas(context.Background(), "94510", 25)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Fatal("empty cache must miss")
	}
}

func TestGeoCacheKeysAreScoped(t *testing.T) {
	repo, _ := newTestGeoCache(t)
	ctx := context.Background()

	if err := repo.SetAreas(ctx, "94510", 25, []model.Area{{ZipCode: "94510"}}, time.Minute); err != nil {
		t.Fatal(err)
	}

	// Different radius, different entry.
	if _, hit, _ := repo.GetAreas(ctx, "94510", 50); hit {
		t.Fatal("radius must be part of the cache key")
	}
	if _, hit, _ := repo.GetAreas(ctx, "94511", 25); hit {
		t.Fatal("origin must be part of the cache key")
	}
}

func TestGeoCacheExpires(t *testing.T) {
	repo, mr := newTestGeoCache(t)
	ctx := context.Background()

	if err := repo.SetAreas(ctx, "94510", 25, []model.Area{{ZipCode: "94510"}}, time.Minute); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	if _, hit, _ := repo.GetAreas(ctx, "94510", 25); hit {
		t.Fatal("entry must expire with its ttl")
	}
}
