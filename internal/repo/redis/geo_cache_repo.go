package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/maxjeon97/friender/internal/domain/model"
)

const geoRadiusPrefix = "georadius:"

// GeoCacheRepo caches radius-provider results so repeated discovery calls
// for the same origin/radius skip the upstream round trip.
type GeoCacheRepo struct {
	client *goredis.Client
}

func NewGeoCacheRepo(client *goredis.Client) *GeoCacheRepo {
	return &GeoCacheRepo{client: client}
}

func (r *GeoCacheRepo) GetAreas(ctx context.Context, originZip string, radius int) ([]model.Area, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, geoRadiusKey(originZip, radius)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get geo cache entry: %w", err)
	}

	var areas []model.Area
	if err := json.Unmarshal(raw, &areas); err != nil {
		return nil, false, fmt.Errorf("decode geo cache entry: %w", err)
	}

	return areas, true, nil
}

func (r *GeoCacheRepo) SetAreas(ctx context.Context, originZip string, radius int, areas []model.Area, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(areas)
	if err != nil {
		return fmt.Errorf("encode geo cache entry: %w", err)
	}

	if err := r.client.Set(ctx, geoRadiusKey(originZip, radius), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set geo cache entry: %w", err)
	}

	return nil
}

func geoRadiusKey(originZip string, radius int) string {
	return fmt.Sprintf("%s%s:%d", geoRadiusPrefix, originZip, radius)
}
