// In file: internal/weather/cache.go
package weather

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/version"

	"github.com/redis/go-redis/v9"
)

const (
	geoCachePrefix = "geocache"
	// DefaultGeoCacheTTL is how long a resolved city stays cached.
	DefaultGeoCacheTTL = 7 * 24 * time.Hour
)

// GeoCache stores successful city lookups. Implementations treat every
// storage error as a miss.
type GeoCache interface {
	Get(ctx context.Context, city string) (*Coordinates, bool)
	Set(ctx context.Context, city string, coords *Coordinates)
}

// RedisGeoCache is a GeoCache backed by Redis string keys with a TTL.
type RedisGeoCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

var _ GeoCache = (*RedisGeoCache)(nil)

// NewRedisGeoCache creates a Redis-backed cache. A non-positive ttl uses
// DefaultGeoCacheTTL.
func NewRedisGeoCache(rdb redis.Cmdable, ttl time.Duration) *RedisGeoCache {
	if ttl <= 0 {
		ttl = DefaultGeoCacheTTL
	}
	return &RedisGeoCache{rdb: rdb, ttl: ttl}
}

func (g *RedisGeoCache) Get(ctx context.Context, city string) (*Coordinates, bool) {
	key := version.GenerateVersionedCacheKey(geoCachePrefix, city)
	val, err := g.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		log.Printf("Redis GET error for geocache: %v", err)
		return nil, false
	}
	var coords Coordinates
	if err := json.Unmarshal(val, &coords); err != nil {
		log.Printf("Error unmarshalling cached coordinates: %v", err)
		return nil, false
	}
	return &coords, true
}

func (g *RedisGeoCache) Set(ctx context.Context, city string, coords *Coordinates) {
	if coords == nil {
		return
	}
	data, err := json.Marshal(coords)
	if err != nil {
		log.Printf("Error marshalling coordinates for cache: %v", err)
		return
	}
	key := version.GenerateVersionedCacheKey(geoCachePrefix, city)
	if err := g.rdb.Set(ctx, key, data, g.ttl).Err(); err != nil {
		log.Printf("Redis SET error for geocache: %v", err)
	}
}
