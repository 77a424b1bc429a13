package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-paytax/internal/shared/fiscal"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// cachedProvider decorates another Provider with a Redis cache. Concurrent
// lookups for the same year are collapsed through singleflight so a cold
// cache never stampedes the source.
type cachedProvider struct {
	source Provider
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedProvider(source Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) Provider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachedProvider{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Named("rates.cache"),
	}
}

func (p *cachedProvider) Tables(ctx context.Context, year fiscal.Year) (*TaxYearTables, error) {
	key := cacheKey(year)

	if raw, err := p.rdb.Get(ctx, key).Result(); err == nil {
		var tables TaxYearTables
		if err := json.Unmarshal([]byte(raw), &tables); err == nil {
			return &tables, nil
		}
		p.logger.Warn("corrupt cached rate table, refetching", zap.String("key", key))
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		tables, err := p.source.Tables(ctx, year)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(tables)
		if err != nil {
			return nil, err
		}
		if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
			p.logger.Warn("cache rate table failed", zap.String("key", key), zap.Error(err))
		}

		return tables, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*TaxYearTables), nil
}

func cacheKey(year fiscal.Year) string {
	return fmt.Sprintf("rates:tables:%s", year)
}
