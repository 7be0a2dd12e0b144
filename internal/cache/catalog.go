// Package cache keeps hot catalog reads in Redis. Every call goes through a
// circuit breaker and failures are logged, never returned: a cache outage
// only makes reads slower.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/pkg/logger"
)

const (
	topKey     = "products:top"
	listKey    = "products:list"
	versionKey = "products:version"
)

// NoVersion is returned by Version when Redis could not be read. Writes
// carrying it are dropped.
const NoVersion int64 = -1

// errStale aborts a write whose read started before the last invalidation.
var errStale = errors.New("catalog changed since read")

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by entry kind and result.",
	},
	[]string{"kind", "result"},
)

var staleWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_stale_writes_total",
		Help: "Catalog cache writes dropped because the catalog changed after the read.",
	},
	[]string{"kind"},
)

// Catalog caches the top-products list and listing pages.
type Catalog struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCatalog creates a Redis-backed catalog cache whose entries expire after ttl.
func NewCatalog(client *redis.Client, ttl time.Duration, breaker BreakerConfig, logger *slog.Logger) *Catalog {
	return &Catalog{
		client:  client,
		breaker: newBreaker[[]byte](breaker, logger),
		ttl:     ttl,
		logger:  logger,
	}
}

// pageField is the hash field of a listing page inside listKey.
func pageField(q domain.ProductListQuery) string {
	return strconv.Itoa(q.Page.Page) + "|" + q.Keyword
}

// GetTop returns the cached top-rated products.
func (c *Catalog) GetTop(ctx context.Context) ([]domain.Product, bool) {
	var products []domain.Product
	ok := c.load(ctx, "top", &products, func() *redis.StringCmd {
		return c.client.Get(ctx, topKey)
	})
	return products, ok
}

// SetTop caches the top-rated products read at version.
func (c *Catalog) SetTop(ctx context.Context, version int64, products []domain.Product) {
	c.store(ctx, "top", version, products, func(pipe redis.Pipeliner, data []byte) {
		pipe.Set(ctx, topKey, data, c.ttl)
	})
}

// GetPage returns a cached listing page for q.
func (c *Catalog) GetPage(ctx context.Context, q domain.ProductListQuery) (domain.ProductPage, bool) {
	var page domain.ProductPage
	ok := c.load(ctx, "page", &page, func() *redis.StringCmd {
		return c.client.HGet(ctx, listKey, pageField(q))
	})
	return page, ok
}

// SetPage caches a listing page read at version. All pages share one hash so
// Invalidate can drop them together; the hash expiry is refreshed on every write.
func (c *Catalog) SetPage(ctx context.Context, version int64, q domain.ProductListQuery, page domain.ProductPage) {
	c.store(ctx, "page", version, page, func(pipe redis.Pipeliner, data []byte) {
		pipe.HSet(ctx, listKey, pageField(q), data)
		pipe.Expire(ctx, listKey, c.ttl)
	})
}

// Version returns the catalog generation. Take it before reading the
// database and pass it to SetTop or SetPage; the write is dropped if an
// Invalidate ran in between.
func (c *Catalog) Version(ctx context.Context) int64 {
	var version int64
	_, err := c.breaker.Execute(func() ([]byte, error) {
		v, err := currentVersion(ctx, c.client)
		version = v
		return nil, err
	})
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("catalog cache version read failed", slog.String("error", err.Error()))
		return NoVersion
	}
	return version
}

// Invalidate drops every cached catalog read and bumps the version. It is
// called after any write that changes products or their ratings.
func (c *Catalog) Invalidate(ctx context.Context) {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, topKey, listKey)
			pipe.Incr(ctx, versionKey)
			return nil
		})
		return nil, err
	})
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("catalog cache invalidation failed", slog.String("error", err.Error()))
	}
}

// Ping reports whether Redis answers. Used by the readiness probe.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Catalog) load(ctx context.Context, kind string, dst any, get func() *redis.StringCmd) bool {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := get().Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		lookups.WithLabelValues(kind, resultError).Inc()
		logger.FromContext(ctx, c.logger).Warn("catalog cache read failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return false
	}
	if data == nil {
		lookups.WithLabelValues(kind, resultMiss).Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		lookups.WithLabelValues(kind, resultError).Inc()
		logger.FromContext(ctx, c.logger).Warn("catalog cache entry unreadable",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return false
	}
	lookups.WithLabelValues(kind, resultHit).Inc()
	return true
}

func currentVersion(ctx context.Context, r interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}) (int64, error) {
	v, err := r.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// store writes v only while the version still equals version. The version
// key is watched, so an Invalidate racing the write aborts it.
func (c *Catalog) store(ctx context.Context, kind string, version int64, v any, write func(redis.Pipeliner, []byte)) {
	if version == NoVersion {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("catalog cache encode failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return
	}

	put := func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx)
		if err != nil {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe, data)
			return nil
		})
		return err
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		err := c.client.Watch(ctx, put, versionKey)
		if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
			staleWrites.WithLabelValues(kind).Inc()
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("catalog cache write failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}

// Noop is a cache that never hits. It is used when caching is disabled.
type Noop struct{}

func (Noop) GetTop(context.Context) ([]domain.Product, bool) { return nil, false }
func (Noop) SetTop(context.Context, int64, []domain.Product) {}
func (Noop) GetPage(context.Context, domain.ProductListQuery) (domain.ProductPage, bool) {
	return domain.ProductPage{}, false
}
func (Noop) SetPage(context.Context, int64, domain.ProductListQuery, domain.ProductPage) {}
func (Noop) Version(context.Context) int64 { return NoVersion }
func (Noop) Invalidate(context.Context) {}
