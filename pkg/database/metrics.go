package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a point-in-time snapshot of connection pool usage.
type PoolStats struct {
	Acquired        int32
	Idle            int32
	Total           int32
	Max             int32
	AcquireCount    int64
	EmptyAcquires   int64
	AcquireDuration time.Duration
}

// StatsFunc returns the current pool statistics.
type StatsFunc func() PoolStats

// PgxPoolStats adapts a pgx pool to a StatsFunc.
func PgxPoolStats(pool *pgxpool.Pool) StatsFunc {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:        s.AcquiredConns(),
			Idle:            s.IdleConns(),
			Total:           s.TotalConns(),
			Max:             s.MaxConns(),
			AcquireCount:    s.AcquireCount(),
			EmptyAcquires:   s.EmptyAcquireCount(),
			AcquireDuration: s.AcquireDuration(),
		}
	}
}

// PoolStatsCollector exports connection pool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	stats StatsFunc
	app   string

	acquired        *prometheus.Desc
	idle            *prometheus.Desc
	total           *prometheus.Desc
	max             *prometheus.Desc
	acquireCount    *prometheus.Desc
	emptyAcquires   *prometheus.Desc
	acquireDuration *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading from stats on every scrape.
func NewPoolStatsCollector(stats StatsFunc, app string) *PoolStatsCollector {
	labels := []string{"app"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labels, nil)
	}
	return &PoolStatsCollector{
		stats:           stats,
		app:             app,
		acquired:        desc("db_pool_acquired_connections", "Number of currently acquired connections"),
		idle:            desc("db_pool_idle_connections", "Number of currently idle connections"),
		total:           desc("db_pool_total_connections", "Total number of connections in the pool"),
		max:             desc("db_pool_max_connections", "Maximum number of connections allowed"),
		acquireCount:    desc("db_pool_acquire_count_total", "Total number of connection acquires"),
		emptyAcquires:   desc("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection"),
		acquireDuration: desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquireCount
	ch <- c.emptyAcquires
	ch <- c.acquireDuration
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.app)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.app)
	}

	gauge(c.acquired, float64(s.Acquired))
	gauge(c.idle, float64(s.Idle))
	gauge(c.total, float64(s.Total))
	gauge(c.max, float64(s.Max))
	counter(c.acquireCount, float64(s.AcquireCount))
	counter(c.emptyAcquires, float64(s.EmptyAcquires))
	counter(c.acquireDuration, s.AcquireDuration.Seconds())
}

// RegisterPoolMetrics registers a collector for pool with the default registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, app string) {
	prometheus.MustRegister(NewPoolStatsCollector(PgxPoolStats(pool), app))
}
