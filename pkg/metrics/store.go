package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caskdb_sets_total",
		Help: "Total number of set operations",
	})

	GetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caskdb_gets_total",
		Help: "Total number of get operations",
	})

	RemovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caskdb_removes_total",
		Help: "Total number of remove operations",
	})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caskdb_read_cache_hits_total",
		Help: "Total number of get operations served from the read cache",
	})

	CompactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caskdb_compactions_total",
		Help: "Total number of completed log compactions",
	})

	CompactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "caskdb_compaction_duration_seconds",
		Help:    "Histogram of log compaction wall time",
		Buckets: prometheus.DefBuckets,
	})

	LiveKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caskdb_live_keys",
		Help: "Number of keys currently present in the index",
	})

	TotalBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caskdb_log_bytes_total",
		Help: "Total bytes across all log segments",
	})

	StaleBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caskdb_log_bytes_stale",
		Help: "Log bytes belonging to superseded or removed records",
	})

	SegmentCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caskdb_segments",
		Help: "Number of live log segments",
	})
)
