package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/downfa11-org/caskdb/pkg/record"
	"github.com/downfa11-org/caskdb/util"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the storage engine. Rotation and compaction
// thresholds trade recovery latency against space amplification, so they are
// configuration with documented defaults rather than constants.
type Config struct {
	// Data directory. The CLI leaves this empty and works in the current
	// working directory.
	DataDir string `yaml:"data_dir" json:"data.dir"`

	// Segment rotation threshold in bytes.
	SegmentSize int64 `yaml:"segment_size" json:"segment.size"`

	// Compaction fires once stale bytes exceed this fraction of total log
	// bytes, provided the log is at least CompactionMinBytes large.
	CompactionRatio    float64 `yaml:"compaction_ratio" json:"compaction.ratio"`
	CompactionMinBytes int64   `yaml:"compaction_min_bytes" json:"compaction.min.bytes"`

	// Durability policy: "always" fsyncs after every mutation, "interval"
	// fsyncs at most once per SyncIntervalMS, "never" leaves it to the OS.
	SyncPolicy     string `yaml:"sync_policy" json:"sync.policy"`
	SyncIntervalMS int    `yaml:"sync_interval_ms" json:"sync.interval.ms"`

	// Per-write caps, clamped to the wire-format bounds.
	MaxKeySize   int `yaml:"max_key_size" json:"max.key.size"`
	MaxValueSize int `yaml:"max_value_size" json:"max.value.size"`

	// Value compression: "none", "gzip" or "lz4". Values smaller than
	// CompressionMinBytes are stored as-is.
	CompressionType     string `yaml:"compression_type" json:"compression.type"`
	CompressionMinBytes int    `yaml:"compression_min_bytes" json:"compression.min.bytes"`

	// Read cache budget in bytes. Zero disables the cache.
	ReadCacheBytes int64 `yaml:"read_cache_bytes" json:"read.cache.bytes"`

	// Prometheus exporter.
	EnableExporter bool `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int  `yaml:"exporter_port" json:"exporter.port"`

	LogLevel util.LogLevel `yaml:"log_level" json:"log_level"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		SegmentSize:         4 << 20,
		CompactionRatio:     0.5,
		CompactionMinBytes:  1 << 20,
		SyncPolicy:          "always",
		SyncIntervalMS:      50,
		MaxKeySize:          record.MaxKeySize,
		MaxValueSize:        record.MaxValueSize,
		CompressionType:     "none",
		CompressionMinBytes: 4096,
		ReadCacheBytes:      32 << 20,
		EnableExporter:      false,
		ExporterPort:        9100,
		LogLevel:            util.LogLevelInfo,
	}
}

// Load reads a YAML or JSON config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(path, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	util.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// Normalize clamps out-of-range values and rejects settings that cannot be
// repaired by clamping.
func (c *Config) Normalize() error {
	if c.SegmentSize < 64<<10 {
		c.SegmentSize = 64 << 10
	}
	if c.CompactionRatio <= 0 || c.CompactionRatio > 1 {
		c.CompactionRatio = 0.5
	}
	if c.CompactionMinBytes < 0 {
		c.CompactionMinBytes = 0
	}
	if c.SyncIntervalMS <= 0 {
		c.SyncIntervalMS = 50
	}
	if c.MaxKeySize <= 0 || c.MaxKeySize > record.MaxKeySize {
		c.MaxKeySize = record.MaxKeySize
	}
	if c.MaxValueSize <= 0 || c.MaxValueSize > record.MaxValueSize {
		c.MaxValueSize = record.MaxValueSize
	}
	if c.CompressionMinBytes <= 0 {
		c.CompressionMinBytes = 4096
	}
	if c.ReadCacheBytes < 0 {
		c.ReadCacheBytes = 0
	}

	switch c.SyncPolicy {
	case "", "always":
		c.SyncPolicy = "always"
	case "interval", "never":
	default:
		return fmt.Errorf("invalid sync_policy %q (want always, interval or never)", c.SyncPolicy)
	}

	switch c.CompressionType {
	case "", "none":
		c.CompressionType = "none"
	case "gzip", "lz4":
	default:
		return fmt.Errorf("unsupported compression_type %q (want none, gzip or lz4)", c.CompressionType)
	}
	return nil
}
