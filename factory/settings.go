package factory

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings is a process-wide cache configuration.
type Settings struct {
	// DefaultType is used for tables missing in Types.
	DefaultType string `env:"DEFAULT_CACHE_TYPE" envDefault:"SimpleCache"`

	// Types maps table names to cache type definitions,
	// for example "fares=LRUCache:500,taxes=DualMapCache".
	Types map[string]string `env:"CACHE_TYPES" envKeyValSeparator:"="`

	// DiskTypes maps table names to persistence options,
	// for example "fares=Y||||Y|3600", see ldc.ParseTypeOptions.
	DiskTypes map[string]string `env:"DISK_CACHE_TYPES" envKeyValSeparator:"="`

	// LDCEnabled allows local disk cache propagation.
	LDCEnabled bool `env:"LDC_ENABLED" envDefault:"true"`

	// DistCacheEnabled allows distributed cache propagation.
	DistCacheEnabled bool `env:"DIST_CACHE_ENABLED" envDefault:"false"`

	// DistCacheTTL is a time to live of distributed values for tables without explicit TTL.
	DistCacheTTL time.Duration `env:"DIST_CACHE_TTL" envDefault:"1h"`

	// AccumulatorSize is a number of discarded values destroyed in one batch.
	AccumulatorSize int `env:"CACHE_ACCUMULATOR_SIZE" envDefault:"0"`

	// InvalidateSkipInterval is a minimal interval between two Registry.ClearAll calls.
	InvalidateSkipInterval time.Duration `env:"CACHE_INVALIDATE_SKIP_INTERVAL" envDefault:"15s"`
}

// LoadSettings reads settings from process environment.
func LoadSettings() (Settings, error) {
	s := Settings{}

	return s, env.Parse(&s)
}

// ParseSettings reads settings from a map of environment variables.
func ParseSettings(environment map[string]string) (Settings, error) {
	s := Settings{}

	return s, env.ParseWithOptions(&s, env.Options{Environment: environment})
}
