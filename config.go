package cache

import (
	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/vearutop/lazycache/ldc"
)

// DefaultCapacity is used by bounded caches if Config.Capacity is not set.
const DefaultCapacity = 1000

// Config controls cache instance.
type Config struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is cache instance (table) name, used in stats, logging and write-behind operations.
	Name string

	// Version is schema version of cached values.
	Version int

	// Capacity limits number of resident values in LRU and FIFO caches, default DefaultCapacity.
	Capacity int

	// TrashThreshold is a number of discarded values accumulated before destruction,
	// values are destroyed right after mutation by default.
	TrashThreshold int

	// Options enables write-behind persistence tiers, queueing is disabled if nil.
	Options *ldc.TypeOptions
}

func config(cfg []Config) Config {
	c := Config{}

	if len(cfg) >= 1 {
		c = cfg[0]
	}

	if c.Logger == nil {
		c.Logger = ctxd.NoOpLogger{}
	}

	if c.Stats == nil {
		c.Stats = stats.NoOp{}
	}

	return c
}
