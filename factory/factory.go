package factory

import (
	"fmt"
	"strconv"
	"strings"

	cache "github.com/vearutop/lazycache"
	"github.com/vearutop/lazycache/ldc"
)

// New creates a cache of given type.
func New[K comparable, V any](s Spec, f cache.Factory[K, V], cfg cache.Config) (cache.Cache[K, V], error) {
	switch s.Type {
	case Simple:
		return cache.NewSimple[K, V](f, cfg), nil
	case LRU:
		if s.Capacity > 0 {
			cfg.Capacity = s.Capacity
		}

		return cache.NewLRU[K, V](f, cfg), nil
	case FIFO:
		if s.Capacity > 0 {
			cfg.Capacity = s.Capacity
		}

		return cache.NewFIFO[K, V](f, cfg), nil
	case DualMap:
		return cache.NewDualMap[K, V](f, cfg), nil
	case Generic:
		return cache.NewGeneric[K, V](f, cfg), nil
	case Mirror:
		inner := Spec{Type: Simple}
		if s.Inner != nil {
			inner = *s.Inner
		}

		upstream, err := New[K, V](inner, f, cfg)
		if err != nil {
			return nil, err
		}

		return cache.NewMirror[K, V](upstream, cache.MirrorConfig{
			Shards: s.Shards,
			Logger: cfg.Logger,
			Stats:  cfg.Stats,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCacheType, s.Type)
	}
}

// TypeOptions returns persistence options of a table according to settings.
func (s Settings) TypeOptions(table string) (*ldc.TypeOptions, error) {
	var (
		o   *ldc.TypeOptions
		err error
	)

	def, ok := s.DiskTypes[table]
	if ok {
		o, err = ldc.ParseTypeOptions(table, def, s.DistCacheEnabled)
		if err != nil {
			return nil, err
		}
	} else {
		o = ldc.NewTypeOptions(table, false, false)
	}

	if s.DistCacheTTL > 0 && !hasTTL(def) {
		o.TTL = s.DistCacheTTL
	}

	if !s.LDCEnabled {
		o.DisableLDC()
	}

	return o, nil
}

// hasTTL tells if type options definition sets positive ttl field.
func hasTTL(definition string) bool {
	fields := strings.Split(definition, "|")
	if len(fields) < 6 {
		return false
	}

	ttl, err := strconv.Atoi(strings.TrimSpace(fields[5]))

	return err == nil && ttl > 0
}

// CacheType returns cache type definition of a table.
func (s Settings) CacheType(table string) string {
	if t, ok := s.Types[table]; ok {
		return t
	}

	if s.DefaultType == "" {
		return string(Simple)
	}

	return s.DefaultType
}

// Build creates a cache of a table according to settings.
//
// Config.Name is set to table, Config.Options are taken from settings if not set.
func Build[K comparable, V any](table string, s Settings, f cache.Factory[K, V], cfg cache.Config) (cache.Cache[K, V], error) {
	spec, err := ParseType(s.CacheType(table))
	if err != nil {
		return nil, fmt.Errorf("cache type of %s: %w", table, err)
	}

	cfg.Name = table

	if cfg.Options == nil {
		if cfg.Options, err = s.TypeOptions(table); err != nil {
			return nil, err
		}
	}

	if cfg.TrashThreshold == 0 {
		cfg.TrashThreshold = s.AccumulatorSize
	}

	return New[K, V](spec, f, cfg)
}
