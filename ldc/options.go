package ldc

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Defaults for TypeOptions fields missing in a definition string.
const (
	DefaultDataFormat       = "gob"
	DefaultMaxCatchup       = 60 * time.Minute
	DefaultCompressionLimit = 4096
	DefaultTTL              = time.Hour
	DefaultMaxBlobSize      = 1 << 20
)

// TypeOptions controls persistence of a single table.
//
// Enable flags can be switched off at runtime (for example after a store failure),
// so they are accessed atomically.
type TypeOptions struct {
	Name             string
	DataFormat       string
	MaxCatchup       time.Duration
	CompressionLimit int
	TTL              time.Duration
	MaxBlobSize      int

	ldcEnabled  atomic.Bool
	distEnabled atomic.Bool
}

// NewTypeOptions creates options with defaults and given tier flags.
func NewTypeOptions(name string, ldcEnabled, distEnabled bool) *TypeOptions {
	o := &TypeOptions{
		Name:             name,
		DataFormat:       DefaultDataFormat,
		MaxCatchup:       DefaultMaxCatchup,
		CompressionLimit: DefaultCompressionLimit,
		TTL:              DefaultTTL,
		MaxBlobSize:      DefaultMaxBlobSize,
	}

	o.ldcEnabled.Store(ldcEnabled)
	o.distEnabled.Store(distEnabled)

	return o
}

// ParseTypeOptions parses a table definition.
//
// Format is "enabled|dataFormat|maxCatchupMinutes|compressionLimit|useDistCache|ttlSeconds|maxBlobSize",
// trailing and empty fields keep defaults, for example "Y||||Y|3600".
// Distributed tier can only be enabled when distAllowed is true.
func ParseTypeOptions(name, definition string, distAllowed bool) (*TypeOptions, error) {
	o := NewTypeOptions(name, false, false)

	for i, field := range strings.Split(definition, "|") {
		field = strings.TrimSpace(field)

		if field == "" && i != 0 {
			continue
		}

		switch i {
		case 0:
			enabled, err := parseFlag(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s enabled flag: %v", ErrInvalidTypeOptions, name, err)
			}

			o.ldcEnabled.Store(enabled)
		case 1:
			o.DataFormat = field
		case 2:
			m, err := strconv.ParseUint(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %s max catchup: %v", ErrInvalidTypeOptions, name, err)
			}

			if m != 0 {
				o.MaxCatchup = time.Duration(m) * time.Minute
			}
		case 3:
			l, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s compression limit: %v", ErrInvalidTypeOptions, name, err)
			}

			o.CompressionLimit = l
		case 4:
			dist, err := parseFlag(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s dist cache flag: %v", ErrInvalidTypeOptions, name, err)
			}

			o.distEnabled.Store(dist && distAllowed)
		case 5:
			ttl, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s ttl: %v", ErrInvalidTypeOptions, name, err)
			}

			if ttl > 0 {
				o.TTL = time.Duration(ttl) * time.Second
			}
		case 6:
			s, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s max blob size: %v", ErrInvalidTypeOptions, name, err)
			}

			o.MaxBlobSize = s
		}
	}

	return o, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "Y", "YES", "T", "TRUE", "1":
		return true, nil
	case "", "N", "NO", "F", "FALSE", "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected flag value %q", s)
	}
}

// LDCEnabled tells if operations propagate to local disk cache.
func (o *TypeOptions) LDCEnabled() bool {
	return o != nil && o.ldcEnabled.Load()
}

// DistCacheEnabled tells if operations propagate to distributed cache.
func (o *TypeOptions) DistCacheEnabled() bool {
	return o != nil && o.distEnabled.Load()
}

// Enabled tells if any persistence tier is active.
func (o *TypeOptions) Enabled() bool {
	return o.LDCEnabled() || o.DistCacheEnabled()
}

// DisableLDC switches off local disk cache propagation.
func (o *TypeOptions) DisableLDC() {
	o.ldcEnabled.Store(false)
}

// DisableDistCache switches off distributed cache propagation.
func (o *TypeOptions) DisableDistCache() {
	o.distEnabled.Store(false)
}

// Disable switches off both tiers.
func (o *TypeOptions) Disable() {
	o.DisableLDC()
	o.DisableDistCache()
}
