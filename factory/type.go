// Package factory builds named caches from configuration strings and keeps a registry of them.
package factory

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a name of cache implementation.
type Type string

// Cache types.
const (
	Simple  Type = "SimpleCache"
	LRU     Type = "LRUCache"
	FIFO    Type = "FIFOCache"
	DualMap Type = "DualMapCache"
	Generic Type = "GenericCache"
	Mirror  Type = "MirrorCache"
)

// SentinelError is an error.
type SentinelError string

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}

const (
	// ErrUnknownCacheType indicates unsupported cache type name.
	ErrUnknownCacheType = SentinelError("unknown cache type")

	// ErrInvalidCacheType indicates malformed cache type parameters.
	ErrInvalidCacheType = SentinelError("invalid cache type")

	// ErrAlreadyRegistered indicates duplicate cache name in Registry.
	ErrAlreadyRegistered = SentinelError("cache is already registered")
)

// Spec is a parsed cache type definition.
type Spec struct {
	Type Type

	// Capacity limits LRU and FIFO caches, 0 means default capacity.
	Capacity int

	// Shards is a number of Mirror shards, 0 means default.
	Shards int

	// Inner is a mirrored cache definition.
	Inner *Spec
}

// String returns cache type definition.
func (s Spec) String() string {
	switch s.Type {
	case LRU, FIFO:
		if s.Capacity > 0 {
			return string(s.Type) + ":" + strconv.Itoa(s.Capacity)
		}
	case Mirror:
		inner := Spec{Type: Simple}
		if s.Inner != nil {
			inner = *s.Inner
		}

		shards := ""
		if s.Shards > 0 {
			shards = strconv.Itoa(s.Shards)
		}

		return string(s.Type) + ":" + shards + ":" + inner.String()
	}

	return string(s.Type)
}

// ParseType parses cache type definition.
//
// Supported definitions:
//
//	SimpleCache
//	LRUCache:<capacity>
//	FIFOCache:<capacity>
//	DualMapCache
//	GenericCache
//	MirrorCache:<shards>:<inner definition>
func ParseType(definition string) (Spec, error) {
	definition = strings.TrimSpace(definition)
	name, params, _ := strings.Cut(definition, ":")

	s := Spec{Type: Type(name)}

	switch s.Type {
	case Simple, DualMap, Generic:
		if params != "" {
			return s, fmt.Errorf("%w: %s does not accept parameters: %q", ErrInvalidCacheType, name, definition)
		}
	case LRU, FIFO:
		if params == "" {
			return s, nil
		}

		c, err := strconv.Atoi(params)
		if err != nil || c <= 0 {
			return s, fmt.Errorf("%w: %s capacity must be a positive integer: %q", ErrInvalidCacheType, name, definition)
		}

		s.Capacity = c
	case Mirror:
		shards, inner, _ := strings.Cut(params, ":")

		if shards != "" {
			n, err := strconv.Atoi(shards)
			if err != nil || n <= 0 {
				return s, fmt.Errorf("%w: %s shards must be a positive integer: %q", ErrInvalidCacheType, name, definition)
			}

			s.Shards = n
		}

		if inner == "" {
			inner = string(Simple)
		}

		is, err := ParseType(inner)
		if err != nil {
			return s, err
		}

		if is.Type == Mirror {
			return s, fmt.Errorf("%w: nested mirror: %q", ErrInvalidCacheType, definition)
		}

		s.Inner = &is
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownCacheType, definition)
	}

	return s, nil
}
