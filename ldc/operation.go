package ldc

import (
	"time"
)

// OpType enumerates queued operations.
type OpType uint8

// Operation types.
const (
	Write OpType = iota + 1
	Remove
	Clear
)

// String implements fmt.Stringer.
func (t OpType) String() string {
	switch t {
	case Write:
		return "write"
	case Remove:
		return "remove"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Operation describes a cache mutation to replay in secondary storage.
//
// Operation is immutable once queued.
type Operation[K comparable] struct {
	Table string
	Type  OpType
	Key   K

	// WhileLoading is set for mutations made during initial bulk load.
	WhileLoading bool

	Time time.Time

	// DistCache requests propagation to the distributed tier.
	DistCache bool

	// LDC requests propagation to the local disk cache.
	LDC bool
}
