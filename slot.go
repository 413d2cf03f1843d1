package cache

import (
	"container/list"
)

type slotState uint8

// Slot transitions: absent -> loading -> present -> present -> evicted.
// Loading may also end as evicted when construction fails or is superseded.
const (
	slotAbsent slotState = iota
	slotLoading
	slotPresent
	slotEvicted
)

func (s slotState) String() string {
	switch s {
	case slotAbsent:
		return "absent"
	case slotLoading:
		return "loading"
	case slotPresent:
		return "present"
	case slotEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// slot is a map entry, all fields are guarded by owning cache lock.
type slot[K comparable, V any] struct {
	key   K
	state slotState
	value V

	// done is closed when loading ends, nil for values installed with Put.
	done chan struct{}

	// err is a construction failure shared with waiters.
	err error

	// elem is a position in eviction order, nil while loading.
	elem *list.Element
}

func newLoadingSlot[K comparable, V any](key K) *slot[K, V] {
	return &slot[K, V]{key: key, state: slotLoading, done: make(chan struct{})}
}

// loadGuard rolls back a placeholder unless construction result was published.
type loadGuard struct {
	rollback  func()
	published bool
}

func (g *loadGuard) commit() {
	g.published = true
}

func (g *loadGuard) release() {
	if !g.published {
		g.rollback()
	}
}
