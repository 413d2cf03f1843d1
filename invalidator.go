package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clearer removes all values of a cache.
type Clearer interface {
	Name() string
	Clear(ctx context.Context) int
}

// Invalidator is a registry of caches to clear together.
type Invalidator struct {
	sync.Mutex

	// SkipInterval defines minimal duration between two cache invalidations (flood protection).
	SkipInterval time.Duration

	// Caches contains a list of caches to clear on invalidate.
	Caches []Clearer

	// Callbacks contains a list of functions to call on invalidate.
	Callbacks []func(ctx context.Context)

	lastRun time.Time
}

// Add registers caches.
func (i *Invalidator) Add(caches ...Clearer) {
	i.Lock()
	defer i.Unlock()

	i.Caches = append(i.Caches, caches...)
}

// Invalidate clears all caches and returns total number of removed values.
func (i *Invalidator) Invalidate(ctx context.Context) (int, error) {
	i.Lock()
	defer i.Unlock()

	if i.Caches == nil && i.Callbacks == nil {
		return 0, ErrNothingToInvalidate
	}

	if i.SkipInterval == 0 {
		i.SkipInterval = 15 * time.Second
	}

	if time.Since(i.lastRun) < i.SkipInterval {
		return 0, fmt.Errorf("%w at %s, %s did not pass",
			ErrAlreadyInvalidated, i.lastRun.String(), i.SkipInterval.String())
	}

	i.lastRun = time.Now()

	n := 0
	for _, c := range i.Caches {
		n += c.Clear(ctx)
	}

	for _, cb := range i.Callbacks {
		cb(ctx)
	}

	return n, nil
}
