package cache_test

import (
	"context"
	"sync"
	"sync/atomic"

	cache "github.com/vearutop/lazycache"
)

type item struct {
	key string
	gen int
}

// itemFactory builds *item values and counts lifecycle calls.
type itemFactory struct {
	mu        sync.Mutex
	created   map[string]int
	destroyed map[*item]int

	calls atomic.Int64

	// gate, if not nil, blocks Create until closed.
	gate chan struct{}

	// started receives key when Create starts, if not nil.
	started chan string

	err error
}

func newItemFactory() *itemFactory {
	return &itemFactory{
		created:   make(map[string]int),
		destroyed: make(map[*item]int),
	}
}

func (f *itemFactory) Create(_ context.Context, key string) (*item, error) {
	f.calls.Add(1)

	if f.started != nil {
		f.started <- key
	}

	if f.gate != nil {
		<-f.gate
	}

	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.created[key]++

	return &item{key: key, gen: f.created[key]}, nil
}

func (f *itemFactory) Destroy(_ string, v *item) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.destroyed[v]++
}

func (f *itemFactory) createdCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.created[key]
}

func (f *itemFactory) destroyedCount(v *item) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.destroyed[v]
}

func (f *itemFactory) totalDestroyed() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.destroyed {
		n += c
	}

	return n
}

type variant struct {
	name string
	make func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item]
}

func variants() []variant {
	return []variant{
		{"simple", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewSimple[string, *item](f, cfg)
		}},
		{"lru", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewLRU[string, *item](f, cfg)
		}},
		{"fifo", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewFIFO[string, *item](f, cfg)
		}},
		{"dualmap", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewDualMap[string, *item](f, cfg)
		}},
		{"generic", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewGeneric[string, *item](f, cfg)
		}},
		{"mirror", func(f cache.Factory[string, *item], cfg cache.Config) cache.Cache[string, *item] {
			return cache.NewMirror[string, *item](cache.NewLRU[string, *item](f, cfg), cache.MirrorConfig{Shards: 4})
		}},
	}
}
