package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// Cached keeps the records read from a slower Source in memory. Entries are
// never evicted; once max entries are held, further lookups pass through.
type Cached struct {
	src    Source
	mu     sync.RWMutex
	max    int
	cities map[string]City
	trains map[string][]trip.TrainOption
}

func NewCached(src Source, max int) *Cached {
	return &Cached{
		src:    src,
		max:    max,
		cities: make(map[string]City),
		trains: make(map[string][]trip.TrainOption),
	}
}

func (c *Cached) City(ctx context.Context, name string) (City, error) {
	return getOrCompute(c, c.cities, normalize(name), func() (City, error) {
		return c.src.City(ctx, name)
	})
}

func (c *Cached) Trains(ctx context.Context, origin, destination string) ([]trip.TrainOption, error) {
	key := normalize(origin) + "\x00" + normalize(destination)
	return getOrCompute(c, c.trains, key, func() ([]trip.TrainOption, error) {
		return c.src.Trains(ctx, origin, destination)
	})
}

func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cities) + len(c.trains)
}

func getOrCompute[V any](c *Cached, items map[string]V, key string, fn func() (V, error)) (v V, err error) {
	c.mu.RLock()
	if v, ok := items[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := items[key]; ok {
		return v, nil
	}

	defer func() {
		if r := recover(); r != nil {
			var zero V
			v, err = zero, fmt.Errorf("catalog source panicked: %v", r)
		}
	}()
	v, err = fn()
	if err != nil {
		var zero V
		return zero, err
	}

	if len(c.cities)+len(c.trains) < c.max {
		items[key] = v
	}

	return v, nil
}
