package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

type fakeSource struct {
	city   func(name string) (City, error)
	trains func(origin, destination string) ([]trip.TrainOption, error)
}

func (f fakeSource) City(_ context.Context, name string) (City, error) {
	return f.city(name)
}

func (f fakeSource) Trains(_ context.Context, origin, destination string) ([]trip.TrainOption, error) {
	if f.trains == nil {
		return nil, nil
	}
	return f.trains(origin, destination)
}

func TestCached_City_DeduplicatesConcurrentSameKey(t *testing.T) {
	var calls atomic.Int32
	c := NewCached(fakeSource{city: func(string) (City, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return City{Attractions: []trip.Attraction{{ID: "a1"}}}, nil
	}}, 16)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.City(context.Background(), " Rome")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected source to be read once, got %d", got)
	}
}

func TestCached_City_ErrorIsNotCached(t *testing.T) {
	var calls atomic.Int32
	fail := true
	c := NewCached(fakeSource{city: func(string) (City, error) {
		calls.Add(1)
		if fail {
			return City{}, errors.New("boom")
		}
		return City{}, nil
	}}, 16)

	if _, err := c.City(context.Background(), "Rome"); err == nil {
		t.Fatalf("expected error")
	}
	fail = false
	if _, err := c.City(context.Background(), "Rome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected source to be read twice (error should not be cached), got %d", got)
	}
}

func TestCached_PanicBecomesError(t *testing.T) {
	c := NewCached(fakeSource{city: func(string) (City, error) {
		panic("boom")
	}}, 16)

	if _, err := c.City(context.Background(), "Rome"); err == nil {
		t.Fatalf("expected panic converted into error")
	}
	if c.Len() != 0 {
		t.Fatalf("expected nothing cached, got %d entries", c.Len())
	}
}

func TestCached_StopsStoringAtMax(t *testing.T) {
	var calls atomic.Int32
	c := NewCached(fakeSource{
		city: func(string) (City, error) { return City{}, nil },
		trains: func(string, string) ([]trip.TrainOption, error) {
			calls.Add(1)
			return []trip.TrainOption{{ID: "t"}}, nil
		},
	}, 1)

	ctx := context.Background()
	_, _ = c.City(ctx, "Rome")
	_, _ = c.Trains(ctx, "Rome", "Milan")
	_, _ = c.Trains(ctx, "Rome", "Milan")

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected trains to pass through, got %d reads", got)
	}
}
