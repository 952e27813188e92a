// internal/app/service_test.go
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/catalog"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

type fakePlanner struct {
	mu    sync.Mutex
	calls int
	fn    func(req trip.Request, set trip.ConstraintSet, cands trip.Candidates) (planner.Result, error)
}

func (f *fakePlanner) Plan(_ context.Context, req trip.Request, set trip.ConstraintSet, cands trip.Candidates) (planner.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(req, set, cands)
}

type fakeCatalog struct {
	calls atomic.Int32
	city  func(name string) (catalog.City, error)
}

func (f *fakeCatalog) City(_ context.Context, name string) (catalog.City, error) {
	f.calls.Add(1)
	return f.city(name)
}

func (f *fakeCatalog) Trains(context.Context, string, string) ([]trip.TrainOption, error) {
	return []trip.TrainOption{{ID: "T"}}, nil
}

func romeTrip(budget float64) trip.Request {
	return trip.Request{
		StartDate: "2025-05-01",
		Travelers: 2,
		Budget:    budget,
		Stages:    []trip.Stage{{Origin: "Milan", Destination: "Rome", Days: 2}},
	}
}

func echoPlanner() *fakePlanner {
	return &fakePlanner{fn: func(req trip.Request, _ trip.ConstraintSet, cands trip.Candidates) (planner.Result, error) {
		it := trip.NewItinerary(req)
		it.TotalCost = req.Budget
		return planner.Result{Itinerary: it, Warnings: []string{cands.Departure[0].ID}}, nil
	}}
}

func TestService_Plan_ValidatesRequest(t *testing.T) {
	p := echoPlanner()
	s := NewService(p, nil)

	_, err := s.Plan(context.Background(), PlanRequest{Request: trip.Request{}})
	require.ErrorIs(t, err, trip.ErrInvalidRequest)
	assert.Zero(t, p.calls)
}

func TestService_Plan_UsesGivenCandidates(t *testing.T) {
	cat := &fakeCatalog{}
	s := NewService(echoPlanner(), cat)

	cands := trip.Candidates{Departure: []trip.TrainOption{{ID: "OWN"}}}
	res, err := s.Plan(context.Background(), PlanRequest{Request: romeTrip(0), Candidates: &cands})
	require.NoError(t, err)
	assert.Equal(t, []string{"OWN"}, res.Warnings)
	assert.Zero(t, cat.calls.Load())
}

func TestService_Plan_AssemblesFromCatalog(t *testing.T) {
	cat := &fakeCatalog{city: func(string) (catalog.City, error) {
		return catalog.City{Attractions: []trip.Attraction{{ID: "a1"}}}, nil
	}}
	var got trip.Candidates
	p := &fakePlanner{fn: func(req trip.Request, _ trip.ConstraintSet, cands trip.Candidates) (planner.Result, error) {
		got = cands
		return planner.Result{Itinerary: trip.NewItinerary(req)}, nil
	}}

	_, err := NewService(p, cat).Plan(context.Background(), PlanRequest{Request: romeTrip(0)})
	require.NoError(t, err)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, trip.Window{Start: 1, End: 2}, got.Stages[0].Attractions[0].Window)
}

func TestService_Plan_DegradesWhenCatalogFails(t *testing.T) {
	cat := &fakeCatalog{city: func(string) (catalog.City, error) {
		return catalog.City{}, errors.New("upstream down")
	}}
	p := &fakePlanner{fn: func(req trip.Request, _ trip.ConstraintSet, cands trip.Candidates) (planner.Result, error) {
		assert.True(t, cands.Empty())
		return planner.Result{Itinerary: trip.NewItinerary(req), Fallback: true}, nil
	}}

	res, err := NewService(p, cat).Plan(context.Background(), PlanRequest{Request: romeTrip(0)})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 1, p.calls)
}

func TestService_Plan_WithoutCatalog(t *testing.T) {
	_, err := NewService(echoPlanner(), nil).Plan(context.Background(), PlanRequest{Request: romeTrip(0)})
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestService_Plan_BubblesUpPlannerErrors(t *testing.T) {
	boom := errors.New("bad rule")
	p := &fakePlanner{fn: func(trip.Request, trip.ConstraintSet, trip.Candidates) (planner.Result, error) {
		return planner.Result{}, boom
	}}
	cands := trip.Candidates{}

	_, err := NewService(p, nil).Plan(context.Background(), PlanRequest{Request: romeTrip(0), Candidates: &cands})
	assert.ErrorIs(t, err, boom)
}

func TestService_PlanBatch_KeepsOrderAndPerItemErrors(t *testing.T) {
	var inFlight, peak atomic.Int32
	p := &fakePlanner{fn: func(req trip.Request, _ trip.ConstraintSet, _ trip.Candidates) (planner.Result, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		if req.Budget == 3 {
			return planner.Result{}, errors.New("bad")
		}
		it := trip.NewItinerary(req)
		it.TotalCost = req.Budget
		return planner.Result{Itinerary: it}, nil
	}}
	s := NewService(p, nil, WithBatchWorkers(2))

	cands := trip.Candidates{}
	var ins []PlanRequest
	for i := 0; i < 6; i++ {
		ins = append(ins, PlanRequest{Request: romeTrip(float64(i)), Candidates: &cands})
	}

	out, err := s.PlanBatch(context.Background(), ins)
	require.NoError(t, err)
	require.Len(t, out, 6)
	for i, item := range out {
		if i == 3 {
			assert.Error(t, item.Err)
			assert.Nil(t, item.Result)
			continue
		}
		require.NoError(t, item.Err)
		assert.Equal(t, float64(i), item.Result.Itinerary.TotalCost)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestService_PlanBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cands := trip.Candidates{}

	_, err := NewService(echoPlanner(), nil).PlanBatch(ctx, []PlanRequest{{Request: romeTrip(0), Candidates: &cands}})
	assert.ErrorIs(t, err, context.Canceled)
}
