// internal/trip/candidates.go
package trip

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
)

// StageCandidates are the POIs of one stage's destination city together with
// the pairwise transport matrix between them.
type StageCandidates struct {
	Attractions    []Attraction    `json:"attractions"`
	Accommodations []Accommodation `json:"accommodations"`
	Restaurants    []Restaurant    `json:"restaurants"`
	Transport      TransportMatrix `json:"transport"`
}

// Candidates is everything one optimization run may choose from. Transfers
// has one entry per stage boundary.
type Candidates struct {
	Stages    []StageCandidates `json:"stages"`
	Departure []TrainOption     `json:"departure"`
	Return    []TrainOption     `json:"return"`
	Transfers [][]TrainOption   `json:"transfers,omitempty"`
}

// Category names a POI collection; it is also the context key aggregates
// use for that collection.
type Category string

const (
	CategoryAttractions    Category = "attractions"
	CategoryAccommodations Category = "accommodations"
	CategoryRestaurants    Category = "restaurants"
	CategoryTrains         Category = "trains"
)

// FilterError reports a stage filter that failed to evaluate.
type FilterError struct {
	Stage    int
	Category Category
	Err      error
}

func (e *FilterError) Error() string {
	if e.Stage < 0 {
		return fmt.Sprintf("%s filter: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("stage %d %s filter: %v", e.Stage, e.Category, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// Empty reports whether no stage has any POI.
func (c Candidates) Empty() bool {
	for _, s := range c.Stages {
		if len(s.Attractions)+len(s.Accommodations)+len(s.Restaurants) > 0 {
			return false
		}
	}
	return true
}

// Stage returns the candidates of stage i, or an empty set.
func (c Candidates) Stage(i int) StageCandidates {
	if i < 0 || i >= len(c.Stages) {
		return StageCandidates{}
	}
	return c.Stages[i]
}

// ApplyFilters keeps the candidates accepted by the request's stage and
// transport filters. Each item is evaluated with its own fields plus the
// whole unfiltered collection under expr.DefaultSource.
func ApplyFilters(req Request, c Candidates) (Candidates, error) {
	out := Candidates{Stages: make([]StageCandidates, len(c.Stages))}

	for i, sc := range c.Stages {
		var stage Stage
		if i < len(req.Stages) {
			stage = req.Stages[i]
		}

		attractions, err := filter(sc.Attractions, stage.AttractionFilter, Attraction.Fields)
		if err != nil {
			return Candidates{}, &FilterError{Stage: i, Category: CategoryAttractions, Err: err}
		}
		hotels, err := filter(sc.Accommodations, stage.AccommodationFilter, Accommodation.Fields)
		if err != nil {
			return Candidates{}, &FilterError{Stage: i, Category: CategoryAccommodations, Err: err}
		}
		restaurants, err := filter(sc.Restaurants, stage.RestaurantFilter, Restaurant.Fields)
		if err != nil {
			return Candidates{}, &FilterError{Stage: i, Category: CategoryRestaurants, Err: err}
		}

		out.Stages[i] = StageCandidates{
			Attractions:    attractions,
			Accommodations: hotels,
			Restaurants:    restaurants,
			Transport:      sc.Transport,
		}
	}

	var err error
	if out.Departure, err = filter(c.Departure, req.DepartureFilter, TrainOption.Fields); err != nil {
		return Candidates{}, &FilterError{Stage: -1, Category: "departure", Err: err}
	}
	if out.Return, err = filter(c.Return, req.ReturnFilter, TrainOption.Fields); err != nil {
		return Candidates{}, &FilterError{Stage: -1, Category: "return", Err: err}
	}
	for i, leg := range c.Transfers {
		kept, err := filter(leg, req.TransferFilter, TrainOption.Fields)
		if err != nil {
			return Candidates{}, &FilterError{Stage: i, Category: "transfer", Err: err}
		}
		out.Transfers = append(out.Transfers, kept)
	}

	return out, nil
}

func filter[T any](items []T, e expr.Expr, fields func(T) map[string]any) ([]T, error) {
	if e.IsZero() {
		return items, nil
	}

	records := make([]map[string]any, len(items))
	for i, it := range items {
		records[i] = fields(it)
	}

	kept := make([]T, 0, len(items))
	for i, it := range items {
		ctx := records[i]
		ctx[expr.DefaultSource] = records
		ok, err := expr.EvalBool(e.Node, ctx)
		delete(ctx, expr.DefaultSource)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, it)
		}
	}
	return kept, nil
}

// Rank trims each stage's POI lists to the best limit entries by rating,
// then cost. A stage never keeps fewer items than its days need under set.
// limit <= 0 disables ranking.
func Rank(req Request, set ConstraintSet, c Candidates, limit int) Candidates {
	if limit <= 0 {
		return c
	}
	set = set.Defaults(req)

	out := c
	out.Stages = make([]StageCandidates, len(c.Stages))
	for i, sc := range c.Stages {
		days := 1
		if i < len(req.Stages) {
			days = req.Stages[i].Days
		}
		out.Stages[i] = StageCandidates{
			Attractions:    top(sc.Attractions, max(limit, days*set.AttractionsPerDay), func(a Attraction) (float64, float64) { return a.Rating, a.Cost }),
			Accommodations: top(sc.Accommodations, max(limit, set.HotelsPerDay), func(h Accommodation) (float64, float64) { return h.Rating, h.Cost }),
			Restaurants:    top(sc.Restaurants, max(limit, days*set.RestaurantsPerDay), func(r Restaurant) (float64, float64) { return r.Rating, r.Cost }),
			Transport:      sc.Transport,
		}
	}
	return out
}

func top[T any](items []T, n int, key func(T) (rating, cost float64)) []T {
	if len(items) <= n {
		return items
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		ra, ca := key(a)
		rb, cb := key(b)
		if c := cmp.Compare(rb, ra); c != 0 {
			return c
		}
		return cmp.Compare(ca, cb)
	})
	return sorted[:n]
}
