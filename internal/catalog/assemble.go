package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// Assemble collects the candidates of every stage of req. Records are copied
// and annotated with their stage and the stage's day window. A city or train
// lookup that fails leaves that part empty; the failures come back joined
// next to the partial candidates so callers can degrade instead of abort.
// Only context errors abort.
func Assemble(ctx context.Context, src Source, req trip.Request) (trip.Candidates, error) {
	windows := req.StageWindows()
	out := trip.Candidates{Stages: make([]trip.StageCandidates, len(req.Stages))}
	var errs []error

	for i, s := range req.Stages {
		city, err := src.City(ctx, s.Destination)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return trip.Candidates{}, ctxErr
			}
			errs = append(errs, fmt.Errorf("stage %d %s: %w", i, s.Destination, err))
			out.Stages[i] = trip.StageCandidates{Transport: trip.TransportMatrix{}}
			continue
		}
		out.Stages[i] = annotate(city, s.Destination, i, windows[i])
	}

	trains := func(what, origin, destination string) []trip.TrainOption {
		opts, err := src.Trains(ctx, origin, destination)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s trains %s -> %s: %w", what, origin, destination, err))
			return nil
		}
		return opts
	}

	first, last := req.Stages[0], req.Stages[len(req.Stages)-1]
	out.Departure = trains("departure", first.Origin, first.Destination)
	for k := 1; k < len(req.Stages); k++ {
		origin := req.Stages[k].Origin
		if origin == "" {
			origin = req.Stages[k-1].Destination
		}
		out.Transfers = append(out.Transfers, trains("transfer", origin, req.Stages[k].Destination))
	}
	out.Return = trains("return", last.Destination, first.Origin)

	if err := ctx.Err(); err != nil {
		return trip.Candidates{}, err
	}
	return out, errors.Join(errs...)
}

func annotate(c City, name string, stage int, w trip.Window) trip.StageCandidates {
	sc := trip.StageCandidates{
		Attractions:    slices.Clone(c.Attractions),
		Accommodations: slices.Clone(c.Accommodations),
		Restaurants:    slices.Clone(c.Restaurants),
		Transport:      make(trip.TransportMatrix, len(c.Transport)),
	}
	for i := range sc.Attractions {
		a := &sc.Attractions[i]
		a.Stage, a.Window = stage, w
		if a.City == "" {
			a.City = name
		}
	}
	for i := range sc.Accommodations {
		h := &sc.Accommodations[i]
		h.Stage, h.Window = stage, w
		if h.City == "" {
			h.City = name
		}
	}
	for i := range sc.Restaurants {
		r := &sc.Restaurants[i]
		r.Stage, r.Window = stage, w
		if r.City == "" {
			r.City = name
		}
	}
	for k, e := range c.Transport {
		sc.Transport[k] = e
	}
	return sc
}
