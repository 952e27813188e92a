// internal/app/service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/catalog"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

var ErrNoCatalog = errors.New("request carries no candidates and no catalog is configured")

type Planner interface {
	Plan(ctx context.Context, req trip.Request, set trip.ConstraintSet, cands trip.Candidates) (planner.Result, error)
}

// PlanRequest is one trip to plan. Candidates, when set, replace the catalog
// lookup.
type PlanRequest struct {
	Request     trip.Request       `json:"request"`
	Constraints trip.ConstraintSet `json:"constraints"`
	Candidates  *trip.Candidates   `json:"candidates,omitempty"`
}

// BatchItem is the outcome of one request of a batch; exactly one of Result
// and Err is set.
type BatchItem struct {
	Result *planner.Result
	Err    error
}

type Service struct {
	planner Planner
	catalog catalog.Source
	workers int
	logger  zerolog.Logger
}

type Option func(*Service)

func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the planner to a catalog. src may be nil when every
// request brings its own candidates.
func NewService(p Planner, src catalog.Source, opts ...Option) *Service {
	s := &Service{planner: p, catalog: src, workers: 4, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Plan assembles the candidates (unless given) and runs the planner. Missing
// catalog data degrades the candidates instead of failing the request.
func (s *Service) Plan(ctx context.Context, in PlanRequest) (planner.Result, error) {
	if err := in.Request.Validate(); err != nil {
		return planner.Result{}, err
	}

	var cands trip.Candidates
	if in.Candidates != nil {
		cands = *in.Candidates
	} else {
		if s.catalog == nil {
			return planner.Result{}, ErrNoCatalog
		}
		var err error
		cands, err = catalog.Assemble(ctx, s.catalog, in.Request)
		if err != nil {
			if ctx.Err() != nil {
				return planner.Result{}, fmt.Errorf("assemble candidates: %w", err)
			}
			s.logger.Warn().Err(err).Msg("catalog_degraded")
		}
	}

	return s.planner.Plan(ctx, in.Request, in.Constraints, cands)
}

// PlanBatch plans independent requests in parallel, at most the configured
// number at a time. A failing request does not stop the others; only a
// cancelled context does.
func (s *Service) PlanBatch(ctx context.Context, ins []PlanRequest) ([]BatchItem, error) {
	out := make([]BatchItem, len(ins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, in := range ins {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Plan(gctx, in)
			if err != nil {
				out[i] = BatchItem{Err: err}
				return nil
			}
			out[i] = BatchItem{Result: &res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
