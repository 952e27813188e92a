// internal/planner/solve.go
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// Result is the outcome of one planning run. Fallback is set when the
// itinerary was produced by BuildFallbackPlan; Reason then says why.
type Result struct {
	Itinerary    trip.Itinerary
	SolverStatus milp.Status
	Fallback     bool
	Reason       string
	Warnings     []string
}

// Planner runs filter, build, solve and extract for trip requests. It holds
// no per-request state and is safe for concurrent use.
type Planner struct {
	solver        milp.Solver
	solveOptions  milp.Options
	weights       ObjectiveWeights
	maxCandidates int
	logger        zerolog.Logger
	observer      PhaseObserver
	newRunID      func() string
}

type Option func(*Planner)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

func WithObserver(o PhaseObserver) Option {
	return func(p *Planner) { p.observer = o }
}

func WithSolveOptions(o milp.Options) Option {
	return func(p *Planner) { p.solveOptions = o }
}

func WithWeights(w ObjectiveWeights) Option {
	return func(p *Planner) { p.weights = w }
}

// WithMaxCandidates ranks each stage's POI lists down to n before building.
func WithMaxCandidates(n int) Option {
	return func(p *Planner) { p.maxCandidates = n }
}

func WithRunID(f func() string) Option {
	return func(p *Planner) { p.newRunID = f }
}

func New(solver milp.Solver, opts ...Option) *Planner {
	p := &Planner{
		solver:   solver,
		weights:  DefaultWeights(),
		logger:   zerolog.Nop(),
		newRunID: uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Plan produces an itinerary for req. Malformed requests and constraints
// are returned as errors (see IsInputError); any problem past that point
// degrades to the fallback plan.
func (pl *Planner) Plan(ctx context.Context, req trip.Request, set trip.ConstraintSet, cands trip.Candidates) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	set = set.Defaults(req)
	runID := pl.newRunID()
	logger := pl.logger.With().Str("run_id", runID).Logger()

	start := time.Now()
	filtered, err := trip.ApplyFilters(req, cands)
	if err != nil {
		return Result{}, err
	}
	filtered = trip.Rank(req, set, filtered, pl.maxCandidates)
	observe(pl.observer, runID, PhaseFilter, start)

	fallback := func(reason string, status milp.Status, warnings []string) (Result, error) {
		start := time.Now()
		source := filtered
		if source.Empty() {
			source = cands
		}
		it := BuildFallbackPlan(source, req, set)
		it.RunID = runID
		observe(pl.observer, runID, PhaseFallback, start)
		logger.Warn().Str("reason", reason).Msg("planner_fallback")
		return Result{Itinerary: it, SolverStatus: status, Fallback: true, Reason: reason, Warnings: warnings}, nil
	}

	if filtered.Empty() {
		return fallback("no candidates left after filtering", "", nil)
	}

	start = time.Now()
	program, err := Build(req, set, filtered, BuildOptions{Weights: pl.weights, Logger: logger})
	observe(pl.observer, runID, PhaseBuild, start)
	if err != nil {
		if IsInputError(err) {
			return Result{}, err
		}
		return fallback("build: "+err.Error(), "", nil)
	}
	logger.Debug().
		Int("variables", program.Model.NumVars()).
		Int("constraints", len(program.Model.Constraints())).
		Float64("big_m", program.BigM).
		Msg("planner_model_built")

	start = time.Now()
	sol, err := pl.solver.Solve(ctx, program.Model, pl.solveOptions)
	observe(pl.observer, runID, PhaseSolve, start)
	switch {
	case err != nil:
		return fallback("solve: "+err.Error(), sol.Status, program.Warnings())
	case !sol.HasValues():
		return fallback("solver status "+string(sol.Status), sol.Status, program.Warnings())
	}

	start = time.Now()
	it, err := Extract(program, sol)
	observe(pl.observer, runID, PhaseExtract, start)
	if err != nil {
		if errors.Is(err, ErrBrokenRoute) {
			logger.Error().Err(err).Msg("planner_broken_route")
		}
		return fallback("extract: "+err.Error(), sol.Status, program.Warnings())
	}
	it.RunID = runID

	logger.Info().
		Str("status", string(it.Status)).
		Float64("objective", it.ObjectiveValue).
		Float64("total_cost", it.TotalCost).
		Dur("solver_runtime", sol.Runtime).
		Msg("planner_plan_ready")
	return Result{Itinerary: it, SolverStatus: sol.Status, Warnings: program.Warnings()}, nil
}
