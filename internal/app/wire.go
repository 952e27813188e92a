package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/catalog"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/config"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp/highs"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
)

// NewLogger returns the process logger at the configured level.
func NewLogger(w io.Writer, cfg config.Runtime) zerolog.Logger {
	return zerolog.New(w).Level(cfg.LogLevel).With().Timestamp().Logger()
}

// OpenCatalog opens the configured catalog: the SQLite DSN when set, else the
// JSON bundle file, wrapped in the per-city cache. It returns a nil source
// when neither is configured.
func OpenCatalog(ctx context.Context, cfg config.Runtime, logger zerolog.Logger) (catalog.Source, io.Closer, error) {
	switch {
	case cfg.DataDSN != "":
		db, err := catalog.OpenSQLite(ctx, cfg.DataDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog db: %w", err)
		}
		return catalog.NewCached(db, cfg.CacheMaxItems), db, nil
	case cfg.DataFile != "":
		src, err := catalog.LoadFile(cfg.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog file: %w", err)
		}
		return catalog.NewCached(src, cfg.CacheMaxItems), io.NopCloser(nil), nil
	default:
		logger.Warn().Msg("no catalog configured; requests must carry candidates")
		return nil, io.NopCloser(nil), nil
	}
}

// Runtime is a fully wired service with the resources it owns.
type Runtime struct {
	Service  *Service
	observer *planner.AsyncPhaseObserver
	closer   io.Closer
}

// Wire builds the planner and the service from cfg. solver may be nil, in
// which case HiGHS is used.
func Wire(ctx context.Context, cfg config.Runtime, solver milp.Solver, logger zerolog.Logger) (*Runtime, error) {
	src, closer, err := OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if solver == nil {
		solver = highs.New()
	}

	observer := planner.NewAsyncPhaseObserver(planner.NewPhaseLogger(logger), cfg.ObsBuffer)
	pl := planner.New(solver,
		planner.WithLogger(logger.With().Str("component", "planner").Logger()),
		planner.WithObserver(observer),
		planner.WithSolveOptions(milp.Options{TimeLimit: cfg.SolverTimeLimit, RelativeGap: cfg.SolverGap}),
		planner.WithMaxCandidates(cfg.MaxCandidates),
	)
	svc := NewService(pl, src,
		WithBatchWorkers(cfg.BatchWorkers),
		WithLogger(logger.With().Str("component", "service").Logger()),
	)
	return &Runtime{Service: svc, observer: observer, closer: closer}, nil
}

// Close flushes the phase observer and releases the catalog.
func (r *Runtime) Close() error {
	r.observer.Close()
	return r.closer.Close()
}
