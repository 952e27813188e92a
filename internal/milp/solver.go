package milp

import (
	"context"
	"time"
)

type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusError      Status = "error"
)

type Options struct {
	TimeLimit   time.Duration
	RelativeGap float64
}

// Solution is a solver result. Values is indexed by Var and is only set for
// optimal and feasible results.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Runtime   time.Duration
}

func (s Solution) HasValues() bool {
	return (s.Status == StatusOptimal || s.Status == StatusFeasible) && len(s.Values) > 0
}

func (s Solution) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Solver solves a Model. Implementations must honour Options.TimeLimit and
// return the best feasible assignment found when it expires.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts Options) (Solution, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, m *Model, opts Options) (Solution, error)

func (f SolverFunc) Solve(ctx context.Context, m *Model, opts Options) (Solution, error) {
	return f(ctx, m, opts)
}
