// Package highs solves milp models with the HiGHS provider of the nextmv
// mip package.
package highs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextmv-io/sdk/mip"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
)

const provider = "highs"

var ErrNoSolution = errors.New("solver returned no solution")

type Solver struct {
	verbose bool
}

type Option func(*Solver)

func WithVerbose() Option {
	return func(s *Solver) { s.verbose = true }
}

func New(opts ...Option) *Solver {
	s := &Solver{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Solver) Solve(ctx context.Context, model *milp.Model, opts milp.Options) (milp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return milp.Solution{Status: milp.StatusError}, err
	}
	if err := model.Validate(); err != nil {
		return milp.Solution{Status: milp.StatusError}, fmt.Errorf("invalid model: %w", err)
	}
	if len(model.Pending()) > 0 {
		return milp.Solution{Status: milp.StatusError}, fmt.Errorf("model has %d disjunctions that were not lowered", len(model.Pending()))
	}

	m, vars := translate(model)

	solver, err := mip.NewSolver(provider, m)
	if err != nil {
		return milp.Solution{Status: milp.StatusError}, err
	}

	solveOptions := mip.NewSolveOptions()
	limit := opts.TimeLimit
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); limit <= 0 || remaining < limit {
			limit = remaining
		}
	}
	if limit > 0 {
		if err := solveOptions.SetMaximumDuration(limit); err != nil {
			return milp.Solution{Status: milp.StatusError}, err
		}
	}
	if opts.RelativeGap > 0 {
		if err := solveOptions.SetMIPGapRelative(opts.RelativeGap); err != nil {
			return milp.Solution{Status: milp.StatusError}, err
		}
	}
	if s.verbose {
		solveOptions.SetVerbosity(mip.High)
	} else {
		solveOptions.SetVerbosity(mip.Off)
	}

	solution, err := solver.Solve(solveOptions)
	if err != nil {
		return milp.Solution{Status: milp.StatusError}, err
	}
	if solution == nil {
		return milp.Solution{Status: milp.StatusError}, ErrNoSolution
	}

	out := milp.Solution{Runtime: solution.RunTime()}
	if !solution.HasValues() {
		if solution.IsInfeasible() {
			out.Status = milp.StatusInfeasible
			return out, nil
		}
		out.Status = milp.StatusError
		return out, ErrNoSolution
	}

	out.Status = milp.StatusFeasible
	if solution.IsOptimal() {
		out.Status = milp.StatusOptimal
	}
	out.Objective = solution.ObjectiveValue() + model.Objective().Const
	out.Values = make([]float64, len(vars))
	for i, v := range vars {
		out.Values[i] = solution.Value(v)
	}
	return out, nil
}

// translate copies model into a nextmv mip model. Fixed binaries become
// equality rows since mip.Bool carries no bounds.
func translate(model *milp.Model) (mip.Model, []mip.Var) {
	m := mip.NewModel()
	infos := model.Vars()
	vars := make([]mip.Var, len(infos))

	for i, info := range infos {
		switch info.Kind {
		case milp.Binary:
			b := m.NewBool()
			vars[i] = b
			if info.Lower > 0 || info.Upper < 1 {
				fix := m.NewConstraint(mip.Equal, info.Lower)
				fix.NewTerm(1, b)
			}
		case milp.Integer:
			vars[i] = m.NewInt(int64(info.Lower), int64(info.Upper))
		default:
			vars[i] = m.NewFloat(info.Lower, info.Upper)
		}
	}

	for _, c := range model.Constraints() {
		row := m.NewConstraint(sense(c.Sense), c.RHS)
		for _, t := range c.Expr.Terms {
			row.NewTerm(t.Coef, vars[t.Var])
		}
	}

	m.Objective().SetMinimize()
	for _, t := range model.Objective().Terms {
		m.Objective().NewTerm(t.Coef, vars[t.Var])
	}
	return m, vars
}

func sense(s milp.Sense) mip.Sense {
	switch s {
	case milp.LessEq:
		return mip.LessThanOrEqual
	case milp.GreaterEq:
		return mip.GreaterThanOrEqual
	default:
		return mip.Equal
	}
}
