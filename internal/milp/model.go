// Package milp is a small backend-neutral mixed-integer linear model:
// variables with bounds, linear constraints, explicit disjunction groups and
// a minimisation objective. Backends translate a Model for a solver.
package milp

import (
	"errors"
	"fmt"
	"math"
)

type VarKind int

const (
	Continuous VarKind = iota
	Binary
	Integer
)

type VarInfo struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "=="
	}
}

// Constraint is Expr (sense) RHS. Expr carries no constant once the
// constraint is part of a Model.
type Constraint struct {
	Name  string
	Expr  LinExpr
	Sense Sense
	RHS   float64
}

// NewConstraint normalises lhs (sense) rhs into terms (sense) constant.
func NewConstraint(name string, lhs LinExpr, sense Sense, rhs LinExpr) Constraint {
	e := lhs.Sub(rhs).Simplify()
	c := Constraint{Name: name, Sense: sense, RHS: -e.Const}
	e.Const = 0
	c.Expr = e
	return c
}

// Satisfied checks c at values within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Expr.Eval(values)
	switch c.Sense {
	case LessEq:
		return lhs <= c.RHS+tol
	case GreaterEq:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

var (
	ErrUnknownVar  = errors.New("unknown variable")
	ErrUnboundedM  = errors.New("disjunct has an unbounded expression")
	ErrEmptyBranch = errors.New("disjunction needs at least one branch")
)

type Model struct {
	vars        []VarInfo
	constraints []Constraint
	pending     []Disjunction
	lowered     []loweredDisjunction
	objective   LinExpr
}

func NewModel() *Model {
	return &Model{}
}

func (m *Model) NewBinary(name string) Var {
	return m.newVar(VarInfo{Name: name, Kind: Binary, Lower: 0, Upper: 1})
}

func (m *Model) NewContinuous(name string, lower, upper float64) Var {
	return m.newVar(VarInfo{Name: name, Kind: Continuous, Lower: lower, Upper: upper})
}

func (m *Model) NewInteger(name string, lower, upper float64) Var {
	return m.newVar(VarInfo{Name: name, Kind: Integer, Lower: math.Ceil(lower), Upper: math.Floor(upper)})
}

func (m *Model) newVar(info VarInfo) Var {
	m.vars = append(m.vars, info)
	return Var(len(m.vars) - 1)
}

// Fix pins v to value.
func (m *Model) Fix(v Var, value float64) {
	m.vars[v].Lower = value
	m.vars[v].Upper = value
}

func (m *Model) Info(v Var) VarInfo { return m.vars[v] }

func (m *Model) NumVars() int { return len(m.vars) }

func (m *Model) Vars() []VarInfo { return m.vars }

func (m *Model) Constraints() []Constraint { return m.constraints }

// Add appends lhs (sense) rhs.
func (m *Model) Add(name string, lhs LinExpr, sense Sense, rhs LinExpr) {
	m.AddConstraint(NewConstraint(name, lhs, sense, rhs))
}

func (m *Model) AddConstraint(c Constraint) {
	m.constraints = append(m.constraints, c)
}

func (m *Model) Minimize(obj LinExpr) { m.objective = obj.Simplify() }

func (m *Model) Objective() LinExpr { return m.objective }

// Validate checks that every referenced variable exists and bounds are
// consistent.
func (m *Model) Validate() error {
	for i, v := range m.vars {
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %s: lower bound %g above upper bound %g", v.Name, v.Lower, v.Upper)
		}
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %d (%s): NaN bound", i, v.Name)
		}
	}
	check := func(e LinExpr, where string) error {
		for _, t := range e.Terms {
			if t.Var < 0 || int(t.Var) >= len(m.vars) {
				return fmt.Errorf("%s: %w %d", where, ErrUnknownVar, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%s: invalid coefficient %g", where, t.Coef)
			}
		}
		return nil
	}
	for _, c := range m.constraints {
		if err := check(c.Expr, c.Name); err != nil {
			return err
		}
	}
	return check(m.objective, "objective")
}

// String renders a constraint with variable names, for logs and errors.
func (m *Model) String(c Constraint) string {
	return fmt.Sprintf("%s: %s %s %g", c.Name, c.Expr.format(m), c.Sense, c.RHS)
}

// Violations lists the bounds, integrality, constraints and pending
// disjunctions that values break.
func (m *Model) Violations(values []float64, tol float64) []string {
	var out []string
	if len(values) != len(m.vars) {
		return []string{fmt.Sprintf("expected %d values, got %d", len(m.vars), len(values))}
	}
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			out = append(out, fmt.Sprintf("%s=%g outside [%g, %g]", v.Name, x, v.Lower, v.Upper))
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			out = append(out, fmt.Sprintf("%s=%g is not integral", v.Name, x))
		}
	}
	for _, c := range m.constraints {
		if !c.Satisfied(values, tol) {
			out = append(out, fmt.Sprintf("%s (lhs=%g)", m.String(c), c.Expr.Eval(values)))
		}
	}
	for _, d := range m.pending {
		if !d.Satisfied(values, tol) {
			out = append(out, fmt.Sprintf("disjunction %s: no branch holds", d.Name))
		}
	}
	return out
}
