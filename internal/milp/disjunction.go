package milp

import (
	"fmt"
	"math"
)

// Formula is a conjunction of linear constraints and disjunctions.
type Formula struct {
	Constraints  []Constraint
	Disjunctions []Disjunction
}

// Disjunction requires at least one branch to hold.
type Disjunction struct {
	Name     string
	Branches []Formula
}

func (f Formula) IsEmpty() bool {
	return len(f.Constraints) == 0 && len(f.Disjunctions) == 0
}

// And conjoins formulas.
func And(fs ...Formula) Formula {
	var out Formula
	for _, f := range fs {
		out.Constraints = append(out.Constraints, f.Constraints...)
		out.Disjunctions = append(out.Disjunctions, f.Disjunctions...)
	}
	return out
}

// Or builds a formula holding a single disjunction. A single branch is
// returned as is.
func Or(name string, branches ...Formula) Formula {
	if len(branches) == 1 {
		return branches[0]
	}
	return Formula{Disjunctions: []Disjunction{{Name: name, Branches: branches}}}
}

func (f Formula) Satisfied(values []float64, tol float64) bool {
	for _, c := range f.Constraints {
		if !c.Satisfied(values, tol) {
			return false
		}
	}
	for _, d := range f.Disjunctions {
		if !d.Satisfied(values, tol) {
			return false
		}
	}
	return true
}

func (d Disjunction) Satisfied(values []float64, tol float64) bool {
	for _, b := range d.Branches {
		if b.Satisfied(values, tol) {
			return true
		}
	}
	return false
}

// AddFormula adds f's constraints to m and queues its disjunctions for
// LowerDisjunctions.
func (m *Model) AddFormula(f Formula) {
	m.constraints = append(m.constraints, f.Constraints...)
	m.pending = append(m.pending, f.Disjunctions...)
}

// Pending returns the disjunctions not lowered yet.
func (m *Model) Pending() []Disjunction { return m.pending }

type loweredDisjunction struct {
	d          Disjunction
	parent     Var
	hasParent  bool
	indicators []Var
}

// LowerDisjunctions rewrites every pending disjunction with one binary
// indicator per branch: sum(indicators) >= 1 (or >= the enclosing branch's
// indicator when nested), and each branch row relaxed by M*(1-indicator)
// where M is derived from the variable bounds of that row.
func (m *Model) LowerDisjunctions() error {
	pending := m.pending
	m.pending = nil
	for _, d := range pending {
		if err := m.lower(d, 0, false); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) lower(d Disjunction, parent Var, hasParent bool) error {
	if len(d.Branches) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrEmptyBranch)
	}

	rec := loweredDisjunction{d: d, parent: parent, hasParent: hasParent}
	pick := LinExpr{}
	for i := range d.Branches {
		y := m.NewBinary(fmt.Sprintf("%s_branch[%d]", d.Name, i))
		rec.indicators = append(rec.indicators, y)
		pick = pick.AddTerm(y, 1)
	}
	need := Constant(1)
	if hasParent {
		need = parent.Expr()
	}
	m.Add(d.Name+"_pick", pick, GreaterEq, need)
	m.lowered = append(m.lowered, rec)

	for i, branch := range d.Branches {
		y := rec.indicators[i]
		for _, c := range branch.Constraints {
			if err := m.relax(c, y); err != nil {
				return fmt.Errorf("%s: %w", d.Name, err)
			}
		}
		for _, nested := range branch.Disjunctions {
			if err := m.lower(nested, y, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// relax adds c so that it only binds when y = 1.
func (m *Model) relax(c Constraint, y Var) error {
	switch c.Sense {
	case Equal:
		if err := m.relax(Constraint{Name: c.Name + "_le", Expr: c.Expr, Sense: LessEq, RHS: c.RHS}, y); err != nil {
			return err
		}
		return m.relax(Constraint{Name: c.Name + "_ge", Expr: c.Expr, Sense: GreaterEq, RHS: c.RHS}, y)
	}

	lo, hi := c.Expr.Bounds(m)
	switch c.Sense {
	case LessEq:
		// expr <= rhs + M(1-y)
		bigM := hi - c.RHS
		if bigM <= 0 {
			return nil
		}
		if math.IsInf(bigM, 0) {
			return fmt.Errorf("%s: %w", c.Name, ErrUnboundedM)
		}
		m.AddConstraint(Constraint{Name: c.Name, Expr: c.Expr.AddTerm(y, bigM).Simplify(), Sense: LessEq, RHS: c.RHS + bigM})
	case GreaterEq:
		// expr >= rhs - M(1-y)
		bigM := c.RHS - lo
		if bigM <= 0 {
			return nil
		}
		if math.IsInf(bigM, 0) {
			return fmt.Errorf("%s: %w", c.Name, ErrUnboundedM)
		}
		m.AddConstraint(Constraint{Name: c.Name, Expr: c.Expr.AddTerm(y, -bigM).Simplify(), Sense: GreaterEq, RHS: c.RHS - bigM})
	}
	return nil
}

// FillIndicators sets the branch indicators of lowered disjunctions in
// values: the first branch that holds is switched on. Values of all other
// variables must already be set.
func (m *Model) FillIndicators(values []float64, tol float64) {
	for _, rec := range m.lowered {
		active := !rec.hasParent || values[rec.parent] > 0.5
		chosen := false
		for i, b := range rec.d.Branches {
			on := active && !chosen && b.Satisfied(values, tol)
			if on {
				chosen = true
				values[rec.indicators[i]] = 1
			} else {
				values[rec.indicators[i]] = 0
			}
		}
	}
}
