package milp

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Var identifies a decision variable of a Model.
type Var int

type Term struct {
	Var  Var
	Coef float64
}

// LinExpr is sum(Coef*Var) + Const. The zero value is the constant 0.
// Methods return new expressions and never modify their receiver.
type LinExpr struct {
	Terms []Term
	Const float64
}

func Constant(c float64) LinExpr { return LinExpr{Const: c} }

// Expr returns 1*v.
func (v Var) Expr() LinExpr { return LinExpr{Terms: []Term{{Var: v, Coef: 1}}} }

// Sum adds expressions.
func Sum(es ...LinExpr) LinExpr {
	var out LinExpr
	for _, e := range es {
		out.Terms = append(out.Terms, e.Terms...)
		out.Const += e.Const
	}
	return out
}

func (e LinExpr) Add(o LinExpr) LinExpr { return Sum(e, o) }

func (e LinExpr) Sub(o LinExpr) LinExpr { return Sum(e, o.Scale(-1)) }

func (e LinExpr) AddTerm(v Var, coef float64) LinExpr {
	out := LinExpr{Terms: make([]Term, len(e.Terms), len(e.Terms)+1), Const: e.Const}
	copy(out.Terms, e.Terms)
	out.Terms = append(out.Terms, Term{Var: v, Coef: coef})
	return out
}

func (e LinExpr) AddConst(c float64) LinExpr {
	out := e.clone()
	out.Const += c
	return out
}

func (e LinExpr) Scale(k float64) LinExpr {
	out := LinExpr{Terms: make([]Term, len(e.Terms)), Const: e.Const * k}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return out
}

// IsConstant reports whether e has no non-zero term once duplicates are
// merged.
func (e LinExpr) IsConstant() bool {
	return len(e.Simplify().Terms) == 0
}

// Simplify merges duplicate variables and drops zero coefficients. Terms
// are sorted by variable.
func (e LinExpr) Simplify() LinExpr {
	acc := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coef
	}
	out := LinExpr{Const: e.Const, Terms: make([]Term, 0, len(acc))}
	for v, c := range acc {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	return out
}

// Eval computes e at values (indexed by Var).
func (e LinExpr) Eval(values []float64) float64 {
	total := e.Const
	for _, t := range e.Terms {
		if int(t.Var) < len(values) {
			total += t.Coef * values[t.Var]
		}
	}
	return total
}

func (e LinExpr) clone() LinExpr {
	out := LinExpr{Terms: make([]Term, len(e.Terms)), Const: e.Const}
	copy(out.Terms, e.Terms)
	return out
}

// Bounds returns the smallest and largest value e can take given the
// variable bounds of m. Either side may be infinite.
func (e LinExpr) Bounds(m *Model) (lo, hi float64) {
	lo, hi = e.Const, e.Const
	for _, t := range e.Simplify().Terms {
		info := m.vars[t.Var]
		a, b := t.Coef*info.Lower, t.Coef*info.Upper
		if t.Coef < 0 {
			a, b = b, a
		}
		lo += a
		hi += b
	}
	if math.IsNaN(lo) {
		lo = math.Inf(-1)
	}
	if math.IsNaN(hi) {
		hi = math.Inf(1)
	}
	return lo, hi
}

func (e LinExpr) format(m *Model) string {
	var b strings.Builder
	for i, t := range e.Simplify().Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		name := fmt.Sprintf("x%d", t.Var)
		if m != nil {
			name = m.vars[t.Var].Name
		}
		fmt.Fprintf(&b, "%g*%s", t.Coef, name)
	}
	if e.Const != 0 || len(e.Terms) == 0 {
		if len(e.Terms) > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g", e.Const)
	}
	return b.String()
}
