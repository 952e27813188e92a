// internal/planner/compile.go
package planner

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// strictEpsilon turns strict comparisons into non-strict rows.
const strictEpsilon = 1e-3

// Aggregate sources bound to the candidate collections of the model.
const (
	SourceAttractions    = "attractions"
	SourceRestaurants    = "restaurants"
	SourceAccommodations = "accommodations"
)

// countRules maps count rules to the number of candidates a day offers for
// their category; days with nothing to count are left out.
var countRules = map[string]func(d *dayModel) int{
	"attraction_count": func(d *dayModel) int { return len(d.Attractions) },
	"restaurant_count": func(d *dayModel) int { return len(d.Restaurants) },
	"hotel_count":      func(d *dayModel) int { return len(d.Hotels) },
}

func (p *Program) compileRules() error {
	for _, r := range p.Set.Rules() {
		if err := p.compileRule(r.Name, r.Bound, r.Node, false); err != nil {
			return err
		}
	}

	if _, ok := p.Set.Rule("daily_active_time"); !ok {
		for _, d := range p.days {
			e, _ := p.resolver.Field(DailyTotalTime, d.Day)
			p.Model.Add(fmt.Sprintf("daily_time_cap[%d]", d.Day), e, milp.LessEq, milp.Constant(p.Set.DailyTimeCap))
		}
	}
	if p.Request.Budget > 0 {
		e, _ := p.resolver.Field(TotalCost, 0)
		p.Model.Add("request_budget", e, milp.LessEq, milp.Constant(p.Request.Budget))
	}

	p.compileExtension()
	return nil
}

// compileRule adds one rule to the model, per day when it involves a daily
// field. Nothing is added unless every day compiles.
func (p *Program) compileRule(name, bound string, node expr.Node, lenient bool) error {
	var formulas []milp.Formula
	if isDailyRule(bound, node) {
		for _, d := range p.days {
			if count, ok := countRules[name]; ok && count(d) == 0 {
				continue
			}
			c := &compiler{p: p, rule: name, day: d.Day, lenient: lenient}
			f, err := c.formula(node, false)
			if err != nil {
				return err
			}
			formulas = append(formulas, f)
		}
	} else {
		c := &compiler{p: p, rule: name, lenient: lenient}
		f, err := c.formula(node, false)
		if err != nil {
			return err
		}
		formulas = append(formulas, f)
	}
	for _, f := range formulas {
		p.Model.AddFormula(f)
	}
	return nil
}

// compileExtension applies the free-form constraints best-effort: a
// statement that cannot be parsed or compiled is skipped with a warning.
func (p *Program) compileExtension() {
	statements := strings.FieldsFunc(p.Set.Extension, func(r rune) bool { return r == ';' || r == '\n' })
	n := 0
	for _, s := range statements {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n++
		name := fmt.Sprintf("extension_%d", n)
		node, err := expr.Parse(s)
		if err == nil {
			err = p.compileRule(name, "", node, true)
		}
		if err != nil {
			p.warn(fmt.Sprintf("%s skipped: %q: %v", name, s, err))
		}
	}
}

// warn records msg once; daily rules would otherwise repeat it per day.
func (p *Program) warn(msg string) {
	if slices.Contains(p.warnings, msg) {
		return
	}
	p.warnings = append(p.warnings, msg)
	p.logger.Warn().Msg(msg)
}

func isDailyRule(bound string, node expr.Node) bool {
	if k, ok := ParseFieldKind(bound); ok && k.IsDaily() {
		return true
	}
	for _, name := range expr.Fields(node) {
		if k, ok := ParseFieldKind(name); ok && k.IsDaily() {
			return true
		}
	}
	return false
}

// compiler turns one rule, for one day or for the whole trip, into a
// formula over the program's variables.
type compiler struct {
	p       *Program
	rule    string
	day     int
	lenient bool
	seq     int
	// unknown counts unknown fields read as 0 in lenient mode.
	unknown int
}

func (c *compiler) name() string {
	c.seq++
	if c.day > 0 {
		return fmt.Sprintf("%s[%d]#%d", c.rule, c.day, c.seq)
	}
	return fmt.Sprintf("%s#%d", c.rule, c.seq)
}

// negated maps a comparison to its complement.
var negated = map[string]string{
	expr.OpEq: expr.OpNe,
	expr.OpNe: expr.OpEq,
	expr.OpLt: expr.OpGe,
	expr.OpLe: expr.OpGt,
	expr.OpGt: expr.OpLe,
	expr.OpGe: expr.OpLt,
}

func (c *compiler) formula(n expr.Node, negate bool) (milp.Formula, error) {
	switch v := n.(type) {
	case expr.UnaryOp:
		if v.Op != expr.OpNot {
			return milp.Formula{}, &expr.UnknownOperatorError{Kind: expr.KindUnary, Op: v.Op}
		}
		return c.formula(v.Operand, !negate)

	case expr.BinaryOp:
		switch v.Op {
		case expr.OpAnd, expr.OpOr:
			l, err := c.formula(v.Left, negate)
			if err != nil {
				return milp.Formula{}, err
			}
			r, err := c.formula(v.Right, negate)
			if err != nil {
				return milp.Formula{}, err
			}
			// De Morgan: a negated "and" is an "or" of negations.
			if (v.Op == expr.OpAnd) != negate {
				return milp.And(l, r), nil
			}
			return milp.Or(c.name(), l, r), nil
		case expr.OpIncludes, expr.OpIntersects:
			return c.static(v, negate)
		}
		if !expr.IsComparison(v.Op) {
			return milp.Formula{}, &expr.UnknownOperatorError{Kind: expr.KindBinary, Op: v.Op}
		}
		op := v.Op
		if negate {
			op = negated[op]
		}
		return c.compare(op, v.Left, v.Right)

	case expr.Literal:
		return c.static(v, negate)

	case nil:
		return milp.Formula{}, expr.ErrMissingOperand
	}
	return milp.Formula{}, fmt.Errorf("rule %s: %w: %s used as a condition", c.rule, ErrNonlinear, n.Kind())
}

func (c *compiler) compare(op string, left, right expr.Node) (milp.Formula, error) {
	unknown := c.unknown
	l, err := c.linear(left)
	if err != nil {
		return milp.Formula{}, err
	}
	r, err := c.linear(right)
	if err != nil {
		return milp.Formula{}, err
	}

	if l.IsConstant() && r.IsConstant() {
		ok := holds(op, l.Const, r.Const)
		if !ok && c.unknown > unknown {
			return milp.Formula{}, fmt.Errorf("rule %s: %w: comparison can never hold", c.rule, ErrUnknownField)
		}
		return c.fold(ok), nil
	}

	row := func(sense milp.Sense, rhs milp.LinExpr) milp.Formula {
		return milp.Formula{Constraints: []milp.Constraint{milp.NewConstraint(c.name(), l, sense, rhs)}}
	}
	switch op {
	case expr.OpEq:
		return row(milp.Equal, r), nil
	case expr.OpLe:
		return row(milp.LessEq, r), nil
	case expr.OpGe:
		return row(milp.GreaterEq, r), nil
	case expr.OpLt:
		return row(milp.LessEq, r.AddConst(-strictEpsilon)), nil
	case expr.OpGt:
		return row(milp.GreaterEq, r.AddConst(strictEpsilon)), nil
	default: // !=
		below := row(milp.LessEq, r.AddConst(-strictEpsilon))
		above := row(milp.GreaterEq, r.AddConst(strictEpsilon))
		return milp.Or(c.name(), below, above), nil
	}
}

func holds(op string, l, r float64) bool {
	switch op {
	case expr.OpEq:
		return l == r
	case expr.OpNe:
		return l != r
	case expr.OpLt:
		return l < r
	case expr.OpLe:
		return l <= r
	case expr.OpGt:
		return l > r
	default:
		return l >= r
	}
}

// fold turns a condition known at build time into an empty formula or an
// unsatisfiable row.
func (c *compiler) fold(ok bool) milp.Formula {
	if ok {
		return milp.Formula{}
	}
	return milp.Formula{Constraints: []milp.Constraint{
		milp.NewConstraint(c.name()+"_never", milp.LinExpr{}, milp.GreaterEq, milp.Constant(1)),
	}}
}

// static evaluates a condition that does not involve decision variables.
func (c *compiler) static(n expr.Node, negate bool) (milp.Formula, error) {
	if !c.isStatic(n) {
		return milp.Formula{}, fmt.Errorf("rule %s: %w: %s over decision variables", c.rule, ErrNonlinear, describe(n))
	}
	ok, err := expr.EvalBool(n, c.constants())
	if err != nil {
		return milp.Formula{}, fmt.Errorf("rule %s: %w", c.rule, err)
	}
	return c.fold(ok != negate), nil
}

func describe(n expr.Node) string {
	if b, ok := n.(expr.BinaryOp); ok {
		return b.Op
	}
	return string(n.Kind())
}

// isStatic reports whether n only reads literals and trip constants.
func (c *compiler) isStatic(n expr.Node) bool {
	switch v := n.(type) {
	case expr.Literal:
		return true
	case expr.Field:
		k, ok := ParseFieldKind(v.Name)
		return ok && (k == PeopleNumber || k == Budget || k == Days)
	case expr.BinaryOp:
		return c.isStatic(v.Left) && c.isStatic(v.Right)
	case expr.Arith:
		return c.isStatic(v.Left) && c.isStatic(v.Right)
	case expr.UnaryOp:
		return c.isStatic(v.Operand)
	}
	return false
}

func (c *compiler) constants() map[string]any {
	r := c.p.resolver
	return map[string]any{
		PeopleNumber.String(): r.people,
		Budget.String():       r.budget,
		Days.String():         r.numDays,
	}
}

func (c *compiler) linear(n expr.Node) (milp.LinExpr, error) {
	switch v := n.(type) {
	case expr.Literal:
		f, ok := expr.ToFloat(v.Value)
		if !ok {
			return milp.LinExpr{}, fmt.Errorf("rule %s: literal %v: %w", c.rule, v.Value, expr.ErrNotNumeric)
		}
		return milp.Constant(f), nil

	case expr.Field:
		e, err := c.p.resolver.Resolve(v.Name, c.day)
		if err == nil {
			return e, nil
		}
		var fe *FieldError
		if errors.As(err, &fe) {
			fe.Rule = c.rule
		}
		if c.lenient && errors.Is(err, ErrUnknownField) {
			c.unknown++
			c.p.warn(fmt.Sprintf("rule %s: unknown field %q read as 0", c.rule, v.Name))
			return milp.LinExpr{}, nil
		}
		return milp.LinExpr{}, err

	case expr.Arith:
		return c.arith(v)

	case expr.Aggregate:
		return c.aggregate(v)

	case nil:
		return milp.LinExpr{}, expr.ErrMissingOperand
	}
	return milp.LinExpr{}, fmt.Errorf("rule %s: %w: condition used as a number", c.rule, ErrNonlinear)
}

func (c *compiler) arith(a expr.Arith) (milp.LinExpr, error) {
	l, err := c.linear(a.Left)
	if err != nil {
		return milp.LinExpr{}, err
	}
	r, err := c.linear(a.Right)
	if err != nil {
		return milp.LinExpr{}, err
	}
	switch a.Op {
	case expr.OpAdd:
		return l.Add(r), nil
	case expr.OpSub:
		return l.Sub(r), nil
	case expr.OpMul:
		switch {
		case l.IsConstant():
			return r.Scale(l.Const), nil
		case r.IsConstant():
			return l.Scale(r.Const), nil
		}
		return milp.LinExpr{}, fmt.Errorf("rule %s: %w: product of two variable expressions", c.rule, ErrNonlinear)
	case expr.OpDiv:
		if !r.IsConstant() {
			return milp.LinExpr{}, fmt.Errorf("rule %s: %w: division by a variable expression", c.rule, ErrNonlinear)
		}
		if r.Const == 0 {
			return milp.LinExpr{}, fmt.Errorf("rule %s: %w", c.rule, expr.ErrDivisionByZero)
		}
		return l.Scale(1 / r.Const), nil
	}
	return milp.LinExpr{}, &expr.UnknownOperatorError{Kind: expr.KindArith, Op: a.Op}
}

// aggregate compiles count and sum over a candidate collection into a
// weighted sum of selection binaries, for the compiler's day or every day.
func (c *compiler) aggregate(a expr.Aggregate) (milp.LinExpr, error) {
	switch a.Func {
	case expr.FuncCount, expr.FuncSum:
	case expr.FuncMin, expr.FuncMax:
		return milp.LinExpr{}, fmt.Errorf("rule %s: %w: %s over %s", c.rule, ErrNonlinear, a.Func, a.SourceName())
	default:
		return milp.LinExpr{}, &expr.UnknownOperatorError{Kind: expr.KindAggregate, Op: a.Func}
	}

	var out milp.LinExpr
	for _, d := range c.p.days {
		if c.day > 0 && d.Day != c.day {
			continue
		}
		var err error
		switch a.SourceName() {
		case SourceAttractions:
			out, err = accumulate(out, a, d.Attractions, trip.Attraction.Fields)
		case SourceRestaurants:
			out, err = accumulate(out, a, d.Restaurants, trip.Restaurant.Fields)
		case SourceAccommodations:
			out, err = accumulate(out, a, d.Hotels, trip.Accommodation.Fields)
		default:
			return milp.LinExpr{}, fmt.Errorf("rule %s: %w: %q", c.rule, ErrUnknownSource, a.SourceName())
		}
		if err != nil {
			return milp.LinExpr{}, fmt.Errorf("rule %s: %w", c.rule, err)
		}
	}
	return out, nil
}

func accumulate[T any](out milp.LinExpr, a expr.Aggregate, vars []poiVar[T], fields func(T) map[string]any) (milp.LinExpr, error) {
	for _, v := range vars {
		item := fields(v.Item)
		if a.Filter != nil {
			ok, err := expr.EvalBool(a.Filter, item)
			if err != nil {
				return out, err
			}
			if !ok {
				continue
			}
		}
		coef := 1.0
		if a.Func == expr.FuncSum {
			f, ok := expr.ToFloat(item[a.Field])
			if !ok {
				return out, fmt.Errorf("sum of %q: %w", a.Field, expr.ErrNotNumeric)
			}
			coef = f
		}
		out = out.AddTerm(v.Sel, coef)
	}
	return out, nil
}
