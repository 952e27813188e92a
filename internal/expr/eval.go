// internal/expr/eval.go
package expr

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Eval evaluates n against ctx. Missing fields evaluate to nil; comparisons
// involving nil or mismatched types are false rather than errors.
func Eval(n Node, ctx map[string]any) (any, error) {
	switch v := n.(type) {
	case Literal:
		return v.Value, nil
	case Field:
		return ctx[v.Name], nil
	case BinaryOp:
		return evalBinary(v, ctx)
	case UnaryOp:
		if v.Op != OpNot {
			return nil, &UnknownOperatorError{Kind: KindUnary, Op: v.Op}
		}
		x, err := Eval(v.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return !Truthy(x), nil
	case Arith:
		return evalArith(v, ctx)
	case Aggregate:
		return evalAggregate(v, ctx)
	case nil:
		return nil, ErrMissingOperand
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownNode, n)
	}
}

// EvalBool evaluates n and reports its truthiness.
func EvalBool(n Node, ctx map[string]any) (bool, error) {
	v, err := Eval(n, ctx)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

func evalBinary(b BinaryOp, ctx map[string]any) (any, error) {
	if _, ok := binaryOps[b.Op]; !ok {
		return nil, &UnknownOperatorError{Kind: KindBinary, Op: b.Op}
	}

	left, err := Eval(b.Left, ctx)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case OpAnd:
		if !Truthy(left) {
			return false, nil
		}
		right, err := Eval(b.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case OpOr:
		if Truthy(left) {
			return true, nil
		}
		right, err := Eval(b.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	right, err := Eval(b.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case OpEq:
		return equal(left, right), nil
	case OpNe:
		return !equal(left, right), nil
	case OpIncludes:
		return includes(left, right), nil
	case OpIntersects:
		return intersects(left, right), nil
	}

	c, ok := compare(left, right)
	if !ok {
		return false, nil
	}
	switch b.Op {
	case OpGt:
		return c > 0, nil
	case OpGe:
		return c >= 0, nil
	case OpLt:
		return c < 0, nil
	default:
		return c <= 0, nil
	}
}

func evalArith(a Arith, ctx map[string]any) (any, error) {
	if _, ok := arithOps[a.Op]; !ok {
		return nil, &UnknownOperatorError{Kind: KindArith, Op: a.Op}
	}
	lv, err := Eval(a.Left, ctx)
	if err != nil {
		return nil, err
	}
	rv, err := Eval(a.Right, ctx)
	if err != nil {
		return nil, err
	}
	l, ok := ToFloat(lv)
	if !ok {
		return nil, fmt.Errorf("%s left operand %v: %w", a.Op, lv, ErrNotNumeric)
	}
	r, ok := ToFloat(rv)
	if !ok {
		return nil, fmt.Errorf("%s right operand %v: %w", a.Op, rv, ErrNotNumeric)
	}

	switch a.Op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	default:
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return l / r, nil
	}
}

func evalAggregate(a Aggregate, ctx map[string]any) (any, error) {
	if _, ok := aggregateFuncs[a.Func]; !ok {
		return nil, &UnknownOperatorError{Kind: KindAggregate, Op: a.Func}
	}

	items, err := Records(ctx[a.SourceName()])
	if err != nil {
		return nil, fmt.Errorf("aggregate %s over %q: %w", a.Func, a.SourceName(), err)
	}

	matched := items
	if a.Filter != nil {
		matched = make([]map[string]any, 0, len(items))
		for _, item := range items {
			ok, err := EvalBool(a.Filter, item)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, item)
			}
		}
	}

	switch a.Func {
	case FuncCount:
		return float64(len(matched)), nil
	case FuncSum:
		total := 0.0
		for _, item := range matched {
			f, ok := ToFloat(item[a.Field])
			if !ok {
				return nil, fmt.Errorf("sum of %q: %w", a.Field, ErrNotNumeric)
			}
			total += f
		}
		return total, nil
	}

	// min / max
	if len(matched) == 0 {
		return nil, nil
	}
	var (
		best  float64
		ties  []map[string]any
		found bool
	)
	for _, item := range matched {
		f, ok := ToFloat(item[a.Field])
		if !ok {
			continue
		}
		better := !found ||
			(a.Func == FuncMin && f < best) ||
			(a.Func == FuncMax && f > best)
		switch {
		case better:
			best, found = f, true
			ties = []map[string]any{item}
		case f == best:
			ties = append(ties, item)
		}
	}
	if !found {
		return nil, nil
	}

	switch a.ReturnField {
	case "":
		return best, nil
	case WildcardField:
		return ties, nil
	default:
		return ties[0][a.ReturnField], nil
	}
}

// Records converts a collection value into a list of records. nil is an
// empty collection.
func Records(v any) ([]map[string]any, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return c, nil
	case []any:
		out := make([]map[string]any, 0, len(c))
		for _, e := range c {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, ErrNotCollection
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, ErrNotCollection
	}
}

// Truthy follows the usual rules: false, nil, zero numbers, empty strings
// and empty collections are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := ToFloat(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// ToFloat converts numeric values (including json.Number) to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func compare(a, b any) (int, bool) {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func includes(container, item any) bool {
	if s, ok := container.(string); ok {
		if s == "" {
			return false
		}
		sub, ok := item.(string)
		return ok && strings.Contains(s, sub)
	}

	elems := elements(container)
	if len(elems) == 0 {
		return false
	}
	wanted := elements(item)
	if wanted == nil {
		wanted = []any{item}
	}
	for _, w := range wanted {
		found := false
		for _, e := range elems {
			if equal(e, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func intersects(a, b any) bool {
	left := elements(a)
	right := elements(b)
	if left == nil {
		if a == nil {
			return false
		}
		left = []any{a}
	}
	if right == nil {
		if b == nil {
			return false
		}
		right = []any{b}
	}
	for _, l := range left {
		for _, r := range right {
			if equal(l, r) {
				return true
			}
		}
	}
	return false
}

// elements returns the items of a slice value, or nil when v is not a slice.
func elements(v any) []any {
	switch x := v.(type) {
	case nil, string:
		return nil
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
