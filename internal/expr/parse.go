// internal/expr/parse.go
package expr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

var ErrUnsupportedSyntax = errors.New("unsupported syntax")

// Parse compiles the textual constraint syntax into a Node tree. The grammar
// is expr-lang's; only the subset that maps onto the closed node set is
// accepted:
//
//	daily_total_cost <= 500 and not (daily_queue_time > 60)
//	recommended_food contains "duck" or rating >= 4.8
//	count(restaurants, .rating >= 4.8) >= 1
//	sum(filter(attractions, .type == "museum"), "cost") <= 200
//	max(accommodations, "rating", "*")
func Parse(text string) (Node, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty expression")
	}
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", text, err)
	}
	n, err := convert(tree.Node)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %q: %w", text, err)
	}
	return n, nil
}

// MustParse is Parse for expressions known at compile time.
func MustParse(text string) Node {
	n, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return n
}

var binaryAliases = map[string]string{
	"&&":       OpAnd,
	"||":       OpOr,
	"contains": OpIncludes,
}

func convert(n ast.Node) (Node, error) {
	switch v := n.(type) {
	case *ast.NilNode:
		return NewLiteral(nil), nil
	case *ast.BoolNode:
		return NewLiteral(v.Value), nil
	case *ast.IntegerNode:
		return NewLiteral(v.Value), nil
	case *ast.FloatNode:
		return NewLiteral(v.Value), nil
	case *ast.StringNode:
		return NewLiteral(v.Value), nil
	case *ast.IdentifierNode:
		return NewField(v.Value), nil
	case *ast.ArrayNode:
		values := make([]any, 0, len(v.Nodes))
		for _, e := range v.Nodes {
			c, err := convert(e)
			if err != nil {
				return nil, err
			}
			lit, ok := c.(Literal)
			if !ok {
				return nil, fmt.Errorf("%w: array elements must be constants", ErrUnsupportedSyntax)
			}
			values = append(values, lit.Value)
		}
		return NewLiteral(values), nil
	case *ast.MemberNode:
		// .field inside a predicate refers to the current item.
		if _, ok := v.Node.(*ast.PointerNode); ok {
			if prop, ok := v.Property.(*ast.StringNode); ok {
				return NewField(prop.Value), nil
			}
		}
		return nil, fmt.Errorf("%w: member access", ErrUnsupportedSyntax)
	case *ast.UnaryNode:
		return convertUnary(v)
	case *ast.BinaryNode:
		return convertBinary(v)
	case *ast.BuiltinNode:
		return convertCall(v.Name, v.Arguments)
	case *ast.CallNode:
		callee, ok := v.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("%w: call target", ErrUnsupportedSyntax)
		}
		return convertCall(callee.Value, v.Arguments)
	}

	if body, ok := predicateBody(n); ok {
		return convert(body)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedSyntax, n)
}

func convertUnary(v *ast.UnaryNode) (Node, error) {
	operand, err := convert(v.Node)
	if err != nil {
		return nil, err
	}
	switch v.Operator {
	case "not", "!":
		return NewUnaryOp(OpNot, operand)
	case "-":
		if lit, ok := operand.(Literal); ok {
			if f, ok := ToFloat(lit.Value); ok {
				return NewLiteral(-f), nil
			}
		}
		return NewArith(OpSub, NewLiteral(0.0), operand)
	case "+":
		return operand, nil
	}
	return nil, &UnknownOperatorError{Kind: KindUnary, Op: v.Operator}
}

func convertBinary(v *ast.BinaryNode) (Node, error) {
	left, err := convert(v.Left)
	if err != nil {
		return nil, err
	}
	right, err := convert(v.Right)
	if err != nil {
		return nil, err
	}

	op := v.Operator
	if alias, ok := binaryAliases[op]; ok {
		op = alias
	}
	switch op {
	case "in":
		return NewBinaryOp(OpIncludes, right, left)
	case OpAdd, OpSub, OpMul, OpDiv:
		return NewArith(op, left, right)
	}
	return NewBinaryOp(op, left, right)
}

// convertCall maps aggregate and membership calls:
//
//	sum(src, "field")  count(src, pred)  min(src, "field"[, "return"])
//	includes(a, b)  intersects(a, b)
//
// where src is a collection name or filter(src, pred).
func convertCall(name string, args []ast.Node) (Node, error) {
	switch name {
	case OpIncludes, OpIntersects:
		if len(args) != 2 {
			return nil, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
		}
		a, err := convert(args[0])
		if err != nil {
			return nil, err
		}
		b, err := convert(args[1])
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(name, a, b)
	case FuncSum, FuncMin, FuncMax, FuncCount:
	default:
		return nil, fmt.Errorf("%w: function %q", ErrUnsupportedSyntax, name)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("%s expects a collection", name)
	}
	source, filter, err := collectionArg(args[0])
	if err != nil {
		return nil, err
	}

	var field, returnField string
	rest := args[1:]
	if name == FuncCount {
		if len(rest) > 1 {
			return nil, fmt.Errorf("count expects at most 2 arguments")
		}
		if len(rest) == 1 {
			pred, err := convert(rest[0])
			if err != nil {
				return nil, err
			}
			filter, err = conjoin(filter, pred)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if len(rest) == 0 || len(rest) > 2 {
			return nil, fmt.Errorf("%s expects a field and an optional return field", name)
		}
		field, err = fieldName(rest[0])
		if err != nil {
			return nil, err
		}
		if len(rest) == 2 {
			returnField, err = fieldName(rest[1])
			if err != nil {
				return nil, err
			}
		}
	}

	agg, err := NewAggregate(name, field, returnField, filter)
	if err != nil {
		return nil, err
	}
	return agg.From(source), nil
}

func collectionArg(n ast.Node) (string, Node, error) {
	switch v := n.(type) {
	case *ast.IdentifierNode:
		return v.Value, nil, nil
	case *ast.BuiltinNode:
		if v.Name == "filter" && len(v.Arguments) == 2 {
			source, inner, err := collectionArg(v.Arguments[0])
			if err != nil {
				return "", nil, err
			}
			pred, err := convert(v.Arguments[1])
			if err != nil {
				return "", nil, err
			}
			filter, err := conjoin(inner, pred)
			return source, filter, err
		}
	}
	return "", nil, fmt.Errorf("%w: aggregate source must be a collection name or filter(...)", ErrUnsupportedSyntax)
}

func fieldName(n ast.Node) (string, error) {
	if body, ok := predicateBody(n); ok {
		n = body
	}
	c, err := convert(n)
	if err != nil {
		return "", err
	}
	switch v := c.(type) {
	case Field:
		return v.Name, nil
	case Literal:
		if s, ok := v.Value.(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: expected a field name", ErrUnsupportedSyntax)
}

func conjoin(a, b Node) (Node, error) {
	if a == nil {
		return b, nil
	}
	return NewBinaryOp(OpAnd, a, b)
}

// predicateBody unwraps the node expr-lang uses for predicate arguments of
// builtins such as count and filter. The wrapper type has been renamed
// between releases, so it is matched by shape: a struct whose only
// meaningful field is Node.
func predicateBody(n ast.Node) (ast.Node, bool) {
	rv := reflect.ValueOf(n)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	name := rv.Elem().Type().Name()
	if name != "ClosureNode" && name != "PredicateNode" {
		return nil, false
	}
	f := rv.Elem().FieldByName("Node")
	if !f.IsValid() {
		return nil, false
	}
	body, ok := f.Interface().(ast.Node)
	return body, ok && body != nil
}

// Fields lists the distinct field names referenced by n, outside aggregate
// filters, in first-seen order.
func Fields(n Node) []string {
	seen := map[string]struct{}{}
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case Field:
			if _, ok := seen[v.Name]; !ok {
				seen[v.Name] = struct{}{}
				out = append(out, v.Name)
			}
		case BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case Arith:
			walk(v.Left)
			walk(v.Right)
		case UnaryOp:
			walk(v.Operand)
		}
	}
	walk(n)
	return out
}
