// internal/expr/node.go
package expr

// Kind is the structural tag of a node; it is also the "type" key of the
// serialized form.
type Kind string

const (
	KindLiteral   Kind = "literal"
	KindField     Kind = "field"
	KindBinary    Kind = "binary_op"
	KindUnary     Kind = "unary_op"
	KindArith     Kind = "arith"
	KindAggregate Kind = "aggregate"
)

// Node is one element of a constraint expression tree. The set of
// implementations is closed: Literal, Field, BinaryOp, UnaryOp, Arith and
// Aggregate. Nodes are values and are never mutated after construction.
type Node interface {
	Kind() Kind
	isNode()
}

// DefaultSource is the context key aggregates read when no source is given.
const DefaultSource = "global"

// WildcardField makes min/max return every tied record instead of a projection.
const WildcardField = "*"

type Literal struct {
	Value any
}

type Field struct {
	Name string
}

type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
}

type UnaryOp struct {
	Op      string
	Operand Node
}

type Arith struct {
	Op    string
	Left  Node
	Right Node
}

// Aggregate folds the collection stored under Source (DefaultSource when
// empty). Filter, when set, is evaluated against each item.
type Aggregate struct {
	Func        string
	Field       string
	ReturnField string
	Filter      Node
	Source      string
}

func (Literal) Kind() Kind   { return KindLiteral }
func (Field) Kind() Kind     { return KindField }
func (BinaryOp) Kind() Kind  { return KindBinary }
func (UnaryOp) Kind() Kind   { return KindUnary }
func (Arith) Kind() Kind     { return KindArith }
func (Aggregate) Kind() Kind { return KindAggregate }

func (Literal) isNode()   {}
func (Field) isNode()     {}
func (BinaryOp) isNode()  {}
func (UnaryOp) isNode()   {}
func (Arith) isNode()     {}
func (Aggregate) isNode() {}

// SourceName returns the context key the aggregate reads.
func (a Aggregate) SourceName() string {
	if a.Source == "" {
		return DefaultSource
	}
	return a.Source
}

// Comparison, logical and membership operators accepted by BinaryOp.
const (
	OpEq         = "=="
	OpNe         = "!="
	OpGt         = ">"
	OpGe         = ">="
	OpLt         = "<"
	OpLe         = "<="
	OpAnd        = "and"
	OpOr         = "or"
	OpIncludes   = "includes"
	OpIntersects = "intersects"
	OpNot        = "not"
)

const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
)

const (
	FuncSum   = "sum"
	FuncMin   = "min"
	FuncMax   = "max"
	FuncCount = "count"
)

var binaryOps = map[string]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGe: {}, OpLt: {}, OpLe: {},
	OpAnd: {}, OpOr: {}, OpIncludes: {}, OpIntersects: {},
}

var arithOps = map[string]struct{}{OpAdd: {}, OpSub: {}, OpMul: {}, OpDiv: {}}

var aggregateFuncs = map[string]struct{}{FuncSum: {}, FuncMin: {}, FuncMax: {}, FuncCount: {}}

// IsComparison reports whether op is one of the six relational operators.
func IsComparison(op string) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

func NewLiteral(v any) Literal {
	return Literal{Value: normalize(v)}
}

func NewField(name string) Field {
	return Field{Name: name}
}

func NewBinaryOp(op string, left, right Node) (BinaryOp, error) {
	if _, ok := binaryOps[op]; !ok {
		return BinaryOp{}, &UnknownOperatorError{Kind: KindBinary, Op: op}
	}
	if left == nil || right == nil {
		return BinaryOp{}, ErrMissingOperand
	}
	return BinaryOp{Op: op, Left: left, Right: right}, nil
}

func NewUnaryOp(op string, operand Node) (UnaryOp, error) {
	if op != OpNot {
		return UnaryOp{}, &UnknownOperatorError{Kind: KindUnary, Op: op}
	}
	if operand == nil {
		return UnaryOp{}, ErrMissingOperand
	}
	return UnaryOp{Op: op, Operand: operand}, nil
}

func NewArith(op string, left, right Node) (Arith, error) {
	if _, ok := arithOps[op]; !ok {
		return Arith{}, &UnknownOperatorError{Kind: KindArith, Op: op}
	}
	if left == nil || right == nil {
		return Arith{}, ErrMissingOperand
	}
	return Arith{Op: op, Left: left, Right: right}, nil
}

func NewAggregate(fn, field, returnField string, filter Node) (Aggregate, error) {
	if _, ok := aggregateFuncs[fn]; !ok {
		return Aggregate{}, &UnknownOperatorError{Kind: KindAggregate, Op: fn}
	}
	if fn != FuncCount && field == "" {
		return Aggregate{}, ErrMissingField
	}
	return Aggregate{Func: fn, Field: field, ReturnField: returnField, Filter: filter}, nil
}

// From returns a copy of a reading its items from the given context key.
func (a Aggregate) From(source string) Aggregate {
	a.Source = source
	return a
}

// normalize maps Go numbers to float64 and string slices to []any so that a
// literal is identical to its JSON round trip.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
