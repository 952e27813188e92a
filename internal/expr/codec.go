// internal/expr/codec.go
package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Marshal encodes n as a structurally tagged record: {"type": <kind>, ...}.
func Marshal(n Node) ([]byte, error) {
	rec, err := toRecord(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Unmarshal decodes a tagged record produced by Marshal. Every operator is
// validated through the New* constructors.
func Unmarshal(data []byte) (Node, error) {
	var w wireNode
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	return fromWire(w)
}

type wireNode struct {
	Type        Kind            `json:"type"`
	Value       json.RawMessage `json:"value"`
	Name        string          `json:"name"`
	Op          string          `json:"op"`
	Left        json.RawMessage `json:"left"`
	Right       json.RawMessage `json:"right"`
	Operand     json.RawMessage `json:"operand"`
	Func        string          `json:"func"`
	Field       string          `json:"field"`
	ReturnField string          `json:"return_field"`
	Filter      json.RawMessage `json:"filter"`
	Source      string          `json:"source"`
}

func toRecord(n Node) (map[string]any, error) {
	switch v := n.(type) {
	case Literal:
		return map[string]any{"type": KindLiteral, "value": v.Value}, nil
	case Field:
		return map[string]any{"type": KindField, "name": v.Name}, nil
	case BinaryOp:
		return pair(KindBinary, v.Op, v.Left, v.Right)
	case Arith:
		return pair(KindArith, v.Op, v.Left, v.Right)
	case UnaryOp:
		operand, err := toRecord(v.Operand)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": KindUnary, "op": v.Op, "operand": operand}, nil
	case Aggregate:
		rec := map[string]any{
			"type":         KindAggregate,
			"func":         v.Func,
			"field":        v.Field,
			"return_field": v.ReturnField,
		}
		if v.Source != "" {
			rec["source"] = v.Source
		}
		if v.Filter != nil {
			filter, err := toRecord(v.Filter)
			if err != nil {
				return nil, err
			}
			rec["filter"] = filter
		}
		return rec, nil
	case nil:
		return nil, ErrMissingOperand
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownNode, n)
	}
}

func pair(kind Kind, op string, left, right Node) (map[string]any, error) {
	l, err := toRecord(left)
	if err != nil {
		return nil, err
	}
	r, err := toRecord(right)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type": kind, "op": op, "left": l, "right": r}, nil
}

func fromWire(w wireNode) (Node, error) {
	switch w.Type {
	case KindLiteral:
		var v any
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &v); err != nil {
				return nil, fmt.Errorf("literal value: %w", err)
			}
		}
		return NewLiteral(v), nil
	case KindField:
		if w.Name == "" {
			return nil, fmt.Errorf("field node without name")
		}
		return NewField(w.Name), nil
	case KindBinary, KindArith:
		left, err := child(w.Left)
		if err != nil {
			return nil, fmt.Errorf("%s left: %w", w.Type, err)
		}
		right, err := child(w.Right)
		if err != nil {
			return nil, fmt.Errorf("%s right: %w", w.Type, err)
		}
		if w.Type == KindBinary {
			return NewBinaryOp(w.Op, left, right)
		}
		return NewArith(w.Op, left, right)
	case KindUnary:
		operand, err := child(w.Operand)
		if err != nil {
			return nil, fmt.Errorf("unary operand: %w", err)
		}
		return NewUnaryOp(w.Op, operand)
	case KindAggregate:
		var filter Node
		if len(w.Filter) > 0 && !isNull(w.Filter) {
			f, err := child(w.Filter)
			if err != nil {
				return nil, fmt.Errorf("aggregate filter: %w", err)
			}
			filter = f
		}
		agg, err := NewAggregate(w.Func, w.Field, w.ReturnField, filter)
		if err != nil {
			return nil, err
		}
		return agg.From(w.Source), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, w.Type)
	}
}

func child(raw json.RawMessage) (Node, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, ErrMissingOperand
	}
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return fromWire(w)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Expr embeds an optional expression in JSON documents. It accepts a tagged
// record, a string in the textual syntax understood by Parse, or a bare
// literal.
type Expr struct {
	Node Node
}

// Of wraps n.
func Of(n Node) Expr { return Expr{Node: n} }

func (e Expr) IsZero() bool { return e.Node == nil }

func (e Expr) MarshalJSON() ([]byte, error) {
	if e.Node == nil {
		return []byte("null"), nil
	}
	return Marshal(e.Node)
}

func (e *Expr) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isNull(trimmed) {
		e.Node = nil
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			e.Node = nil
			return nil
		}
		n, err := Parse(text)
		if err != nil {
			return err
		}
		e.Node = n
		return nil
	}
	if trimmed[0] != '{' {
		// Bare scalars and arrays are literals.
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		e.Node = NewLiteral(v)
		return nil
	}
	n, err := Unmarshal(trimmed)
	if err != nil {
		return err
	}
	e.Node = n
	return nil
}
