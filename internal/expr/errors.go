package expr

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrMissingOperand  = errors.New("missing operand")
	ErrMissingField    = errors.New("aggregate requires a field")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNotCollection   = errors.New("value is not a collection of records")
	ErrUnknownNode     = errors.New("unknown node type")
)

// UnknownOperatorError carries the offending operator; it matches
// ErrUnknownOperator with errors.Is.
type UnknownOperatorError struct {
	Kind Kind
	Op   string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("%s: unknown operator %q", e.Kind, e.Op)
}

func (e *UnknownOperatorError) Is(target error) bool {
	return target == ErrUnknownOperator
}
