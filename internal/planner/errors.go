package planner

import (
	"errors"
	"fmt"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrMissingDay    = errors.New("daily field used without a day")
	ErrNonlinear     = errors.New("constraint is not linear")
	ErrUnknownSource = errors.New("unknown aggregate source")
	ErrBrokenRoute   = errors.New("selected arcs do not form a single route")
)

// FieldError names the field and rule that failed to resolve.
type FieldError struct {
	Rule  string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("rule %s: field %q: %v", e.Rule, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by the request or constraint
// documents rather than by solving.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	var fe *trip.FilterError
	switch {
	case errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrMissingDay),
		errors.Is(err, ErrNonlinear),
		errors.Is(err, ErrUnknownSource),
		errors.Is(err, expr.ErrUnknownOperator),
		errors.Is(err, expr.ErrUnknownNode),
		errors.Is(err, expr.ErrMissingOperand),
		errors.Is(err, expr.ErrDivisionByZero),
		errors.Is(err, expr.ErrNotNumeric),
		errors.Is(err, trip.ErrInvalidRequest),
		errors.As(err, &fe):
		return true
	}
	return false
}
