// internal/trip/request.go
package trip

import (
	"errors"
	"fmt"
	"time"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
)

const DateLayout = "2006-01-02"

var ErrInvalidRequest = errors.New("invalid trip request")

// Request is the structured description of one trip.
type Request struct {
	StartDate string  `json:"start_date"`
	Travelers int     `json:"travelers"`
	Children  int     `json:"children,omitempty"`
	Stages    []Stage `json:"stages"`
	// Budget caps total_cost; 0 means unconstrained.
	Budget float64 `json:"budget,omitempty"`

	DepartureFilter expr.Expr `json:"departure_filter,omitzero"`
	ReturnFilter    expr.Expr `json:"return_filter,omitzero"`
	TransferFilter  expr.Expr `json:"transfer_filter,omitzero"`
}

// Stage is one leg of the trip: travel from Origin to Destination and stay
// there for Days days.
type Stage struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Days        int    `json:"days"`

	AttractionFilter    expr.Expr `json:"attraction_filter,omitzero"`
	AccommodationFilter expr.Expr `json:"accommodation_filter,omitzero"`
	RestaurantFilter    expr.Expr `json:"restaurant_filter,omitzero"`
}

// Window is an inclusive, 1-based day range.
type Window struct {
	Start int `json:"start_stage"`
	End   int `json:"end_stage"`
}

func (w Window) Contains(day int) bool {
	return day >= w.Start && day <= w.End
}

func (w Window) IsZero() bool { return w.Start == 0 && w.End == 0 }

func (r Request) Validate() error {
	if len(r.Stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrInvalidRequest)
	}
	if r.Travelers < 1 {
		return fmt.Errorf("%w: travelers must be >= 1", ErrInvalidRequest)
	}
	if r.Children < 0 || r.Children > r.Travelers {
		return fmt.Errorf("%w: children must be between 0 and travelers", ErrInvalidRequest)
	}
	if r.Budget < 0 {
		return fmt.Errorf("%w: budget must be >= 0", ErrInvalidRequest)
	}
	if _, err := time.Parse(DateLayout, r.StartDate); err != nil {
		return fmt.Errorf("%w: start_date: %v", ErrInvalidRequest, err)
	}
	for i, s := range r.Stages {
		if s.Destination == "" {
			return fmt.Errorf("%w: stage %d has no destination", ErrInvalidRequest, i)
		}
		if s.Days < 1 {
			return fmt.Errorf("%w: stage %d must last at least one day", ErrInvalidRequest, i)
		}
	}
	return nil
}

func (r Request) TotalDays() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Days
	}
	return n
}

// StageWindows returns the day range covered by each stage. Stages are
// consecutive: the last day of stage s is its transfer day.
func (r Request) StageWindows() []Window {
	out := make([]Window, len(r.Stages))
	start := 1
	for i, s := range r.Stages {
		out[i] = Window{Start: start, End: start + s.Days - 1}
		start += s.Days
	}
	return out
}

// StageOf returns the index of the stage covering day, or -1.
func (r Request) StageOf(day int) int {
	for i, w := range r.StageWindows() {
		if w.Contains(day) {
			return i
		}
	}
	return -1
}

// IsTransferDay reports whether day ends a stage that is followed by another.
func (r Request) IsTransferDay(day int) bool {
	windows := r.StageWindows()
	for i := 0; i < len(windows)-1; i++ {
		if windows[i].End == day {
			return true
		}
	}
	return false
}

// PayingTravelers is the number of travelers charged for entry tickets.
func (r Request) PayingTravelers() int {
	n := r.Travelers - r.Children
	if n < 0 {
		return 0
	}
	return n
}

// Date returns the calendar date of a 1-based day.
func (r Request) Date(day int) string {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return ""
	}
	return start.AddDate(0, 0, day-1).Format(DateLayout)
}

func (r Request) EndDate() string {
	return r.Date(r.TotalDays())
}

// Home is the city the trip starts from and returns to.
func (r Request) Home() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[0].Origin
}
