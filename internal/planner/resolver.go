// internal/planner/resolver.go
package planner

import (
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
)

// dayTerms are the linear building blocks of one day. Every field is a sum
// of them.
type dayTerms struct {
	attractionCount milp.LinExpr
	restaurantCount milp.LinExpr
	hotelCount      milp.LinExpr

	attractionTime milp.LinExpr
	restaurantTime milp.LinExpr
	queueTime      milp.LinExpr
	transportTime  milp.LinExpr
	intercityTime  milp.LinExpr

	attractionCost milp.LinExpr
	restaurantCost milp.LinExpr
	hotelCost      milp.LinExpr
	transportCost  milp.LinExpr
	intercityCost  milp.LinExpr
}

func (t dayTerms) totalTime() milp.LinExpr {
	return milp.Sum(t.attractionTime, t.restaurantTime, t.queueTime, t.transportTime)
}

func (t dayTerms) totalCost() milp.LinExpr {
	return milp.Sum(t.attractionCost, t.restaurantCost, t.hotelCost, t.transportCost, t.intercityCost)
}

// Resolver maps canonical field names to linear expressions over the
// program's decision variables.
type Resolver struct {
	days    []dayTerms
	people  float64
	budget  float64
	numDays float64
}

type resolveFunc func(r *Resolver, day int) milp.LinExpr

func perDay(f func(t dayTerms) milp.LinExpr) resolveFunc {
	return func(r *Resolver, day int) milp.LinExpr { return f(r.days[day]) }
}

func overTrip(f func(t dayTerms) milp.LinExpr) resolveFunc {
	return func(r *Resolver, _ int) milp.LinExpr {
		var out milp.LinExpr
		for _, t := range r.days {
			out = out.Add(f(t))
		}
		return out
	}
}

func tripConstant(f func(r *Resolver) float64) resolveFunc {
	return func(r *Resolver, _ int) milp.LinExpr { return milp.Constant(f(r)) }
}

var resolvers = map[FieldKind]resolveFunc{
	NumAttractionsPerDay: perDay(func(t dayTerms) milp.LinExpr { return t.attractionCount }),
	NumRestaurantsPerDay: perDay(func(t dayTerms) milp.LinExpr { return t.restaurantCount }),
	NumHotelsPerDay:      perDay(func(t dayTerms) milp.LinExpr { return t.hotelCount }),

	DailyTotalTime:          perDay(dayTerms.totalTime),
	DailyQueueTime:          perDay(func(t dayTerms) milp.LinExpr { return t.queueTime }),
	DailyRestaurantTime:     perDay(func(t dayTerms) milp.LinExpr { return t.restaurantTime }),
	DailyAttractionTime:     perDay(func(t dayTerms) milp.LinExpr { return t.attractionTime }),
	DailyTransportationTime: perDay(func(t dayTerms) milp.LinExpr { return t.transportTime }),

	TotalActiveTime:             overTrip(dayTerms.totalTime),
	TotalQueueTime:              overTrip(func(t dayTerms) milp.LinExpr { return t.queueTime }),
	TotalRestaurantTime:         overTrip(func(t dayTerms) milp.LinExpr { return t.restaurantTime }),
	TotalAttractionTime:         overTrip(func(t dayTerms) milp.LinExpr { return t.attractionTime }),
	TotalTransportationTime:     overTrip(func(t dayTerms) milp.LinExpr { return t.transportTime }),
	IntercityTransportationTime: overTrip(func(t dayTerms) milp.LinExpr { return t.intercityTime }),

	DailyTotalCost:          perDay(dayTerms.totalCost),
	DailyAttractionCost:     perDay(func(t dayTerms) milp.LinExpr { return t.attractionCost }),
	DailyRestaurantCost:     perDay(func(t dayTerms) milp.LinExpr { return t.restaurantCost }),
	DailyHotelCost:          perDay(func(t dayTerms) milp.LinExpr { return t.hotelCost }),
	DailyTransportationCost: perDay(func(t dayTerms) milp.LinExpr { return t.transportCost }),

	TotalCost:                   overTrip(dayTerms.totalCost),
	TotalAttractionCost:         overTrip(func(t dayTerms) milp.LinExpr { return t.attractionCost }),
	TotalRestaurantCost:         overTrip(func(t dayTerms) milp.LinExpr { return t.restaurantCost }),
	TotalHotelCost:              overTrip(func(t dayTerms) milp.LinExpr { return t.hotelCost }),
	TotalTransportationCost:     overTrip(func(t dayTerms) milp.LinExpr { return t.transportCost }),
	IntercityTransportationCost: overTrip(func(t dayTerms) milp.LinExpr { return t.intercityCost }),

	PeopleNumber: tripConstant(func(r *Resolver) float64 { return r.people }),
	Budget:       tripConstant(func(r *Resolver) float64 { return r.budget }),
	Days:         tripConstant(func(r *Resolver) float64 { return r.numDays }),
}

func newResolver(p *Program) *Resolver {
	set := p.Set
	paid := float64(set.PaidTravelers())
	rooms := float64(set.RoomsPerNight)

	r := &Resolver{
		days:    make([]dayTerms, len(p.days)),
		people:  float64(set.Travelers),
		budget:  p.Request.Budget,
		numDays: float64(len(p.days)),
	}

	for i, d := range p.days {
		t := &r.days[i]
		for _, a := range d.Attractions {
			t.attractionCount = t.attractionCount.AddTerm(a.Sel, 1)
			t.attractionTime = t.attractionTime.AddTerm(a.Sel, a.Item.Duration)
			t.attractionCost = t.attractionCost.AddTerm(a.Sel, a.Item.Cost*paid)
		}
		for _, rs := range d.Restaurants {
			t.restaurantCount = t.restaurantCount.AddTerm(rs.Sel, 1)
			t.restaurantTime = t.restaurantTime.AddTerm(rs.Sel, rs.Item.Duration)
			t.queueTime = t.queueTime.AddTerm(rs.Sel, rs.Item.QueueTime)
			t.restaurantCost = t.restaurantCost.AddTerm(rs.Sel, rs.Item.Cost*paid)
		}
		for _, h := range d.Hotels {
			t.hotelCount = t.hotelCount.AddTerm(h.Sel, 1)
			// No night is paid on the last day or when leaving the city.
			if !d.Last && !d.Transfer {
				t.hotelCost = t.hotelCost.AddTerm(h.Sel, h.Item.Cost*rooms)
			}
		}
		t.transportTime = d.TransportTime
		t.transportCost = d.TransportCost
	}

	for _, leg := range p.legs {
		if leg.Day < 0 || leg.Day >= len(r.days) {
			continue
		}
		t := &r.days[leg.Day]
		for _, o := range leg.Options {
			t.intercityCost = t.intercityCost.AddTerm(o.Sel, o.Option.Cost*r.people)
			t.intercityTime = t.intercityTime.AddTerm(o.Sel, o.Option.Duration)
		}
	}
	return r
}

// Days is the number of trip days the resolver covers.
func (r *Resolver) Days() int { return len(r.days) }

// Field returns the expression of kind. day is 1-based and ignored for
// trip-level kinds.
func (r *Resolver) Field(kind FieldKind, day int) (milp.LinExpr, error) {
	f, ok := resolvers[kind]
	if !ok {
		return milp.LinExpr{}, &FieldError{Field: kind.String(), Err: ErrUnknownField}
	}
	if kind.IsDaily() {
		if day < 1 || day > len(r.days) {
			return milp.LinExpr{}, &FieldError{Field: kind.String(), Err: ErrMissingDay}
		}
		return f(r, day-1), nil
	}
	return f(r, 0), nil
}

// Resolve looks up a field by name. day is 1-based; 0 means the caller
// has no day in scope.
func (r *Resolver) Resolve(name string, day int) (milp.LinExpr, error) {
	kind, ok := ParseFieldKind(name)
	if !ok {
		return milp.LinExpr{}, &FieldError{Field: name, Err: ErrUnknownField}
	}
	return r.Field(kind, day)
}

// Value evaluates a field at a solution.
func (r *Resolver) Value(kind FieldKind, day int, values []float64) (float64, error) {
	e, err := r.Field(kind, day)
	if err != nil {
		return 0, err
	}
	return e.Eval(values), nil
}
