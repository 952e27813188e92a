// internal/trip/constraints.go
package trip

import (
	"strings"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
)

type TransportPreference string

const (
	PreferPublicTransit TransportPreference = "public_transit"
	PreferTaxi          TransportPreference = "taxi"
	PreferUnconstrained TransportPreference = "unconstrained"
)

const (
	DefaultAttractionsPerDay = 1
	DefaultRestaurantsPerDay = 3
	DefaultHotelsPerDay      = 1
	DefaultDailyTimeCap      = 840.0
	DefaultSeatsPerVehicle   = 4
	DefaultRoomsPerNight     = 1
)

// ConstraintSet holds the dynamic constraints of one trip. Scalar fields
// configure the structural model; each Expr field is a constraint over the
// aggregate named in its Bound field (see Rules). A bare number in an Expr
// field is shorthand for "<bound field> <= number" ("==" for counts).
type ConstraintSet struct {
	Travelers        int                            `json:"travelers,omitempty"`
	Children         int                            `json:"children,omitempty"`
	RoomsPerNight    int                            `json:"rooms_per_night,omitempty"`
	SeatsPerVehicle  int                            `json:"seats_per_vehicle,omitempty"`
	Transport        map[string]TransportPreference `json:"transport_preference,omitempty"`
	AllowHotelChange bool                           `json:"allow_hotel_change,omitempty"`

	AttractionsPerDay int     `json:"attractions_per_day,omitempty"`
	RestaurantsPerDay int     `json:"restaurants_per_day,omitempty"`
	HotelsPerDay      int     `json:"hotels_per_day,omitempty"`
	DailyTimeCap      float64 `json:"daily_time_cap,omitempty"`

	AttractionCount expr.Expr `json:"attraction_count,omitzero"`
	RestaurantCount expr.Expr `json:"restaurant_count,omitzero"`
	HotelCount      expr.Expr `json:"hotel_count,omitzero"`

	DailyActiveTime         expr.Expr `json:"daily_active_time,omitzero"`
	TotalActiveTime         expr.Expr `json:"total_active_time,omitzero"`
	DailyQueueTime          expr.Expr `json:"daily_queue_time,omitzero"`
	TotalQueueTime          expr.Expr `json:"total_queue_time,omitzero"`
	DailyRestaurantTime     expr.Expr `json:"daily_restaurant_time,omitzero"`
	TotalRestaurantTime     expr.Expr `json:"total_restaurant_time,omitzero"`
	DailyTransportationTime expr.Expr `json:"daily_transportation_time,omitzero"`
	TotalTransportationTime expr.Expr `json:"total_transportation_time,omitzero"`

	DailyBudget               expr.Expr `json:"daily_budget,omitzero"`
	TotalBudget               expr.Expr `json:"total_budget,omitzero"`
	DailyMealBudget           expr.Expr `json:"daily_meal_budget,omitzero"`
	TotalMealBudget           expr.Expr `json:"total_meal_budget,omitzero"`
	DailyAttractionBudget     expr.Expr `json:"daily_attraction_budget,omitzero"`
	TotalAttractionBudget     expr.Expr `json:"total_attraction_budget,omitzero"`
	DailyHotelBudget          expr.Expr `json:"daily_hotel_budget,omitzero"`
	TotalHotelBudget          expr.Expr `json:"total_hotel_budget,omitzero"`
	DailyTransportationBudget expr.Expr `json:"daily_transportation_budget,omitzero"`
	TotalTransportationBudget expr.Expr `json:"total_transportation_budget,omitzero"`

	// Extension holds constraints outside the fixed schema, in the textual
	// syntax, separated by ';' or newlines. They are applied best-effort.
	Extension string `json:"extension,omitempty"`
}

// Rule is one populated Expr field of a ConstraintSet.
type Rule struct {
	Name  string
	Bound string
	Node  expr.Node
}

// Defaults returns a copy with unset scalars filled in from the request.
func (c ConstraintSet) Defaults(req Request) ConstraintSet {
	if c.Travelers <= 0 {
		c.Travelers = req.Travelers
	}
	if c.Children <= 0 {
		c.Children = req.Children
	}
	if c.Children > c.Travelers {
		c.Children = c.Travelers
	}
	if c.RoomsPerNight <= 0 {
		c.RoomsPerNight = DefaultRoomsPerNight
	}
	if c.SeatsPerVehicle <= 0 {
		c.SeatsPerVehicle = DefaultSeatsPerVehicle
	}
	if c.AttractionsPerDay <= 0 {
		c.AttractionsPerDay = DefaultAttractionsPerDay
	}
	if c.RestaurantsPerDay <= 0 {
		c.RestaurantsPerDay = DefaultRestaurantsPerDay
	}
	if c.HotelsPerDay <= 0 {
		c.HotelsPerDay = DefaultHotelsPerDay
	}
	if c.DailyTimeCap <= 0 {
		c.DailyTimeCap = DefaultDailyTimeCap
	}
	return c
}

// PaidTravelers is the number of travelers charged for POI entry.
func (c ConstraintSet) PaidTravelers() int {
	n := c.Travelers - c.Children
	if n < 0 {
		return 0
	}
	return n
}

// PreferenceFor returns the transport preference configured for city.
func (c ConstraintSet) PreferenceFor(city string) TransportPreference {
	if p, ok := c.Transport[city]; ok && p != "" {
		return p
	}
	return PreferUnconstrained
}

// Rules lists the populated Expr fields in declaration order, with bare
// numbers expanded into comparisons against the bound field.
func (c ConstraintSet) Rules() []Rule {
	fields := []struct {
		name, bound string
		e           expr.Expr
	}{
		{"attraction_count", "num_attractions_per_day", c.AttractionCount},
		{"restaurant_count", "num_restaurants_per_day", c.RestaurantCount},
		{"hotel_count", "num_hotels_per_day", c.HotelCount},
		{"daily_active_time", "daily_total_time", c.DailyActiveTime},
		{"total_active_time", "total_active_time", c.TotalActiveTime},
		{"daily_queue_time", "daily_queue_time", c.DailyQueueTime},
		{"total_queue_time", "total_queue_time", c.TotalQueueTime},
		{"daily_restaurant_time", "daily_total_restaurant_time", c.DailyRestaurantTime},
		{"total_restaurant_time", "total_restaurant_time", c.TotalRestaurantTime},
		{"daily_transportation_time", "daily_transportation_time", c.DailyTransportationTime},
		{"total_transportation_time", "total_transportation_time", c.TotalTransportationTime},
		{"daily_budget", "daily_total_cost", c.DailyBudget},
		{"total_budget", "total_cost", c.TotalBudget},
		{"daily_meal_budget", "daily_total_restaurant_cost", c.DailyMealBudget},
		{"total_meal_budget", "total_restaurant_cost", c.TotalMealBudget},
		{"daily_attraction_budget", "daily_total_attraction_cost", c.DailyAttractionBudget},
		{"total_attraction_budget", "total_attraction_cost", c.TotalAttractionBudget},
		{"daily_hotel_budget", "daily_total_hotel_cost", c.DailyHotelBudget},
		{"total_hotel_budget", "total_hotel_cost", c.TotalHotelBudget},
		{"daily_transportation_budget", "daily_total_transportation_cost", c.DailyTransportationBudget},
		{"total_transportation_budget", "total_transportation_cost", c.TotalTransportationBudget},
	}

	var out []Rule
	for _, f := range fields {
		if f.e.IsZero() {
			continue
		}
		out = append(out, Rule{Name: f.name, Bound: f.bound, Node: shorthand(f.bound, f.e.Node)})
	}
	return out
}

// Rule returns the populated rule with the given name.
func (c ConstraintSet) Rule(name string) (Rule, bool) {
	for _, r := range c.Rules() {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func shorthand(bound string, n expr.Node) expr.Node {
	lit, ok := n.(expr.Literal)
	if !ok {
		return n
	}
	if _, numeric := expr.ToFloat(lit.Value); !numeric {
		return n
	}
	op := expr.OpLe
	if strings.HasPrefix(bound, "num_") {
		op = expr.OpEq
	}
	return expr.BinaryOp{Op: op, Left: expr.NewField(bound), Right: lit}
}
