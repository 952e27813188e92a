// internal/planner/fields.go
package planner

import (
	"fmt"
	"strings"
)

// FieldKind is a canonical aggregate that constraints may refer to by name.
type FieldKind int

const (
	FieldUnknown FieldKind = iota

	NumAttractionsPerDay
	NumRestaurantsPerDay
	NumHotelsPerDay

	DailyTotalTime
	DailyQueueTime
	DailyRestaurantTime
	DailyAttractionTime
	DailyTransportationTime

	TotalActiveTime
	TotalQueueTime
	TotalRestaurantTime
	TotalAttractionTime
	TotalTransportationTime
	IntercityTransportationTime

	DailyTotalCost
	DailyAttractionCost
	DailyRestaurantCost
	DailyHotelCost
	DailyTransportationCost

	TotalCost
	TotalAttractionCost
	TotalRestaurantCost
	TotalHotelCost
	TotalTransportationCost
	IntercityTransportationCost

	PeopleNumber
	Budget
	Days

	fieldKindEnd
)

var fieldNames = map[FieldKind]string{
	NumAttractionsPerDay: "num_attractions_per_day",
	NumRestaurantsPerDay: "num_restaurants_per_day",
	NumHotelsPerDay:      "num_hotels_per_day",

	DailyTotalTime:          "daily_total_time",
	DailyQueueTime:          "daily_queue_time",
	DailyRestaurantTime:     "daily_total_restaurant_time",
	DailyAttractionTime:     "daily_total_attraction_time",
	DailyTransportationTime: "daily_transportation_time",

	TotalActiveTime:             "total_active_time",
	TotalQueueTime:              "total_queue_time",
	TotalRestaurantTime:         "total_restaurant_time",
	TotalAttractionTime:         "total_attraction_time",
	TotalTransportationTime:     "total_transportation_time",
	IntercityTransportationTime: "intercity_transportation_time",

	DailyTotalCost:          "daily_total_cost",
	DailyAttractionCost:     "daily_total_attraction_cost",
	DailyRestaurantCost:     "daily_total_restaurant_cost",
	DailyHotelCost:          "daily_total_hotel_cost",
	DailyTransportationCost: "daily_total_transportation_cost",

	TotalCost:                   "total_cost",
	TotalAttractionCost:         "total_attraction_cost",
	TotalRestaurantCost:         "total_restaurant_cost",
	TotalHotelCost:              "total_hotel_cost",
	TotalTransportationCost:     "total_transportation_cost",
	IntercityTransportationCost: "intercity_transportation_cost",

	PeopleNumber: "people_number",
	Budget:       "budget",
	Days:         "days",
}

var fieldsByName = func() map[string]FieldKind {
	out := make(map[string]FieldKind, len(fieldNames))
	for k, n := range fieldNames {
		out[n] = k
	}
	return out
}()

func (k FieldKind) String() string {
	if n, ok := fieldNames[k]; ok {
		return n
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// ParseFieldKind maps a field name to its kind. Names are case-insensitive.
func ParseFieldKind(name string) (FieldKind, bool) {
	k, ok := fieldsByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// FieldKinds lists every canonical field.
func FieldKinds() []FieldKind {
	out := make([]FieldKind, 0, len(fieldNames))
	for k := FieldUnknown + 1; k < fieldKindEnd; k++ {
		out = append(out, k)
	}
	return out
}

// IsDaily reports whether the field is evaluated for one day.
func (k FieldKind) IsDaily() bool {
	switch k {
	case NumAttractionsPerDay, NumRestaurantsPerDay, NumHotelsPerDay,
		DailyTotalTime, DailyQueueTime, DailyRestaurantTime, DailyAttractionTime, DailyTransportationTime,
		DailyTotalCost, DailyAttractionCost, DailyRestaurantCost, DailyHotelCost, DailyTransportationCost:
		return true
	}
	return false
}
