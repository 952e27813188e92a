// internal/planner/realized.go
package planner

import (
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// realize recomputes a day's costs and times from the chosen assignment:
// entry prices times paying travelers, the hotel night, and the transport
// legs hotel -> a1 -> ... -> ak -> hotel in the day's mode.
func realize(plan *trip.DayPlan, set trip.ConstraintSet, transport trip.TransportMatrix, last, transfer bool) {
	paid := float64(set.PaidTravelers())

	var c trip.CostBreakdown
	var t trip.TimeBreakdown
	for _, v := range plan.Attractions {
		c.Attractions += v.Cost * paid
		t.Attractions += v.Duration
	}
	for _, r := range plan.Restaurants() {
		c.Restaurants += r.Cost * paid
		t.Restaurants += r.Duration
		t.Queue += r.QueueTime
	}
	if plan.Hotel != nil && !last && !transfer {
		c.Hotel = plan.Hotel.Cost * float64(set.RoomsPerNight)
	}

	plan.Transport.Cost, plan.Transport.Duration = 0, 0
	if plan.Hotel != nil && len(plan.Attractions) > 0 {
		stops := []string{plan.Hotel.ID}
		for _, v := range plan.Attractions {
			stops = append(stops, v.ID)
		}
		stops = append(stops, plan.Hotel.ID)
		for i := 0; i+1 < len(stops); i++ {
			e, ok := transport.Lookup(stops[i], stops[i+1])
			if !ok {
				continue
			}
			lv := legFor(e, set.Travelers, set.SeatsPerVehicle)
			if plan.Transport.Mode == trip.ModeTaxi {
				plan.Transport.Cost += lv.TaxiCost
				plan.Transport.Duration += lv.TaxiTime
			} else {
				plan.Transport.Cost += lv.BusCost
				plan.Transport.Duration += lv.BusTime
			}
		}
	}
	c.Transportation = plan.Transport.Cost
	t.Transportation = plan.Transport.Duration

	c.Intercity = plan.Cost.Intercity
	c.Total = c.Attractions + c.Restaurants + c.Hotel + c.Transportation + c.Intercity
	t.Total = t.Attractions + t.Restaurants + t.Queue + t.Transportation

	plan.Cost = c
	plan.Time = t
}
