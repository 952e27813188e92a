// internal/planner/fallback.go
package planner

import (
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// BuildFallbackPlan fills the itinerary with the first valid candidates of
// each day, using every attraction and restaurant at most once. Costs and
// times are left at zero.
func BuildFallbackPlan(cands trip.Candidates, req trip.Request, set trip.ConstraintSet) trip.Itinerary {
	set = set.Defaults(req)
	it := trip.NewItinerary(req)
	it.Status = trip.StatusFallback

	windows := req.StageWindows()
	type key struct{ stage, item int }
	usedAttractions := map[key]bool{}
	usedRestaurants := map[key]bool{}
	hotels := map[int]*trip.Accommodation{}

	for i := range it.Days {
		plan := &it.Days[i]
		s := plan.Stage
		sc := cands.Stage(s)
		valid := func(w trip.Window) bool { return effectiveWindow(w, windows[s]).Contains(plan.Day) }

		if h := hotels[s]; h != nil && valid(h.Window) {
			plan.Hotel = h
		} else {
			for _, cand := range sc.Accommodations {
				if valid(cand.Window) {
					hotel := cand
					plan.Hotel = &hotel
					hotels[s] = &hotel
					break
				}
			}
		}

		for k, a := range sc.Attractions {
			if len(plan.Attractions) >= set.AttractionsPerDay {
				break
			}
			if usedAttractions[key{s, k}] || !valid(a.Window) {
				continue
			}
			usedAttractions[key{s, k}] = true
			plan.Attractions = append(plan.Attractions, trip.Visit{Attraction: a, Order: len(plan.Attractions) + 1})
		}

		var restaurants []trip.Restaurant
		for k, r := range sc.Restaurants {
			if len(restaurants) >= set.RestaurantsPerDay {
				break
			}
			if usedRestaurants[key{s, k}] || !valid(r.Window) {
				continue
			}
			usedRestaurants[key{s, k}] = true
			restaurants = append(restaurants, r)
		}
		plan.SetRestaurants(restaurants)

		plan.Transport.Mode = trip.ModePublicTransit
		if set.PreferenceFor(plan.City) == trip.PreferTaxi {
			plan.Transport.Mode = trip.ModeTaxi
		}
	}

	if len(cands.Departure) > 0 {
		dep := cands.Departure[0]
		it.Departure = &dep
	}
	for k := 0; k < len(windows)-1 && k < len(cands.Transfers); k++ {
		if len(cands.Transfers[k]) > 0 {
			it.Transfers = append(it.Transfers, cands.Transfers[k][0])
		}
	}
	if len(cands.Return) > 0 {
		ret := cands.Return[0]
		it.Return = &ret
	}
	return it
}
