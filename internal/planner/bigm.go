// internal/planner/bigm.go
package planner

import (
	"math"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// DeriveBigM returns the constant threaded into every transport
// linearization row. It dominates every per-leg time and cost value of the
// candidate data, so gated rows are slack when their binary is off.
func DeriveBigM(req trip.Request, set trip.ConstraintSet, c trip.Candidates) float64 {
	set = set.Defaults(req)
	largest := 0.0
	for _, s := range c.Stages {
		for _, e := range s.Transport {
			lv := legFor(e, set.Travelers, set.SeatsPerVehicle)
			largest = max(largest, lv.BusTime, lv.TaxiTime, lv.BusCost, lv.TaxiCost)
		}
	}
	return max(math.Ceil(largest*1.5)+1, 1)
}
