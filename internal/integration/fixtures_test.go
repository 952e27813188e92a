package integration_test

import (
	"context"
	"fmt"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

const catalogPath = "../catalog/testdata/catalog.json"

// infeasibleSolver stands in for HiGHS where a test only needs the service
// plumbing; every plan degrades to the fallback.
var infeasibleSolver = milp.SolverFunc(func(context.Context, *milp.Model, milp.Options) (milp.Solution, error) {
	return milp.Solution{Status: milp.StatusInfeasible}, nil
})

// city builds a fully connected candidate set. Costs and ratings vary with
// the index so the optimum is unique.
func city(prefix string, attractions, hotels, restaurants int) trip.StageCandidates {
	sc := trip.StageCandidates{Transport: trip.TransportMatrix{}}
	for i := 1; i <= attractions; i++ {
		sc.Attractions = append(sc.Attractions, trip.Attraction{
			ID:       fmt.Sprintf("%s-a%d", prefix, i),
			Name:     fmt.Sprintf("%s attraction %d", prefix, i),
			Cost:     float64(5 * i),
			Duration: float64(45 + 15*i),
			Rating:   4 + float64(i%5)/10,
			Type:     "museum",
		})
	}
	for i := 1; i <= hotels; i++ {
		sc.Accommodations = append(sc.Accommodations, trip.Accommodation{
			ID:     fmt.Sprintf("%s-h%d", prefix, i),
			Name:   fmt.Sprintf("%s hotel %d", prefix, i),
			Cost:   float64(60 + 40*i),
			Rating: 3.8 + float64(i)/10,
		})
	}
	for i := 1; i <= restaurants; i++ {
		sc.Restaurants = append(sc.Restaurants, trip.Restaurant{
			ID:        fmt.Sprintf("%s-r%d", prefix, i),
			Name:      fmt.Sprintf("%s restaurant %d", prefix, i),
			Cost:      float64(8 + 2*i),
			Duration:  40,
			QueueTime: 5,
			Rating:    3.5 + float64(i%4)/10,
		})
	}

	var ids []string
	for _, a := range sc.Attractions {
		ids = append(ids, a.ID)
	}
	for _, h := range sc.Accommodations {
		ids = append(ids, h.ID)
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			sc.Transport.Set(ids[i], ids[j], trip.TransportEdge{
				BusDuration:  float64(15 + (i+j)%4*5),
				BusCost:      1.5,
				TaxiDuration: float64(8 + (i+j)%3*3),
				TaxiCost:     12,
			})
		}
	}
	return sc
}

func trains(prefix string, base float64) []trip.TrainOption {
	return []trip.TrainOption{
		{ID: prefix + "-fast", Cost: base + 20, Duration: 100},
		{ID: prefix + "-slow", Cost: base, Duration: 220},
	}
}
