package planner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

const tol = 1e-6

var testEdge = trip.TransportEdge{BusDuration: 20, BusCost: 2, TaxiDuration: 10, TaxiCost: 15}

func romeRequest(days int) trip.Request {
	return trip.Request{
		StartDate: "2025-05-01",
		Travelers: 2,
		Stages:    []trip.Stage{{Origin: "Milan", Destination: "Rome", Days: days}},
	}
}

// cityCandidates builds a stage with n attractions, 2 hotels and m
// restaurants, all pairwise connected by testEdge.
func cityCandidates(prefix string, n, m int) trip.StageCandidates {
	sc := trip.StageCandidates{Transport: trip.TransportMatrix{}}
	for i := 1; i <= n; i++ {
		sc.Attractions = append(sc.Attractions, trip.Attraction{
			ID: fmt.Sprintf("%sa%d", prefix, i), Name: fmt.Sprintf("Attraction %d", i),
			Cost: float64(10 * i), Duration: 60, Rating: 4 + float64(i)/10, Type: "museum",
		})
	}
	sc.Accommodations = []trip.Accommodation{
		{ID: prefix + "h1", Name: "Hotel One", Cost: 100, Rating: 4.2, Feature: []string{"wifi"}},
		{ID: prefix + "h2", Name: "Hotel Two", Cost: 80, Rating: 3.9},
	}
	for i := 1; i <= m; i++ {
		sc.Restaurants = append(sc.Restaurants, trip.Restaurant{
			ID: fmt.Sprintf("%sr%d", prefix, i), Name: fmt.Sprintf("Restaurant %d", i),
			Cost: 15, Duration: 45, QueueTime: 10, Rating: 4.5,
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
			sc.Transport.Set(ids[i], ids[j], testEdge)
		}
	}
	return sc
}

func romeCandidates() trip.Candidates {
	return trip.Candidates{
		Stages: []trip.StageCandidates{cityCandidates("", 4, 6)},
		Departure: []trip.TrainOption{
			{ID: "FR9511", Cost: 50, Duration: 180},
			{ID: "IC651", Cost: 30, Duration: 300},
		},
		Return: []trip.TrainOption{{ID: "FR9530", Cost: 45, Duration: 185}},
	}
}

func romeSet() trip.ConstraintSet {
	return trip.ConstraintSet{AttractionsPerDay: 2, RestaurantsPerDay: 2}
}

type dayChoice struct {
	hotel       string
	attractions []string
	restaurants []string
	transit     bool
}

// assign builds the variable values of a hand-made plan, including the
// routing, transport linearization and disjunction indicators.
func assign(t *testing.T, p *Program, days []dayChoice, trains ...string) []float64 {
	t.Helper()
	require.Len(t, days, len(p.days))
	values := make([]float64, p.Model.NumVars())

	for _, leg := range p.legs {
		for _, o := range leg.Options {
			for _, id := range trains {
				if o.Option.ID == id {
					values[o.Sel] = 1
				}
			}
		}
	}

	for i, d := range p.days {
		c := days[i]
		if c.transit {
			values[d.Mode] = 1
		}

		hotel := -1
		for k, h := range d.Hotels {
			if h.Item.ID == c.hotel {
				values[h.Sel] = 1
				hotel = k
			}
		}
		pos := map[string]int{}
		for n, id := range c.attractions {
			pos[id] = n
		}
		idx := make([]int, len(c.attractions))
		for k, a := range d.Attractions {
			if n, ok := pos[a.Item.ID]; ok {
				values[a.Sel] = 1
				idx[n] = k
			}
		}
		for _, id := range c.restaurants {
			for _, r := range d.Restaurants {
				if r.Item.ID == id {
					values[r.Sel] = 1
				}
			}
		}

		if !d.Routed {
			continue
		}
		transport := p.Candidates.Stage(d.Stage).Transport
		mode := func(lv legValues) (float64, float64) {
			if c.transit {
				return lv.BusTime, lv.BusCost
			}
			return lv.TaxiTime, lv.TaxiCost
		}

		if len(idx) > 0 {
			values[d.Leave[idx[0]]] = 1
			values[d.Back[idx[len(idx)-1]]] = 1
			for n := 0; n+1 < len(idx); n++ {
				link, ok := d.Links[[2]int{idx[n], idx[n+1]}]
				require.True(t, ok, "no link between consecutive attractions")
				values[link] = 1
			}
			for n, k := range idx {
				values[d.Order[k]] = float64(n + 1)
			}
		}

		for k, a := range d.Attractions {
			if hotel >= 0 {
				if e, ok := transport.Lookup(d.Hotels[hotel].Item.ID, a.Item.ID); ok {
					values[d.HotelLegs[k].Time], values[d.HotelLegs[k].Cost] = mode(p.legValues(e))
				}
			}
			gate(values, d.LeaveGates[k], d.HotelLegs[k], d.Leave[k])
			gate(values, d.BackGates[k], d.HotelLegs[k], d.Back[k])
		}
		for ij, leg := range d.LinkLegs {
			e, _ := transport.Lookup(d.Attractions[ij[0]].Item.ID, d.Attractions[ij[1]].Item.ID)
			values[leg.Time], values[leg.Cost] = mode(p.legValues(e))
			gate(values, d.LinkGates[ij], leg, d.Links[ij])
		}
	}

	p.Model.FillIndicators(values, tol)
	return values
}

func gate(values []float64, g, leg legVars, arc milp.Var) {
	values[g.Time] = values[leg.Time] * values[arc]
	values[g.Cost] = values[leg.Cost] * values[arc]
}

// validRome is a two-day plan over romeCandidates.
func validRome() []dayChoice {
	return []dayChoice{
		{hotel: "h1", attractions: []string{"a2", "a1"}, restaurants: []string{"r1", "r2"}, transit: true},
		{hotel: "h1", attractions: []string{"a3", "a4"}, restaurants: []string{"r3", "r4"}, transit: true},
	}
}

func hasViolation(violations []string, prefix string) bool {
	for _, v := range violations {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func buildRome(t *testing.T, set trip.ConstraintSet) *Program {
	t.Helper()
	p, err := Build(romeRequest(2), set, romeCandidates(), BuildOptions{})
	require.NoError(t, err)
	return p
}
