package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

func TestBuild_ValidPlanSatisfiesEveryRow(t *testing.T) {
	p := buildRome(t, romeSet())
	values := assign(t, p, validRome(), "FR9511", "FR9530")

	assert.Empty(t, p.Model.Violations(values, tol))
	assert.Empty(t, p.Model.Pending())
	assert.Equal(t, 31.0, p.BigM)
}

func TestBuild_ResolverMatchesHandComputedCosts(t *testing.T) {
	p := buildRome(t, romeSet())
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	r := p.Resolver()

	tests := []struct {
		kind FieldKind
		day  int
		want float64
	}{
		{DailyAttractionCost, 1, 60},
		{DailyRestaurantCost, 1, 60},
		{DailyHotelCost, 1, 100},
		{DailyHotelCost, 2, 0},
		{DailyTransportationCost, 1, 12},
		{DailyTotalCost, 1, 332},
		{DailyTotalCost, 2, 302},
		{TotalCost, 0, 634},
		{IntercityTransportationCost, 0, 190},
		{DailyTotalTime, 1, 120 + 90 + 20 + 60},
		{DailyTransportationTime, 2, 60},
		{NumAttractionsPerDay, 2, 2},
		{TotalQueueTime, 0, 40},
		{IntercityTransportationTime, 0, 365},
		{PeopleNumber, 0, 2},
		{Days, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := r.Value(tt.kind, tt.day, values)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tol)
		})
	}
}

func TestBuild_PerDayCountsAreEnforced(t *testing.T) {
	p := buildRome(t, romeSet())
	days := validRome()
	days[0].attractions = []string{"a2"}
	values := assign(t, p, days, "FR9511", "FR9530")

	assert.True(t, hasViolation(p.Model.Violations(values, tol), "attractions_per_day[1]"))
}

func TestBuild_NoAttractionOnTwoDays(t *testing.T) {
	p := buildRome(t, romeSet())
	days := validRome()
	days[1].attractions = []string{"a1", "a4"}
	values := assign(t, p, days, "FR9511", "FR9530")

	assert.True(t, hasViolation(p.Model.Violations(values, tol), "attraction_once"))
}

func TestBuild_HotelContinuity(t *testing.T) {
	days := validRome()
	days[1].hotel = "h2"

	p := buildRome(t, romeSet())
	values := assign(t, p, days, "FR9511", "FR9530")
	assert.True(t, hasViolation(p.Model.Violations(values, tol), "hotel_continuity[1"))

	set := romeSet()
	set.AllowHotelChange = true
	p = buildRome(t, set)
	values = assign(t, p, days, "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))
}

func TestBuild_SubtourIsCut(t *testing.T) {
	req := romeRequest(1)
	cands := romeCandidates()
	set := trip.ConstraintSet{AttractionsPerDay: 3, RestaurantsPerDay: 1}
	p, err := Build(req, set, cands, BuildOptions{})
	require.NoError(t, err)

	values := assign(t, p, []dayChoice{{hotel: "h1", attractions: []string{"a1", "a2", "a3"}, restaurants: []string{"r1"}, transit: true}}, "FR9511", "FR9530")
	require.Empty(t, p.Model.Violations(values, tol))

	// hotel -> a1 -> hotel plus a2 <-> a3, with any visit order.
	d := p.days[0]
	for _, v := range d.Links {
		values[v] = 0
	}
	for i := range d.Attractions {
		values[d.Leave[i]], values[d.Back[i]] = 0, 0
	}
	values[d.Leave[0]], values[d.Back[0]] = 1, 1
	values[d.Links[[2]int{1, 2}]] = 1
	values[d.Links[[2]int{2, 1}]] = 1

	violations := p.Model.Violations(values, tol)
	assert.True(t, hasViolation(violations, "mtz["), violations)
}

func TestBuild_MissingTransportEdgeForbidsHotelArcs(t *testing.T) {
	cands := romeCandidates()
	delete(cands.Stages[0].Transport, trip.PairKey("a1", "h1"))

	p, err := Build(romeRequest(2), romeSet(), cands, BuildOptions{})
	require.NoError(t, err)

	days := validRome()
	days[0].attractions = []string{"a1", "a2"}
	values := assign(t, p, days, "FR9511", "FR9530")
	assert.True(t, hasViolation(p.Model.Violations(values, tol), "no_leave_edge[1,h1,a1]"))
}

func TestBuild_TransportPreferenceFixesMode(t *testing.T) {
	set := romeSet()
	set.Transport = map[string]trip.TransportPreference{"Rome": trip.PreferTaxi}
	p := buildRome(t, set)

	for _, d := range p.days {
		info := p.Model.Info(d.Mode)
		assert.Equal(t, 0.0, info.Upper)
	}

	days := validRome()
	for i := range days {
		days[i].transit = false
	}
	values := assign(t, p, days, "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))

	cost, err := p.Resolver().Value(DailyTransportationCost, 1, values)
	require.NoError(t, err)
	assert.InDelta(t, 3*15.0, cost, tol)
}

func TestBuild_TwoStagesChargeTransferAndSkipHotelNights(t *testing.T) {
	req := trip.Request{
		StartDate: "2025-05-01",
		Travelers: 3,
		Children:  1,
		Stages: []trip.Stage{
			{Origin: "Milan", Destination: "Rome", Days: 2},
			{Origin: "Rome", Destination: "Naples", Days: 1},
		},
	}
	cands := trip.Candidates{
		Stages:    []trip.StageCandidates{cityCandidates("", 2, 2), cityCandidates("n", 1, 1)},
		Departure: []trip.TrainOption{{ID: "D1", Cost: 10, Duration: 60}},
		Transfers: [][]trip.TrainOption{{{ID: "T1", Cost: 20, Duration: 70}}},
		Return:    []trip.TrainOption{{ID: "R1", Cost: 30, Duration: 80}},
	}
	set := trip.ConstraintSet{AttractionsPerDay: 1, RestaurantsPerDay: 1}
	p, err := Build(req, set, cands, BuildOptions{})
	require.NoError(t, err)

	require.Len(t, p.legs, 3)
	assert.Equal(t, "transfer_0", p.legs[1].Name)
	assert.Equal(t, 1, p.legs[1].Day)
	assert.True(t, p.days[1].Transfer)
	assert.Equal(t, "Naples", p.days[2].City)
	assert.Equal(t, "na1", p.days[2].Attractions[0].Item.ID)

	values := assign(t, p, []dayChoice{
		{hotel: "h2", attractions: []string{"a1"}, restaurants: []string{"r1"}, transit: true},
		{hotel: "h2", attractions: []string{"a2"}, restaurants: []string{"r2"}, transit: true},
		{hotel: "nh1", attractions: []string{"na1"}, restaurants: []string{"nr1"}, transit: true},
	}, "D1", "T1", "R1")
	require.Empty(t, p.Model.Violations(values, tol))

	r := p.Resolver()
	hotel := func(day int) float64 {
		v, err := r.Value(DailyHotelCost, day, values)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, 80, hotel(1), tol)
	assert.InDelta(t, 0, hotel(2), tol)
	assert.InDelta(t, 0, hotel(3), tol)

	intercity, err := r.Value(IntercityTransportationCost, 0, values)
	require.NoError(t, err)
	assert.InDelta(t, 3*(10+20+30.0), intercity, tol)

	attractions, err := r.Value(DailyAttractionCost, 1, values)
	require.NoError(t, err)
	assert.InDelta(t, 10*2.0, attractions, tol)
}

func TestBuild_RequestBudgetAndDailyCap(t *testing.T) {
	req := romeRequest(2)
	req.Budget = 600
	p, err := Build(req, romeSet(), romeCandidates(), BuildOptions{})
	require.NoError(t, err)

	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.True(t, hasViolation(p.Model.Violations(values, tol), "request_budget"))

	set := romeSet()
	set.DailyTimeCap = 200
	p = buildRome(t, set)
	values = assign(t, p, validRome(), "FR9511", "FR9530")
	assert.True(t, hasViolation(p.Model.Violations(values, tol), "daily_time_cap[1]"))
}

// A plan that fits a budget keeps fitting every larger one, so relaxing the
// budget can only grow the feasible set.
func TestBuild_BudgetIsMonotone(t *testing.T) {
	p := buildRome(t, romeSet())
	total, err := p.Resolver().Value(TotalCost, 0, assign(t, p, validRome(), "FR9511", "FR9530"))
	require.NoError(t, err)

	fits := func(budget float64) bool {
		req := romeRequest(2)
		req.Budget = budget
		p, err := Build(req, romeSet(), romeCandidates(), BuildOptions{})
		require.NoError(t, err)
		values := assign(t, p, validRome(), "FR9511", "FR9530")
		return !hasViolation(p.Model.Violations(values, tol), "request_budget")
	}

	prev := false
	for _, budget := range []float64{total / 2, total - 1, total, total + 1, 2 * total} {
		got := fits(budget)
		assert.Equal(t, budget >= total, got, "budget %.2f", budget)
		assert.False(t, prev && !got, "budget %.2f rejects a plan a smaller budget accepted", budget)
		prev = got
	}
}

func TestBuild_DaysWithoutCandidatesRequireNothing(t *testing.T) {
	cands := romeCandidates()
	for i := range cands.Stages[0].Attractions {
		cands.Stages[0].Attractions[i].Window = trip.Window{Start: 1, End: 1}
	}
	p, err := Build(romeRequest(2), romeSet(), cands, BuildOptions{})
	require.NoError(t, err)

	assert.Len(t, p.days[0].Attractions, 4)
	assert.Empty(t, p.days[1].Attractions)
	assert.False(t, p.days[1].Routed)

	days := validRome()
	days[1].attractions = nil
	values := assign(t, p, days, "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))
}

func TestBuild_RejectsInvalidRequest(t *testing.T) {
	req := romeRequest(2)
	req.Travelers = 0
	_, err := Build(req, romeSet(), romeCandidates(), BuildOptions{})
	require.ErrorIs(t, err, trip.ErrInvalidRequest)
	assert.True(t, IsInputError(err))
}

func TestDeriveBigM(t *testing.T) {
	req := romeRequest(1)
	req.Travelers = 5
	cands := trip.Candidates{Stages: []trip.StageCandidates{{Transport: trip.TransportMatrix{}}}}
	assert.Equal(t, 1.0, DeriveBigM(req, trip.ConstraintSet{}, cands))

	cands.Stages[0].Transport.Set("a", "b", trip.TransportEdge{BusDuration: 30, BusCost: 3, TaxiDuration: 12, TaxiCost: 40})
	// taxi: 2 vehicles x 40 = 80 dominates.
	assert.Equal(t, 121.0, DeriveBigM(req, trip.ConstraintSet{}, cands))
}

func TestBuild_ObjectiveWeightsRating(t *testing.T) {
	p, err := Build(romeRequest(2), romeSet(), romeCandidates(), BuildOptions{Weights: ObjectiveWeights{Cost: 1}})
	require.NoError(t, err)
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.InDelta(t, 634, p.Model.Objective().Eval(values), tol)

	p = buildRome(t, romeSet())
	values = assign(t, p, validRome(), "FR9511", "FR9530")
	travel, err := p.Resolver().Value(TotalTransportationTime, 0, values)
	require.NoError(t, err)
	ratings := 0.0
	for _, d := range p.days {
		for _, a := range d.Attractions {
			ratings += a.Item.Rating * values[a.Sel]
		}
		for _, r := range d.Restaurants {
			ratings += r.Item.Rating * values[r.Sel]
		}
		for _, h := range d.Hotels {
			ratings += h.Item.Rating * values[h.Sel]
		}
	}
	assert.InDelta(t, 634+0.1*travel-ratings, p.Model.Objective().Eval(values), tol)
}

func TestBuild_CountRuleReplacesDefault(t *testing.T) {
	set := romeSet()
	set.AttractionCount = expr.Of(expr.MustParse("num_attractions_per_day >= 1 and num_attractions_per_day <= 2"))
	p := buildRome(t, set)

	days := validRome()
	days[0].attractions = []string{"a1"}
	values := assign(t, p, days, "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))

	for _, c := range p.Model.Constraints() {
		assert.NotContains(t, c.Name, "attractions_per_day")
	}
}
