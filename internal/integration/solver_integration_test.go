package integration_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp/highs"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/planner"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

const tol = 1e-6

func requireSolver(t *testing.T) *planner.Planner {
	t.Helper()
	if os.Getenv("PLANNER_SOLVER_TESTS") != "1" {
		t.Skip("set PLANNER_SOLVER_TESTS=1 to run HiGHS scenarios")
	}
	return planner.New(highs.New(), planner.WithSolveOptions(milp.Options{TimeLimit: 60 * time.Second}))
}

func singleStage(days int) (trip.Request, trip.Candidates) {
	req := trip.Request{
		StartDate: "2025-05-01",
		Travelers: 2,
		Stages:    []trip.Stage{{Origin: "Milan", Destination: "Rome", Days: days}},
	}
	cands := trip.Candidates{
		Stages:    []trip.StageCandidates{city("rome", 5, 3, 12)},
		Departure: trains("dep", 30),
		Return:    trains("ret", 35),
	}
	return req, cands
}

func TestScenario_ThreeDaySingleStage(t *testing.T) {
	pl := requireSolver(t)
	req, cands := singleStage(3)
	req.Budget = 7000
	set := trip.ConstraintSet{AttractionsPerDay: 1, RestaurantsPerDay: 3, HotelsPerDay: 1, DailyTimeCap: 840}

	res, err := pl.Plan(context.Background(), req, set, cands)
	require.NoError(t, err)
	require.False(t, res.Fallback, res.Reason)
	it := res.Itinerary
	require.Len(t, it.Days, 3)

	attractions := map[string]bool{}
	restaurants := map[string]bool{}
	hotel := ""
	for _, d := range it.Days {
		require.Len(t, d.Attractions, 1, "day %d", d.Day)
		attractions[d.Attractions[0].ID] = true
		for _, r := range d.Restaurants() {
			restaurants[r.ID] = true
		}
		require.NotNil(t, d.Hotel, "day %d", d.Day)
		if hotel == "" {
			hotel = d.Hotel.ID
		}
		assert.Equal(t, hotel, d.Hotel.ID, "day %d", d.Day)
		assert.LessOrEqual(t, d.Time.Total, 840+tol, "day %d", d.Day)
	}
	assert.Len(t, attractions, 3)
	assert.Len(t, restaurants, 9)
	assert.LessOrEqual(t, it.TotalCost, 7000+tol)
	require.NotNil(t, it.Departure)
	require.NotNil(t, it.Return)
}

func TestScenario_OrConstraintNeedsOneBranch(t *testing.T) {
	pl := requireSolver(t)
	req, cands := singleStage(2)

	rs := cands.Stages[0].Restaurants
	rs[0].RecommendedFood = []string{"carbonara"}
	rs[0].Cost = 40
	rs[1].Rating = 4.9
	rs[1].Cost = 300

	set := trip.ConstraintSet{
		AttractionsPerDay: 1,
		RestaurantsPerDay: 2,
		TotalMealBudget: expr.Of(expr.MustParse(
			`count(filter(restaurants, "carbonara" in .recommended_food)) >= 1 or count(filter(restaurants, .rating >= 4.8)) >= 1`)),
	}

	res, err := pl.Plan(context.Background(), req, set, cands)
	require.NoError(t, err)
	require.False(t, res.Fallback, res.Reason)

	chosen := map[string]bool{}
	for _, d := range res.Itinerary.Days {
		for _, r := range d.Restaurants() {
			chosen[r.ID] = true
		}
	}
	assert.True(t, chosen[rs[0].ID], "the cheaper branch is enough")
	assert.False(t, chosen[rs[1].ID], "the expensive branch is not required as well")
}

func TestScenario_TwoStages(t *testing.T) {
	pl := requireSolver(t)
	req := trip.Request{
		StartDate: "2025-05-01",
		Travelers: 2,
		Stages: []trip.Stage{
			{Origin: "Milan", Destination: "Rome", Days: 3},
			{Origin: "Rome", Destination: "Florence", Days: 4},
		},
	}
	cands := trip.Candidates{
		Stages:    []trip.StageCandidates{city("rome", 4, 2, 4), city("flo", 5, 2, 5)},
		Departure: trains("dep", 30),
		Transfers: [][]trip.TrainOption{trains("xfer", 20)},
		Return:    trains("ret", 35),
	}
	set := trip.ConstraintSet{AttractionsPerDay: 1, RestaurantsPerDay: 1}

	res, err := pl.Plan(context.Background(), req, set, cands)
	require.NoError(t, err)
	require.False(t, res.Fallback, res.Reason)
	it := res.Itinerary
	require.Len(t, it.Days, 7)
	require.Len(t, it.Transfers, 1)

	for _, d := range it.Days {
		prefix := "rome-"
		if d.Day >= 4 {
			prefix = "flo-"
		}
		require.NotNil(t, d.Hotel, "day %d", d.Day)
		assert.True(t, strings.HasPrefix(d.Hotel.ID, prefix), "day %d hotel %s", d.Day, d.Hotel.ID)
		for _, v := range d.Attractions {
			assert.True(t, strings.HasPrefix(v.ID, prefix), "day %d attraction %s", d.Day, v.ID)
		}
	}
}

func TestScenario_TighterBudgetNeverCostsMore(t *testing.T) {
	pl := requireSolver(t)
	req, cands := singleStage(2)
	set := trip.ConstraintSet{AttractionsPerDay: 1, RestaurantsPerDay: 2}

	res, err := pl.Plan(context.Background(), req, set, cands)
	require.NoError(t, err)
	require.False(t, res.Fallback, res.Reason)
	prev := res.Itinerary.TotalCost

	for i := 0; i < 3; i++ {
		bound := prev - 1
		set.TotalBudget = expr.Of(expr.NewLiteral(bound))

		res, err := pl.Plan(context.Background(), req, set, cands)
		require.NoError(t, err)
		if res.Fallback {
			break
		}
		cost := res.Itinerary.TotalCost
		assert.LessOrEqual(t, cost, bound+tol)
		assert.LessOrEqual(t, cost, prev+tol)
		prev = cost
	}
}
