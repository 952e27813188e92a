package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/expr"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

func withRule(text string, set func(*trip.ConstraintSet, expr.Expr)) trip.ConstraintSet {
	s := romeSet()
	set(&s, expr.Of(expr.MustParse(text)))
	return s
}

func dailyBudget(s *trip.ConstraintSet, e expr.Expr) { s.DailyBudget = e }
func totalBudget(s *trip.ConstraintSet, e expr.Expr) { s.TotalBudget = e }

func TestCompile_Rules(t *testing.T) {
	// validRome costs 332 on day 1 and 302 on day 2, 634 in total.
	tests := []struct {
		name     string
		rule     string
		set      func(*trip.ConstraintSet, expr.Expr)
		violated bool
	}{
		{"daily bound holds", "daily_total_cost <= 400", dailyBudget, false},
		{"daily bound fails on day 1", "daily_total_cost <= 310", dailyBudget, true},
		{"or with one true branch", "daily_total_cost <= 100 or num_attractions_per_day == 2", dailyBudget, false},
		{"or with no true branch", "daily_total_cost <= 100 or num_attractions_per_day == 3", dailyBudget, true},
		{"not pushes down", "not (daily_total_cost > 400)", dailyBudget, false},
		{"de morgan over and", "not (daily_total_cost <= 400 and daily_total_hotel_cost >= 0)", dailyBudget, true},
		{"not equal", "num_restaurants_per_day != 3", dailyBudget, false},
		{"not equal fails", "num_restaurants_per_day != 2", dailyBudget, true},
		{"strict inequality", "total_cost < 634", totalBudget, true},
		{"arithmetic with constants", "total_cost / people_number <= 317", totalBudget, false},
		{"scaled per day", "2 * daily_total_attraction_cost <= daily_total_hotel_cost + 300", dailyBudget, false},
		{"constant fold true", "people_number == 2", totalBudget, false},
		{"constant fold false", "days > 5", totalBudget, true},
		{"count over candidates", `count(filter(attractions, .cost >= 30)) >= 1`, totalBudget, false},
		{"count per day", `count(filter(attractions, .cost >= 10)) >= 2`, dailyBudget, false},
		{"sum over restaurants", `sum(restaurants, "cost") <= 50`, totalBudget, true},
		{"includes on literals", `"wifi" in ["wifi", "pool"]`, totalBudget, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildRome(t, withRule(tt.rule, tt.set))
			values := assign(t, p, validRome(), "FR9511", "FR9530")
			violations := p.Model.Violations(values, tol)
			if tt.violated {
				assert.NotEmpty(t, violations)
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestCompile_CountPerDayIsDaily(t *testing.T) {
	// daily_total_cost makes the rule daily, so the count applies to each day
	// on its own: day 2 has a3 and a4 (cost 30, 40), day 1 has a1 and a2.
	p := buildRome(t, withRule(`count(filter(attractions, .cost >= 30)) >= 1 and daily_total_cost >= 0`, dailyBudget))
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.NotEmpty(t, p.Model.Violations(values, tol))

	days := validRome()
	days[0].attractions = []string{"a3", "a1"}
	days[1].attractions = []string{"a4", "a2"}
	values = assign(t, p, days, "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))
}

func TestCompile_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want error
	}{
		{"product of variables", "daily_total_cost * daily_total_time <= 5", ErrNonlinear},
		{"division by variable", "100 / daily_total_cost <= 5", ErrNonlinear},
		{"min over decisions", `min(attractions, "cost") <= 5`, ErrNonlinear},
		{"includes over decisions", "daily_total_cost in [1, 2]", ErrNonlinear},
		{"unknown field", "daily_fun <= 3", ErrUnknownField},
		{"unknown source", `count(global) >= 1`, ErrUnknownSource},
		{"division by zero", "daily_total_cost / 0 <= 1", expr.ErrDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(romeRequest(2), withRule(tt.rule, dailyBudget), romeCandidates(), BuildOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsInputError(err))
		})
	}
}

func TestCompile_UnknownFieldNamesRule(t *testing.T) {
	_, err := Build(romeRequest(2), withRule("daily_fun <= 3", dailyBudget), romeCandidates(), BuildOptions{})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "daily_budget", fe.Rule)
	assert.Equal(t, "daily_fun", fe.Field)
}

func TestCompile_TripFieldWithoutDayIsRejected(t *testing.T) {
	r := buildRome(t, romeSet()).Resolver()

	_, err := r.Resolve("daily_total_cost", 0)
	assert.ErrorIs(t, err, ErrMissingDay)

	_, err = r.Resolve("daily_total_cost", 3)
	assert.ErrorIs(t, err, ErrMissingDay)

	_, err = r.Resolve("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownField)

	e, err := r.Resolve("BUDGET", 0)
	require.NoError(t, err)
	assert.True(t, e.IsConstant())
}

func TestCompile_ExtensionIsBestEffort(t *testing.T) {
	set := romeSet()
	set.Extension = "total_cost <= 10\n daily_fun <= 3 ; daily_total_cost * days <= 700;; this is not ( valid\nmax(attractions, \"cost\") <= 1"
	p := buildRome(t, set)

	assert.Len(t, p.Warnings(), 3)
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	violations := p.Model.Violations(values, tol)
	assert.True(t, hasViolation(violations, "extension_1"))
	assert.False(t, hasViolation(violations, "extension_3"))
}

func TestCompile_ExtensionWithUnknownFieldIsSkipped(t *testing.T) {
	set := romeSet()
	set.Extension = "hotel_stars >= 4"
	p := buildRome(t, set)

	require.Len(t, p.Warnings(), 2)
	assert.Contains(t, p.Warnings()[0], `unknown field "hotel_stars" read as 0`)
	assert.Contains(t, p.Warnings()[1], "extension_1 skipped")

	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))
}

func TestCompile_DailyExtensionWarnsOnce(t *testing.T) {
	set := romeSet()
	set.Extension = "daily_total_cost + daily_fun <= 1000"
	p := buildRome(t, set)

	assert.Equal(t, []string{`rule extension_1: unknown field "daily_fun" read as 0`}, p.Warnings())
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))
}

func TestCompile_CancellingTermsAreConstant(t *testing.T) {
	p := buildRome(t, withRule("(daily_total_cost - daily_total_cost) * daily_total_time <= 5", dailyBudget))
	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.Empty(t, p.Model.Violations(values, tol))

	p = buildRome(t, withRule("daily_total_cost - daily_total_cost >= 1", dailyBudget))
	values = assign(t, p, validRome(), "FR9511", "FR9530")
	assert.NotEmpty(t, p.Model.Violations(values, tol))
}

func TestCompile_DailyActiveTimeReplacesDefaultCap(t *testing.T) {
	set := romeSet()
	set.DailyActiveTime = expr.Of(expr.NewLiteral(250))
	p := buildRome(t, set)
	for _, c := range p.Model.Constraints() {
		assert.NotContains(t, c.Name, "daily_time_cap")
	}

	values := assign(t, p, validRome(), "FR9511", "FR9530")
	assert.True(t, hasViolation(p.Model.Violations(values, tol), "daily_active_time[1]"))
}

func TestIsDailyRule(t *testing.T) {
	assert.True(t, isDailyRule("daily_total_cost", expr.MustParse("total_cost <= 1")))
	assert.True(t, isDailyRule("", expr.MustParse("daily_queue_time <= 1")))
	assert.False(t, isDailyRule("total_cost", expr.MustParse("total_cost <= budget")))
}
