// internal/planner/extract.go
package planner

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// selected is the value above which a binary counts as chosen.
const selected = 0.9

// driftTolerance is the relative gap between the model's expressions and the
// recomputed costs that gets logged.
const driftTolerance = 1e-4

var ErrNoValues = errors.New("solution carries no variable values")

// Extract reads a solution back into an itinerary. Costs and times are
// recomputed from the chosen assignment.
func Extract(p *Program, sol milp.Solution) (trip.Itinerary, error) {
	if !sol.HasValues() {
		return trip.Itinerary{}, ErrNoValues
	}
	if len(sol.Values) != p.Model.NumVars() {
		return trip.Itinerary{}, fmt.Errorf("%w: %d values for %d variables", ErrNoValues, len(sol.Values), p.Model.NumVars())
	}
	values := sol.Values
	on := func(v milp.Var) bool { return values[v] > selected }

	it := trip.NewItinerary(p.Request)
	it.Status = trip.StatusFeasible
	if sol.Status == milp.StatusOptimal {
		it.Status = trip.StatusOptimal
	}
	it.ObjectiveValue = sol.Objective

	for _, leg := range p.legs {
		var chosen *trip.TrainOption
		for _, o := range leg.Options {
			if on(o.Sel) {
				opt := o.Option
				chosen = &opt
				break
			}
		}
		if chosen == nil {
			return trip.Itinerary{}, fmt.Errorf("train leg %s: no option selected", leg.Name)
		}
		switch {
		case leg.Name == "departure":
			it.Departure = chosen
		case leg.Name == "back":
			it.Return = chosen
		default:
			it.Transfers = append(it.Transfers, *chosen)
		}
		if leg.Day >= 0 && leg.Day < len(it.Days) {
			it.Days[leg.Day].Cost.Intercity += chosen.Cost * float64(p.Set.Travelers)
		}
	}

	for i, d := range p.days {
		plan := &it.Days[i]
		if err := extractDay(p, d, plan, values); err != nil {
			return trip.Itinerary{}, err
		}
		realize(plan, p.Set, p.Candidates.Stage(d.Stage).Transport, d.Last, d.Transfer)
		it.TotalCost += plan.Cost.Total
		p.checkDrift(d.Day, plan.Cost.Total, values)
	}
	return it, nil
}

func extractDay(p *Program, d *dayModel, plan *trip.DayPlan, values []float64) error {
	on := func(v milp.Var) bool { return values[v] > selected }

	for _, h := range d.Hotels {
		if on(h.Sel) {
			hotel := h.Item
			plan.Hotel = &hotel
			break
		}
	}

	type visit struct {
		index int
		order float64
	}
	var visits []visit
	for i, a := range d.Attractions {
		if !on(a.Sel) {
			continue
		}
		order := float64(i)
		if d.Routed {
			order = values[d.Order[i]]
		}
		visits = append(visits, visit{index: i, order: order})
	}
	sort.SliceStable(visits, func(a, b int) bool { return visits[a].order < visits[b].order })
	for n, v := range visits {
		plan.Attractions = append(plan.Attractions, trip.Visit{Attraction: d.Attractions[v.index].Item, Order: n + 1})
	}

	var restaurants []trip.Restaurant
	for _, r := range d.Restaurants {
		if on(r.Sel) {
			restaurants = append(restaurants, r.Item)
		}
	}
	plan.SetRestaurants(restaurants)

	plan.Transport.Mode = trip.ModeTaxi
	if values[d.Mode] > 0.5 {
		plan.Transport.Mode = trip.ModePublicTransit
	}

	if d.Routed && len(visits) > 0 {
		order := make([]string, len(visits))
		for n, v := range visits {
			order[n] = d.Attractions[v.index].Item.ID
		}
		if err := checkRoute(order, dayArcs(d, values)); err != nil {
			return fmt.Errorf("day %d: %w", d.Day, err)
		}
	}
	return nil
}

// dayArcs lists the arcs switched on in values, with the hotel as hotelNode.
func dayArcs(d *dayModel, values []float64) [][2]string {
	var arcs [][2]string
	for i, a := range d.Attractions {
		if values[d.Leave[i]] > selected {
			arcs = append(arcs, [2]string{hotelNode, a.Item.ID})
		}
		if values[d.Back[i]] > selected {
			arcs = append(arcs, [2]string{a.Item.ID, hotelNode})
		}
	}
	for ij, link := range d.Links {
		if values[link] > selected {
			arcs = append(arcs, [2]string{d.Attractions[ij[0]].Item.ID, d.Attractions[ij[1]].Item.ID})
		}
	}
	sort.Slice(arcs, func(i, j int) bool {
		return strings.Join(arcs[i][:], ">") < strings.Join(arcs[j][:], ">")
	})
	return arcs
}

// checkDrift logs when the recomputed day cost and the model's expression
// for it disagree.
func (p *Program) checkDrift(day int, realized float64, values []float64) {
	modeled, err := p.resolver.Value(DailyTotalCost, day, values)
	if err != nil {
		return
	}
	if math.Abs(modeled-realized) <= driftTolerance*max(1, math.Abs(realized)) {
		return
	}
	p.logger.Warn().
		Int("day", day).
		Float64("modeled_cost", modeled).
		Float64("realized_cost", realized).
		Msg("planner_cost_drift")
}
