// internal/planner/linearize.go
package planner

import (
	"fmt"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
)

// linearizeTransport expresses the day's transport time and cost as linear
// terms. Layer one collapses the mode choice (and for hotel legs the chosen
// hotel) into one value per leg; layer two gates that value with the arc
// binary so unused legs contribute zero. Every row uses p.BigM.
func (p *Program) linearizeTransport(d *dayModel) {
	d.TransportTime = milp.LinExpr{}
	d.TransportCost = milp.LinExpr{}
	if !d.Routed {
		return
	}

	m := p.Model
	transport := p.Candidates.Stage(d.Stage).Transport
	n := len(d.Attractions)
	d.HotelLegs = make([]legVars, n)
	d.LeaveGates = make([]legVars, n)
	d.BackGates = make([]legVars, n)
	d.LinkLegs = make(map[[2]int]legVars, len(d.Links))
	d.LinkGates = make(map[[2]int]legVars, len(d.Links))

	for i, a := range d.Attractions {
		leg := legVars{
			Time: m.NewContinuous(fmt.Sprintf("hotel_leg_time[%d,%s]", d.Day, a.Item.ID), 0, p.BigM),
			Cost: m.NewContinuous(fmt.Sprintf("hotel_leg_cost[%d,%s]", d.Day, a.Item.ID), 0, p.BigM),
		}
		for _, h := range d.Hotels {
			e, ok := transport.Lookup(h.Item.ID, a.Item.ID)
			if !ok {
				continue
			}
			lv := p.legValues(e)
			name := fmt.Sprintf("[%d,%s,%s]", d.Day, h.Item.ID, a.Item.ID)
			p.modeValue("hotel_leg_time"+name, leg.Time, lv.BusTime, lv.TaxiTime, d.Mode, h.Sel, true)
			p.modeValue("hotel_leg_cost"+name, leg.Cost, lv.BusCost, lv.TaxiCost, d.Mode, h.Sel, true)
		}
		d.HotelLegs[i] = leg
		d.LeaveGates[i] = p.gateLeg(fmt.Sprintf("leave[%d,%s]", d.Day, a.Item.ID), leg, d.Leave[i])
		d.BackGates[i] = p.gateLeg(fmt.Sprintf("return[%d,%s]", d.Day, a.Item.ID), leg, d.Back[i])
		d.addTransport(d.LeaveGates[i])
		d.addTransport(d.BackGates[i])
	}

	for _, ij := range d.linkKeys() {
		link := d.Links[ij]
		a, b := d.Attractions[ij[0]].Item, d.Attractions[ij[1]].Item
		e, _ := transport.Lookup(a.ID, b.ID)
		lv := p.legValues(e)
		name := fmt.Sprintf("[%d,%s,%s]", d.Day, a.ID, b.ID)

		leg := legVars{
			Time: m.NewContinuous("link_time"+name, 0, p.BigM),
			Cost: m.NewContinuous("link_cost"+name, 0, p.BigM),
		}
		p.modeValue("link_time"+name, leg.Time, lv.BusTime, lv.TaxiTime, d.Mode, 0, false)
		p.modeValue("link_cost"+name, leg.Cost, lv.BusCost, lv.TaxiCost, d.Mode, 0, false)
		d.LinkLegs[ij] = leg
		d.LinkGates[ij] = p.gateLeg("link"+name, leg, link)
		d.addTransport(d.LinkGates[ij])
	}
}

func (d *dayModel) addTransport(g legVars) {
	d.TransportTime = d.TransportTime.AddTerm(g.Time, 1)
	d.TransportCost = d.TransportCost.AddTerm(g.Cost, 1)
}

func (p *Program) gateLeg(name string, leg legVars, arc milp.Var) legVars {
	return legVars{
		Time: p.gate(name+"_time", leg.Time, arc),
		Cost: p.gate(name+"_cost", leg.Cost, arc),
	}
}

// modeValue pins v to bus when mode = 1 and to taxi when mode = 0. With
// gated set, the rows only bind when the guard binary is 1.
func (p *Program) modeValue(name string, v milp.Var, bus, taxi float64, mode, guard milp.Var, gated bool) {
	m := p.Model
	bigM := p.BigM
	slack := milp.LinExpr{}
	if gated {
		slack = oneMinus(guard).Scale(bigM)
	}
	busOff := oneMinus(mode).Scale(bigM).Add(slack)
	taxiOff := mode.Expr().Scale(bigM).Add(slack)

	m.Add(name+"_bus_lo", v.Expr(), milp.GreaterEq, milp.Constant(bus).Sub(busOff))
	m.Add(name+"_bus_hi", v.Expr(), milp.LessEq, milp.Constant(bus).Add(busOff))
	m.Add(name+"_taxi_lo", v.Expr(), milp.GreaterEq, milp.Constant(taxi).Sub(taxiOff))
	m.Add(name+"_taxi_hi", v.Expr(), milp.LessEq, milp.Constant(taxi).Add(taxiOff))
}

// gate returns g = value * arc for a binary arc and value in [0, BigM].
func (p *Program) gate(name string, value, arc milp.Var) milp.Var {
	m := p.Model
	g := m.NewContinuous("gated_"+name, 0, p.BigM)
	m.Add(name+"_off", g.Expr(), milp.LessEq, arc.Expr().Scale(p.BigM))
	m.Add(name+"_cap", g.Expr(), milp.LessEq, value.Expr())
	m.Add(name+"_on", g.Expr(), milp.GreaterEq, value.Expr().Sub(oneMinus(arc).Scale(p.BigM)))
	return g
}

func oneMinus(v milp.Var) milp.LinExpr {
	return milp.Constant(1).Sub(v.Expr())
}
