// internal/planner/routing.go
package planner

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// declareRouting models the day's movement as one closed route from the
// hotel through every selected attraction and back. Subtours among
// attractions are cut with Miller-Tucker-Zemlin ordering variables.
func (p *Program) declareRouting(d *dayModel) {
	n := len(d.Attractions)
	if n == 0 || len(d.Hotels) == 0 {
		return
	}
	d.Routed = true

	m := p.Model
	transport := p.Candidates.Stage(d.Stage).Transport
	size := float64(n + 1)

	d.Leave = make([]milp.Var, n)
	d.Back = make([]milp.Var, n)
	d.Order = make([]milp.Var, n)
	d.Links = map[[2]int]milp.Var{}

	for i, a := range d.Attractions {
		d.Leave[i] = m.NewBinary(fmt.Sprintf("leave[%d,%s]", d.Day, a.Item.ID))
		d.Back[i] = m.NewBinary(fmt.Sprintf("return[%d,%s]", d.Day, a.Item.ID))
		d.Order[i] = m.NewContinuous(fmt.Sprintf("visit_order[%d,%s]", d.Day, a.Item.ID), 0, size-1)
	}
	for i, a := range d.Attractions {
		for j, b := range d.Attractions {
			if i == j {
				continue
			}
			if _, ok := transport.Lookup(a.Item.ID, b.Item.ID); !ok {
				continue
			}
			d.Links[[2]int{i, j}] = m.NewBinary(fmt.Sprintf("link[%d,%s,%s]", d.Day, a.Item.ID, b.Item.ID))
		}
	}

	// Degree: a selected attraction is entered once and left once.
	for i, a := range d.Attractions {
		out := d.Back[i].Expr()
		in := d.Leave[i].Expr()
		for j := range d.Attractions {
			if v, ok := d.Links[[2]int{i, j}]; ok {
				out = out.AddTerm(v, 1)
			}
			if v, ok := d.Links[[2]int{j, i}]; ok {
				in = in.AddTerm(v, 1)
			}
		}
		m.Add(fmt.Sprintf("out_degree[%d,%s]", d.Day, a.Item.ID), out, milp.Equal, a.Sel.Expr())
		m.Add(fmt.Sprintf("in_degree[%d,%s]", d.Day, a.Item.ID), in, milp.Equal, a.Sel.Expr())
	}

	// Hotel: one departure and one return when anything is visited, and
	// only from a selected hotel.
	var leave, back milp.LinExpr
	for i := range d.Attractions {
		leave = leave.AddTerm(d.Leave[i], 1)
		back = back.AddTerm(d.Back[i], 1)
	}
	m.Add(fmt.Sprintf("hotel_balance[%d]", d.Day), leave, milp.Equal, back)
	m.Add(fmt.Sprintf("hotel_single_route[%d]", d.Day), leave, milp.LessEq, milp.Constant(1))
	m.Add(fmt.Sprintf("hotel_route_needs_hotel[%d]", d.Day), leave, milp.LessEq, sumSel(d.Hotels))
	for _, a := range d.Attractions {
		m.Add(fmt.Sprintf("hotel_route_starts[%d,%s]", d.Day, a.Item.ID), leave, milp.GreaterEq, a.Sel.Expr())
	}

	// A hotel without a transport edge to an attraction cannot serve it.
	for _, h := range d.Hotels {
		for i, a := range d.Attractions {
			if _, ok := transport.Lookup(h.Item.ID, a.Item.ID); ok {
				continue
			}
			m.Add(fmt.Sprintf("no_leave_edge[%d,%s,%s]", d.Day, h.Item.ID, a.Item.ID), d.Leave[i].Expr().AddTerm(h.Sel, 1), milp.LessEq, milp.Constant(1))
			m.Add(fmt.Sprintf("no_return_edge[%d,%s,%s]", d.Day, h.Item.ID, a.Item.ID), d.Back[i].Expr().AddTerm(h.Sel, 1), milp.LessEq, milp.Constant(1))
		}
	}

	// MTZ: sel <= u <= (N-1)*sel and u_i - u_j + N*link_ij <= N-1.
	for i, a := range d.Attractions {
		m.Add(fmt.Sprintf("order_lower[%d,%s]", d.Day, a.Item.ID), d.Order[i].Expr(), milp.GreaterEq, a.Sel.Expr())
		m.Add(fmt.Sprintf("order_upper[%d,%s]", d.Day, a.Item.ID), d.Order[i].Expr(), milp.LessEq, a.Sel.Expr().Scale(size-1))
	}
	for _, ij := range d.linkKeys() {
		i, j := ij[0], ij[1]
		lhs := d.Order[i].Expr().AddTerm(d.Order[j], -1).AddTerm(d.Links[ij], size)
		m.Add(fmt.Sprintf("mtz[%d,%s,%s]", d.Day, d.Attractions[i].Item.ID, d.Attractions[j].Item.ID), lhs, milp.LessEq, milp.Constant(size-1))
	}
}

// linkKeys returns the keys of d.Links in a fixed order.
func (d *dayModel) linkKeys() [][2]int {
	keys := make([][2]int, 0, len(d.Links))
	for k := range d.Links {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return keys
}

// legValues are the per-mode parameters of one transport edge: bus time
// and cost for the whole group, taxi time and cost for the vehicles needed.
type legValues struct {
	BusTime, TaxiTime, BusCost, TaxiCost float64
}

func (p *Program) legValues(e trip.TransportEdge) legValues {
	return legFor(e, p.Set.Travelers, p.Set.SeatsPerVehicle)
}

func legFor(e trip.TransportEdge, travelers, seats int) legValues {
	return legValues{
		BusTime:  e.BusDuration,
		TaxiTime: e.TaxiDuration,
		BusCost:  e.BusCost * float64(travelers),
		TaxiCost: e.TaxiCost * float64(vehicles(travelers, seats)),
	}
}

// vehicles is the number of taxis needed for the group.
func vehicles(travelers, seats int) int {
	if seats <= 0 {
		seats = trip.DefaultSeatsPerVehicle
	}
	if travelers <= 0 {
		return 0
	}
	return (travelers + seats - 1) / seats
}
