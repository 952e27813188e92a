// internal/planner/objective.go
package planner

import "github.com/awmpietro/golang-itinerary-optimizer/internal/milp"

// ObjectiveWeights scale the terms of the minimized objective:
// Cost*total_cost + TransportTime*total_transportation_time
// - Rating*(sum of selected ratings).
type ObjectiveWeights struct {
	Cost          float64 `json:"cost" mapstructure:"cost"`
	TransportTime float64 `json:"transport_time" mapstructure:"transport_time"`
	Rating        float64 `json:"rating" mapstructure:"rating"`
}

func DefaultWeights() ObjectiveWeights {
	return ObjectiveWeights{Cost: 1, TransportTime: 0.1, Rating: 1}
}

func (p *Program) declareObjective() {
	w := p.Weights
	r := p.resolver

	cost, _ := r.Field(TotalCost, 0)
	travel, _ := r.Field(TotalTransportationTime, 0)

	var rating milp.LinExpr
	for _, d := range p.days {
		for _, a := range d.Attractions {
			rating = rating.AddTerm(a.Sel, a.Item.Rating)
		}
		for _, rs := range d.Restaurants {
			rating = rating.AddTerm(rs.Sel, rs.Item.Rating)
		}
		for _, h := range d.Hotels {
			rating = rating.AddTerm(h.Sel, h.Item.Rating)
		}
	}

	p.Model.Minimize(milp.Sum(
		cost.Scale(w.Cost),
		travel.Scale(w.TransportTime),
		rating.Scale(-w.Rating),
	))
}
