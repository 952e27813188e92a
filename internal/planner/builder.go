// internal/planner/builder.go
package planner

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/milp"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// poiVar is a candidate valid on one day with its selection binary. Key is
// the candidate's index in its stage list and identifies it across days.
type poiVar[T any] struct {
	Item T
	Key  int
	Sel  milp.Var
}

// dayModel holds the variables of one trip day.
type dayModel struct {
	Index    int
	Day      int
	Stage    int
	City     string
	Transfer bool
	Last     bool

	Attractions []poiVar[trip.Attraction]
	Restaurants []poiVar[trip.Restaurant]
	Hotels      []poiVar[trip.Accommodation]

	// Mode is 1 for public transit, 0 for taxi.
	Mode milp.Var

	// Routing over {hotel} + Attractions, set when Routed.
	Routed bool
	Leave  []milp.Var
	Back   []milp.Var
	Links  map[[2]int]milp.Var
	Order  []milp.Var

	// Linearized transport: layer-one leg values per attraction (hotel
	// legs) and per link, layer-two gated copies per arc.
	HotelLegs  []legVars
	LeaveGates []legVars
	BackGates  []legVars
	LinkLegs   map[[2]int]legVars
	LinkGates  map[[2]int]legVars

	TransportTime milp.LinExpr
	TransportCost milp.LinExpr
}

// legVars is a time and cost pair of model variables.
type legVars struct {
	Time milp.Var
	Cost milp.Var
}

type trainVar struct {
	Option trip.TrainOption
	Sel    milp.Var
}

// trainLeg is one inter-city leg of the trip, charged on Day (0-based).
type trainLeg struct {
	Name    string
	Day     int
	Options []trainVar
}

// Program is a built optimization model together with the bookkeeping
// needed to read a solution back into an itinerary.
type Program struct {
	Model      *milp.Model
	Request    trip.Request
	Set        trip.ConstraintSet
	Candidates trip.Candidates
	BigM       float64
	Weights    ObjectiveWeights

	days     []*dayModel
	legs     []trainLeg
	resolver *Resolver
	warnings []string
	logger   zerolog.Logger
}

type BuildOptions struct {
	Weights ObjectiveWeights
	Logger  zerolog.Logger
}

// Warnings lists extension constraints that were skipped or degraded.
func (p *Program) Warnings() []string { return p.warnings }

// Resolver returns the field resolver bound to the program's variables.
func (p *Program) Resolver() *Resolver { return p.resolver }

// Build compiles the request, the candidate sets and the constraint set
// into a MILP. Candidates must already be filtered. Errors are caused by
// malformed constraints.
func Build(req trip.Request, set trip.ConstraintSet, cands trip.Candidates, opts BuildOptions) (*Program, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	set = set.Defaults(req)
	if opts.Weights == (ObjectiveWeights{}) {
		opts.Weights = DefaultWeights()
	}

	p := &Program{
		Model:      milp.NewModel(),
		Request:    req,
		Set:        set,
		Candidates: cands,
		BigM:       DeriveBigM(req, set, cands),
		Weights:    opts.Weights,
		logger:     opts.Logger,
	}

	p.declareDays()
	p.declareTrains()
	p.declareStructure()
	for _, d := range p.days {
		p.declareRouting(d)
		p.linearizeTransport(d)
	}

	p.resolver = newResolver(p)
	if err := p.compileRules(); err != nil {
		return nil, err
	}
	p.declareObjective()

	if err := p.Model.LowerDisjunctions(); err != nil {
		return nil, fmt.Errorf("lower disjunctions: %w", err)
	}
	if err := p.Model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return p, nil
}

func effectiveWindow(w, stage trip.Window) trip.Window {
	if w.IsZero() {
		return stage
	}
	return w
}

func (p *Program) declareDays() {
	req := p.Request
	windows := req.StageWindows()
	total := req.TotalDays()
	m := p.Model

	for idx := 0; idx < total; idx++ {
		day := idx + 1
		s := req.StageOf(day)
		sc := p.Candidates.Stage(s)
		d := &dayModel{
			Index:    idx,
			Day:      day,
			Stage:    s,
			City:     req.Stages[s].Destination,
			Transfer: req.IsTransferDay(day),
			Last:     day == total,
		}

		for k, a := range sc.Attractions {
			if effectiveWindow(a.Window, windows[s]).Contains(day) {
				d.Attractions = append(d.Attractions, poiVar[trip.Attraction]{Item: a, Key: k, Sel: m.NewBinary(fmt.Sprintf("select_attraction[%d,%s]", day, a.ID))})
			}
		}
		for k, r := range sc.Restaurants {
			if effectiveWindow(r.Window, windows[s]).Contains(day) {
				d.Restaurants = append(d.Restaurants, poiVar[trip.Restaurant]{Item: r, Key: k, Sel: m.NewBinary(fmt.Sprintf("select_restaurant[%d,%s]", day, r.ID))})
			}
		}
		for k, h := range sc.Accommodations {
			if effectiveWindow(h.Window, windows[s]).Contains(day) {
				d.Hotels = append(d.Hotels, poiVar[trip.Accommodation]{Item: h, Key: k, Sel: m.NewBinary(fmt.Sprintf("select_hotel[%d,%s]", day, h.ID))})
			}
		}

		d.Mode = m.NewBinary(fmt.Sprintf("transport_mode[%d]", day))
		switch p.Set.PreferenceFor(d.City) {
		case trip.PreferPublicTransit:
			m.Fix(d.Mode, 1)
		case trip.PreferTaxi:
			m.Fix(d.Mode, 0)
		}

		p.days = append(p.days, d)
	}
}

func (p *Program) declareTrains() {
	req := p.Request
	c := p.Candidates
	windows := req.StageWindows()
	last := req.TotalDays() - 1

	add := func(name string, day int, options []trip.TrainOption) {
		if len(options) == 0 {
			return
		}
		leg := trainLeg{Name: name, Day: day}
		for _, o := range options {
			leg.Options = append(leg.Options, trainVar{Option: o, Sel: p.Model.NewBinary(fmt.Sprintf("select_train_%s[%s]", name, o.ID))})
		}
		p.legs = append(p.legs, leg)
	}

	add("departure", 0, c.Departure)
	for k := 0; k < len(windows)-1 && k < len(c.Transfers); k++ {
		add(fmt.Sprintf("transfer_%d", k), windows[k].End-1, c.Transfers[k])
	}
	add("back", last, c.Return)
}

func sumSel[T any](vs []poiVar[T]) milp.LinExpr {
	var e milp.LinExpr
	for _, v := range vs {
		e = e.AddTerm(v.Sel, 1)
	}
	return e
}

func (p *Program) declareStructure() {
	m := p.Model
	set := p.Set
	_, attractionRule := set.Rule("attraction_count")
	_, restaurantRule := set.Rule("restaurant_count")
	_, hotelRule := set.Rule("hotel_count")

	for _, d := range p.days {
		if !attractionRule {
			m.Add(fmt.Sprintf("attractions_per_day[%d]", d.Day), sumSel(d.Attractions), milp.Equal, milp.Constant(float64(countFor(set.AttractionsPerDay, len(d.Attractions)))))
		}
		if !restaurantRule {
			m.Add(fmt.Sprintf("restaurants_per_day[%d]", d.Day), sumSel(d.Restaurants), milp.Equal, milp.Constant(float64(countFor(set.RestaurantsPerDay, len(d.Restaurants)))))
		}
		if !hotelRule {
			m.Add(fmt.Sprintf("hotels_per_day[%d]", d.Day), sumSel(d.Hotels), milp.Equal, milp.Constant(float64(countFor(set.HotelsPerDay, len(d.Hotels)))))
		}
	}

	// Each attraction and restaurant is visited on at most one day.
	type key struct{ stage, item int }
	var attractionKeys, restaurantKeys []key
	attractionDays := map[key]milp.LinExpr{}
	restaurantDays := map[key]milp.LinExpr{}
	for _, d := range p.days {
		for _, a := range d.Attractions {
			k := key{d.Stage, a.Key}
			if _, ok := attractionDays[k]; !ok {
				attractionKeys = append(attractionKeys, k)
			}
			attractionDays[k] = attractionDays[k].AddTerm(a.Sel, 1)
		}
		for _, r := range d.Restaurants {
			k := key{d.Stage, r.Key}
			if _, ok := restaurantDays[k]; !ok {
				restaurantKeys = append(restaurantKeys, k)
			}
			restaurantDays[k] = restaurantDays[k].AddTerm(r.Sel, 1)
		}
	}
	for _, k := range attractionKeys {
		if e := attractionDays[k]; len(e.Terms) > 1 {
			m.Add(fmt.Sprintf("attraction_once[%d,%d]", k.stage, k.item), e, milp.LessEq, milp.Constant(1))
		}
	}
	for _, k := range restaurantKeys {
		if e := restaurantDays[k]; len(e.Terms) > 1 {
			m.Add(fmt.Sprintf("restaurant_once[%d,%d]", k.stage, k.item), e, milp.LessEq, milp.Constant(1))
		}
	}

	// Hotel continuity inside a stage. Transfer days break it since the
	// next day starts in another city.
	if !set.AllowHotelChange {
		for i := 0; i+1 < len(p.days); i++ {
			d, next := p.days[i], p.days[i+1]
			if d.Stage != next.Stage {
				continue
			}
			sel := map[int]milp.LinExpr{}
			for _, h := range d.Hotels {
				sel[h.Key] = sel[h.Key].AddTerm(h.Sel, 1)
			}
			for _, h := range next.Hotels {
				sel[h.Key] = sel[h.Key].AddTerm(h.Sel, -1)
			}
			for _, k := range slices.Sorted(maps.Keys(sel)) {
				m.Add(fmt.Sprintf("hotel_continuity[%d,%d]", d.Day, k), sel[k], milp.Equal, milp.Constant(0))
			}
		}
	}

	for _, leg := range p.legs {
		var e milp.LinExpr
		for _, o := range leg.Options {
			e = e.AddTerm(o.Sel, 1)
		}
		m.Add("train_"+leg.Name, e, milp.Equal, milp.Constant(1))
	}
}

// countFor is the required per-day count: want when the day has any
// candidate, 0 otherwise.
func countFor(want, available int) int {
	if available == 0 {
		return 0
	}
	return want
}
