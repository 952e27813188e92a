// internal/trip/itinerary.go
package trip

type PlanStatus string

const (
	StatusOptimal  PlanStatus = "optimal"
	StatusFeasible PlanStatus = "feasible"
	StatusFallback PlanStatus = "fallback"
)

type TransportMode string

const (
	ModePublicTransit TransportMode = "public_transit"
	ModeTaxi          TransportMode = "taxi"
)

// Itinerary is the plan document. Solved and fallback plans have the same
// shape; fallback plans carry zero costs and times.
type Itinerary struct {
	RunID          string        `json:"run_id"`
	Status         PlanStatus    `json:"status"`
	Budget         float64       `json:"budget"`
	Travelers      int           `json:"travelers"`
	Cities         []CityPair    `json:"cities"`
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	Days           []DayPlan     `json:"days"`
	Departure      *TrainOption  `json:"departure_transport"`
	Transfers      []TrainOption `json:"transfer_transport"`
	Return         *TrainOption  `json:"back_transport"`
	TotalCost      float64       `json:"total_cost"`
	ObjectiveValue float64       `json:"objective_value"`
}

type CityPair struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type DayPlan struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	City  string `json:"city"`
	Stage int    `json:"stage"`

	Hotel       *Accommodation `json:"hotel"`
	Attractions []Visit        `json:"attractions"`
	Breakfast   *Restaurant    `json:"breakfast"`
	Lunch       *Restaurant    `json:"lunch"`
	Dinner      *Restaurant    `json:"dinner"`
	// Extra holds restaurants beyond the three meal slots.
	Extra []Restaurant `json:"extra_restaurants"`

	Transport DayTransport  `json:"transport"`
	Cost      CostBreakdown `json:"cost"`
	Time      TimeBreakdown `json:"time"`
}

// Visit is an attraction with its 1-based position in the day's route.
type Visit struct {
	Attraction
	Order int `json:"order"`
}

type DayTransport struct {
	Mode     TransportMode `json:"mode"`
	Cost     float64       `json:"cost"`
	Duration float64       `json:"duration"`
}

type CostBreakdown struct {
	Attractions    float64 `json:"attractions"`
	Restaurants    float64 `json:"restaurants"`
	Hotel          float64 `json:"hotel"`
	Transportation float64 `json:"transportation"`
	Intercity      float64 `json:"intercity"`
	Total          float64 `json:"total"`
}

type TimeBreakdown struct {
	Attractions    float64 `json:"attractions"`
	Restaurants    float64 `json:"restaurants"`
	Queue          float64 `json:"queue"`
	Transportation float64 `json:"transportation"`
	Total          float64 `json:"total"`
}

// NewItinerary returns the document skeleton for req: header fields and one
// empty day per trip day.
func NewItinerary(req Request) Itinerary {
	it := Itinerary{
		Status:    StatusFallback,
		Budget:    req.Budget,
		Travelers: req.Travelers,
		StartDate: req.StartDate,
		EndDate:   req.EndDate(),
		Cities:    make([]CityPair, 0, len(req.Stages)),
		Transfers: []TrainOption{},
	}
	for _, s := range req.Stages {
		it.Cities = append(it.Cities, CityPair{Origin: s.Origin, Destination: s.Destination})
	}

	windows := req.StageWindows()
	for si, w := range windows {
		for d := w.Start; d <= w.End; d++ {
			it.Days = append(it.Days, DayPlan{
				Day:         d,
				Date:        req.Date(d),
				City:        req.Stages[si].Destination,
				Stage:       si,
				Attractions: []Visit{},
				Extra:       []Restaurant{},
				Transport:   DayTransport{Mode: ModePublicTransit},
			})
		}
	}
	if it.Days == nil {
		it.Days = []DayPlan{}
	}
	return it
}

// SetRestaurants fills the meal slots in order and keeps the rest as extras.
func (d *DayPlan) SetRestaurants(rs []Restaurant) {
	slots := []**Restaurant{&d.Breakfast, &d.Lunch, &d.Dinner}
	d.Extra = []Restaurant{}
	for i, r := range rs {
		if i < len(slots) {
			*slots[i] = &r
			continue
		}
		d.Extra = append(d.Extra, r)
	}
}

// Restaurants returns the filled meal slots followed by the extras.
func (d DayPlan) Restaurants() []Restaurant {
	var out []Restaurant
	for _, r := range []*Restaurant{d.Breakfast, d.Lunch, d.Dinner} {
		if r != nil {
			out = append(out, *r)
		}
	}
	return append(out, d.Extra...)
}
