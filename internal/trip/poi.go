package trip

// Attraction, Accommodation and Restaurant are the point-of-interest records
// of a city. Window and Stage are set by the catalog when candidates are
// assembled for a request. Durations are minutes.

type Attraction struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city,omitempty"`
	Cost     float64 `json:"cost"`
	Type     string  `json:"type,omitempty"`
	Rating   float64 `json:"rating"`
	Duration float64 `json:"duration"`
	Window
	Stage int `json:"stage"`
}

type Accommodation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	City    string   `json:"city,omitempty"`
	Cost    float64  `json:"cost"`
	Type    string   `json:"type,omitempty"`
	Rating  float64  `json:"rating"`
	Feature []string `json:"feature,omitempty"`
	Window
	Stage int `json:"stage"`
}

type Restaurant struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	City            string   `json:"city,omitempty"`
	Cost            float64  `json:"cost"`
	Type            string   `json:"type,omitempty"`
	Rating          float64  `json:"rating"`
	RecommendedFood []string `json:"recommended_food,omitempty"`
	QueueTime       float64  `json:"queue_time"`
	Duration        float64  `json:"duration"`
	Window
	Stage int `json:"stage"`
}

// Fields exposes the record to expression filters.
func (a Attraction) Fields() map[string]any {
	return map[string]any{
		"id":          a.ID,
		"name":        a.Name,
		"city":        a.City,
		"cost":        a.Cost,
		"type":        a.Type,
		"rating":      a.Rating,
		"duration":    a.Duration,
		"start_stage": float64(a.Start),
		"end_stage":   float64(a.End),
	}
}

func (h Accommodation) Fields() map[string]any {
	return map[string]any{
		"id":          h.ID,
		"name":        h.Name,
		"city":        h.City,
		"cost":        h.Cost,
		"type":        h.Type,
		"rating":      h.Rating,
		"feature":     stringsAny(h.Feature),
		"start_stage": float64(h.Start),
		"end_stage":   float64(h.End),
	}
}

func (r Restaurant) Fields() map[string]any {
	return map[string]any{
		"id":               r.ID,
		"name":             r.Name,
		"city":             r.City,
		"cost":             r.Cost,
		"type":             r.Type,
		"rating":           r.Rating,
		"recommended_food": stringsAny(r.RecommendedFood),
		"queue_time":       r.QueueTime,
		"duration":         r.Duration,
		"start_stage":      float64(r.Start),
		"end_stage":        float64(r.End),
	}
}

func stringsAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
