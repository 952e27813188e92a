package trip

import "strings"

// TransportEdge holds the intra-city travel options between two POIs.
// Durations are minutes; costs are per trip (taxi) or per person (bus).
type TransportEdge struct {
	TaxiDuration float64 `json:"taxi_duration"`
	TaxiCost     float64 `json:"taxi_cost"`
	BusDuration  float64 `json:"bus_duration"`
	BusCost      float64 `json:"bus_cost"`
}

// TransportMatrix maps "idA,idB" to the edge between the two POIs. Pairs are
// unordered: a lookup tries both orders. A missing pair is unreachable.
type TransportMatrix map[string]TransportEdge

func PairKey(a, b string) string {
	return a + "," + b
}

func (m TransportMatrix) Lookup(a, b string) (TransportEdge, bool) {
	if e, ok := m[PairKey(a, b)]; ok {
		return e, true
	}
	e, ok := m[PairKey(b, a)]
	return e, ok
}

// Set stores the edge under the canonical key.
func (m TransportMatrix) Set(a, b string, e TransportEdge) {
	m[PairKey(a, b)] = e
}

// SplitKey is the inverse of PairKey.
func SplitKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, ",")
	return a, b, ok && a != "" && b != ""
}

// TrainOption is one inter-city transport candidate. Price is per person;
// duration in minutes.
type TrainOption struct {
	ID                 string  `json:"train_number"`
	Cost               float64 `json:"cost"`
	Duration           float64 `json:"duration"`
	OriginID           string  `json:"origin_id"`
	OriginStation      string  `json:"origin_station"`
	DestinationID      string  `json:"destination_id"`
	DestinationStation string  `json:"destination_station"`
}

func (t TrainOption) Fields() map[string]any {
	return map[string]any{
		"train_number":        t.ID,
		"cost":                t.Cost,
		"duration":            t.Duration,
		"origin_id":           t.OriginID,
		"origin_station":      t.OriginStation,
		"destination_id":      t.DestinationID,
		"destination_station": t.DestinationStation,
	}
}
