// Package catalog supplies the POI, transport and train records a trip is
// planned from.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

var ErrUnknownCity = errors.New("catalog: unknown city")

// City holds the records of one destination and the transport matrix
// between them.
type City struct {
	Attractions    []trip.Attraction    `json:"attractions"`
	Accommodations []trip.Accommodation `json:"accommodations"`
	Restaurants    []trip.Restaurant    `json:"restaurants"`
	Transport      trip.TransportMatrix `json:"transport"`
}

// Source is a read-only record store.
type Source interface {
	City(ctx context.Context, name string) (City, error)
	Trains(ctx context.Context, origin, destination string) ([]trip.TrainOption, error)
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
