package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

// Bundle is a whole catalog in one JSON document.
type Bundle struct {
	Cities map[string]City `json:"cities"`
	Trains []Route         `json:"trains"`
}

// Route lists the train options between two cities.
type Route struct {
	Origin      string             `json:"origin"`
	Destination string             `json:"destination"`
	Options     []trip.TrainOption `json:"options"`
}

// FileSource serves a Bundle held in memory.
type FileSource struct {
	cities map[string]City
	trains map[[2]string][]trip.TrainOption
}

func LoadFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*FileSource, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewFileSource(b), nil
}

func NewFileSource(b Bundle) *FileSource {
	s := &FileSource{
		cities: make(map[string]City, len(b.Cities)),
		trains: make(map[[2]string][]trip.TrainOption, len(b.Trains)),
	}
	for name, c := range b.Cities {
		if c.Transport == nil {
			c.Transport = trip.TransportMatrix{}
		}
		s.cities[normalize(name)] = c
	}
	for _, r := range b.Trains {
		key := [2]string{normalize(r.Origin), normalize(r.Destination)}
		s.trains[key] = append(s.trains[key], r.Options...)
	}
	return s
}

func (s *FileSource) City(_ context.Context, name string) (City, error) {
	c, ok := s.cities[normalize(name)]
	if !ok {
		return City{}, fmt.Errorf("%w: %q", ErrUnknownCity, name)
	}
	return c, nil
}

// Trains returns no options, and no error, for an unknown route.
func (s *FileSource) Trains(_ context.Context, origin, destination string) ([]trip.TrainOption, error) {
	return s.trains[[2]string{normalize(origin), normalize(destination)}], nil
}

// Bundle returns the records in s.
func (s *FileSource) Bundle() Bundle {
	b := Bundle{Cities: make(map[string]City, len(s.cities))}
	for name, c := range s.cities {
		b.Cities[name] = c
	}
	for key, opts := range s.trains {
		b.Trains = append(b.Trains, Route{Origin: key[0], Destination: key[1], Options: opts})
	}
	return b
}
