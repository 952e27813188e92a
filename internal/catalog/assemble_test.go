package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/trip"
)

func twoCityRequest() trip.Request {
	return trip.Request{
		StartDate: "2025-05-01",
		Travelers: 2,
		Stages: []trip.Stage{
			{Origin: "Milan", Destination: "Rome", Days: 3},
			{Origin: "Rome", Destination: "Florence", Days: 2},
		},
	}
}

func TestAssemble_AnnotatesStagesAndWindows(t *testing.T) {
	src, err := LoadFile("testdata/catalog.json")
	require.NoError(t, err)

	cands, err := Assemble(context.Background(), src, twoCityRequest())
	require.NoError(t, err)
	require.Len(t, cands.Stages, 2)

	for _, a := range cands.Stages[0].Attractions {
		assert.Equal(t, 0, a.Stage)
		assert.Equal(t, trip.Window{Start: 1, End: 3}, a.Window)
		assert.Equal(t, "Rome", a.City)
	}
	for _, h := range cands.Stages[1].Accommodations {
		assert.Equal(t, 1, h.Stage)
		assert.Equal(t, trip.Window{Start: 4, End: 5}, h.Window)
	}

	require.Len(t, cands.Departure, 2)
	require.Len(t, cands.Transfers, 1)
	assert.Equal(t, "FR9520", cands.Transfers[0][0].ID)
	require.Len(t, cands.Return, 1)
	assert.Equal(t, "FR9530", cands.Return[0].ID)
}

func TestAssemble_DoesNotShareRecordsWithSource(t *testing.T) {
	src, err := LoadFile("testdata/catalog.json")
	require.NoError(t, err)

	cands, err := Assemble(context.Background(), src, twoCityRequest())
	require.NoError(t, err)
	cands.Stages[0].Attractions[0].Cost = 999
	cands.Stages[0].Transport["x,y"] = trip.TransportEdge{}

	rome, err := src.City(context.Background(), "Rome")
	require.NoError(t, err)
	assert.NotEqual(t, 999.0, rome.Attractions[0].Cost)
	assert.NotContains(t, rome.Transport, "x,y")
}

func TestAssemble_DegradesOnMissingData(t *testing.T) {
	boom := errors.New("upstream down")
	src := fakeSource{
		city: func(name string) (City, error) {
			if name == "Florence" {
				return City{}, boom
			}
			return City{Attractions: []trip.Attraction{{ID: "a"}}}, nil
		},
		trains: func(origin, destination string) ([]trip.TrainOption, error) {
			if destination == "Milan" {
				return nil, boom
			}
			return []trip.TrainOption{{ID: origin + ">" + destination}}, nil
		},
	}

	cands, err := Assemble(context.Background(), src, twoCityRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, cands.Stages[0].Attractions, 1)
	assert.Empty(t, cands.Stages[1].Attractions)
	assert.NotNil(t, cands.Stages[1].Transport)
	assert.Empty(t, cands.Return)
	assert.Equal(t, "Milan>Rome", cands.Departure[0].ID)
}

func TestAssemble_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := fakeSource{city: func(string) (City, error) { return City{}, context.Canceled }}

	_, err := Assemble(ctx, src, twoCityRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
