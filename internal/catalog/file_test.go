package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	src, err := LoadFile("testdata/catalog.json")
	require.NoError(t, err)
	ctx := context.Background()

	rome, err := src.City(ctx, "rome ")
	require.NoError(t, err)
	assert.Len(t, rome.Attractions, 5)
	assert.Len(t, rome.Accommodations, 3)
	assert.Len(t, rome.Restaurants, 4)
	assert.Len(t, rome.Transport, 28)

	e, ok := rome.Transport.Lookup("rom-h1", "rom-a1")
	require.True(t, ok)
	assert.Positive(t, e.TaxiCost)

	trains, err := src.Trains(ctx, "Milan", "Rome")
	require.NoError(t, err)
	assert.Len(t, trains, 2)
	assert.Equal(t, "FR9511", trains[0].ID)

	none, err := src.Trains(ctx, "Milan", "Naples")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = src.City(ctx, "Naples")
	assert.ErrorIs(t, err, ErrUnknownCity)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"cities": [`))
	assert.ErrorContains(t, err, "decode catalog")

	_, err = LoadFile("testdata/missing.json")
	assert.ErrorContains(t, err, "open catalog")
}

func TestFileSource_Bundle(t *testing.T) {
	src, err := LoadFile("testdata/catalog.json")
	require.NoError(t, err)

	b := src.Bundle()
	assert.Len(t, b.Cities, 2)
	assert.Contains(t, b.Cities, "florence")
	assert.Len(t, b.Trains, 4)
}
