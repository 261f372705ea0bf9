package main

import (
	"strings"
	"testing"

	"mecabal-location/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := `id,name,type,latitude,longitude,radius_km
ikeja-gra, Ikeja GRA, estate, 6.605, 3.355, 1.0
allen,Allen Avenue,road_based,6.601,3.352,0.5
`
	records, err := parseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Neighborhood{
		ID:       "ikeja-gra",
		Name:     "Ikeja GRA",
		Type:     models.NeighborhoodEstate,
		Center:   models.Coordinates{Latitude: 6.605, Longitude: 3.355},
		RadiusKm: 1,
	}, records[0])
	assert.Equal(t, models.NeighborhoodRoadBased, records[1].Type)
}

func TestParseCSV_Invalid(t *testing.T) {
	const head = "id,name,type,latitude,longitude,radius_km\n"

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "wrong header", input: "prefecture,municipality,address_1,address_2,block_lot,lat\n"},
		{name: "bad latitude", input: head + "a,A,estate,north,3.3,1\n"},
		{name: "bad radius", input: head + "a,A,estate,6.6,3.3,wide\n"},
		{name: "zero radius", input: head + "a,A,estate,6.6,3.3,0\n"},
		{name: "unknown type", input: head + "a,A,castle,6.6,3.3,1\n"},
		{name: "missing column", input: head + "a,A,estate,6.6,3.3\n"},
		{name: "duplicate id", input: head + "a,A,estate,6.6,3.3,1\na,B,estate,6.7,3.4,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestEWKT(t *testing.T) {
	assert.Equal(t, "SRID=4326;POINT(3.355 6.605)", ewkt(models.Coordinates{Latitude: 6.605, Longitude: 3.355}))
}
