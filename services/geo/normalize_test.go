package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShapesAgree(t *testing.T) {
	want := Point{Lat: 40.7, Lng: -74.0}

	cases := []struct {
		name string
		in   LocationInput
	}{
		{"geojson", GeoJSONPoint{Type: "Point", Coordinates: []float64{-74.0, 40.7}}},
		{"bare coordinates", BareCoordinates{Coordinates: []float64{-74.0, 40.7}}},
		{"lat lng", LatLng{Lat: 40.7, Lng: -74.0}},
		{"latitude longitude", LatitudeLongitude{Latitude: 40.7, Longitude: -74.0}},
		{"raw geojson", RawLocation(`{"type":"Point","coordinates":[-74.0,40.7]}`)},
		{"raw lat lng", RawLocation(`{"lat":40.7,"lng":-74.0}`)},
		{"pointer geojson", &GeoJSONPoint{Type: "Point", Coordinates: []float64{-74.0, 40.7}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   LocationInput
	}{
		{"nil", nil},
		{"nil pointer", (*LatLng)(nil)},
		{"short coordinates", GeoJSONPoint{Type: "Point", Coordinates: []float64{1}}},
		{"wrong geometry", GeoJSONPoint{Type: "LineString", Coordinates: []float64{1, 2}}},
		{"nan", LatLng{Lat: math.NaN(), Lng: 1}},
		{"inf", LatitudeLongitude{Latitude: 1, Longitude: math.Inf(1)}},
		{"latitude out of range", LatLng{Lat: 91, Lng: 0}},
		{"longitude out of range", BareCoordinates{Coordinates: []float64{-181, 0}}},
		{"garbage string", RawLocation("not json")},
		{"empty string", RawLocation("")},
		{"string without shape", RawLocation(`{"x":1}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Normalize(tc.in)
			assert.False(t, ok)
		})
	}
}

func TestParseLocationDispatch(t *testing.T) {
	assert.IsType(t, GeoJSONPoint{}, ParseLocation([]byte(`{"type":"Point","coordinates":[20,10]}`)))
	assert.IsType(t, BareCoordinates{}, ParseLocation([]byte(`{"coordinates":[20,10]}`)))
	assert.IsType(t, LatLng{}, ParseLocation([]byte(`{"lat":10,"lng":20}`)))
	assert.IsType(t, LatitudeLongitude{}, ParseLocation([]byte(`{"latitude":10,"longitude":20}`)))
	assert.IsType(t, RawLocation(""), ParseLocation([]byte(`"{\"lat\":10,\"lng\":20}"`)))

	assert.Nil(t, ParseLocation(nil))
	assert.Nil(t, ParseLocation([]byte(`null`)))
	assert.Nil(t, ParseLocation([]byte(`{"lat":10}`)))
	assert.Nil(t, ParseLocation([]byte(`{"lat":"10","lng":"20"}`)))
	assert.Nil(t, ParseLocation([]byte(`{"type":"Point","coordinates":["a","b"]}`)))
}

func TestDoubleEncodedString(t *testing.T) {
	in := ParseLocation([]byte(`"{\"latitude\":10,\"longitude\":20}"`))
	got, ok := Normalize(in)
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 10, Lng: 20}, got)
}

func TestToGeoJSONPutsLongitudeFirst(t *testing.T) {
	p := Point{Lat: 10, Lng: 20}
	g := ToGeoJSON(p)

	assert.Equal(t, "Point", g.Type)
	assert.Equal(t, []float64{20, 10}, g.Coordinates)

	back, ok := Normalize(g)
	require.True(t, ok)
	assert.Equal(t, p, back)
}
