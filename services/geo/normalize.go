// Package geo turns the location shapes found in donor records into a single
// coordinate pair and measures great-circle distances between pairs.
package geo

import (
	"encoding/json"
	"math"
)

// Point is a canonical latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationInput is one of the location shapes accepted at the ingestion
// boundary: GeoJSONPoint, BareCoordinates, LatLng, LatitudeLongitude or
// RawLocation. Normalize is the only place that interprets them.
type LocationInput interface {
	isLocationInput()
}

// GeoJSONPoint is {type:"Point", coordinates:[lng, lat]}.
type GeoJSONPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// BareCoordinates is {coordinates:[lng, lat]} without a type member.
type BareCoordinates struct {
	Coordinates []float64 `json:"coordinates"`
}

// LatLng is the {lat, lng} shape sent by browsers.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatitudeLongitude is the {latitude, longitude} shape.
type LatitudeLongitude struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RawLocation is a JSON-encoded string holding any of the other shapes.
type RawLocation string

func (GeoJSONPoint) isLocationInput()      {}
func (BareCoordinates) isLocationInput()   {}
func (LatLng) isLocationInput()            {}
func (LatitudeLongitude) isLocationInput() {}
func (RawLocation) isLocationInput()       {}

const pointType = "Point"

// Normalize resolves in to a Point. The boolean is false when the input is
// missing, unparseable, non-finite or outside the valid degree ranges; callers
// treat that as "exclude this record", never as a failure.
func Normalize(in LocationInput) (Point, bool) {
	switch v := in.(type) {
	case nil:
		return Point{}, false
	case GeoJSONPoint:
		if v.Type != "" && v.Type != pointType {
			return Point{}, false
		}
		return fromPair(v.Coordinates)
	case *GeoJSONPoint:
		if v == nil {
			return Point{}, false
		}
		return Normalize(*v)
	case BareCoordinates:
		return fromPair(v.Coordinates)
	case *BareCoordinates:
		if v == nil {
			return Point{}, false
		}
		return fromPair(v.Coordinates)
	case LatLng:
		return checked(v.Lat, v.Lng)
	case *LatLng:
		if v == nil {
			return Point{}, false
		}
		return checked(v.Lat, v.Lng)
	case LatitudeLongitude:
		return checked(v.Latitude, v.Longitude)
	case *LatitudeLongitude:
		if v == nil {
			return Point{}, false
		}
		return checked(v.Latitude, v.Longitude)
	case RawLocation:
		return Normalize(ParseLocation([]byte(v)))
	default:
		return Point{}, false
	}
}

// ParseLocation decodes a JSON document into the matching LocationInput.
// It returns nil when the document is not JSON or matches no known shape.
func ParseLocation(data []byte) LocationInput {
	if len(data) == 0 {
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return FromValue(raw)
}

// FromValue classifies an already-decoded value (a JSON object decoded into
// map[string]any, or a string holding JSON).
func FromValue(v any) LocationInput {
	switch t := v.(type) {
	case string:
		return RawLocation(t)
	case map[string]any:
		return fromMap(t)
	case LocationInput:
		return t
	default:
		return nil
	}
}

func fromMap(m map[string]any) LocationInput {
	// GeoJSON is the stricter match, so it wins over a bare coordinates array.
	if typ, ok := m["type"].(string); ok && typ == pointType {
		coords, ok := floats(m["coordinates"])
		if !ok {
			return nil
		}
		return GeoJSONPoint{Type: typ, Coordinates: coords}
	}
	if c, ok := m["coordinates"]; ok {
		coords, ok := floats(c)
		if !ok {
			return nil
		}
		return BareCoordinates{Coordinates: coords}
	}
	if lat, ok := number(m["lat"]); ok {
		if lng, ok := number(m["lng"]); ok {
			return LatLng{Lat: lat, Lng: lng}
		}
		return nil
	}
	if lat, ok := number(m["latitude"]); ok {
		if lng, ok := number(m["longitude"]); ok {
			return LatitudeLongitude{Latitude: lat, Longitude: lng}
		}
	}
	return nil
}

// ToGeoJSON is the write-side inverse of Normalize. GeoJSON stores longitude
// first.
func ToGeoJSON(p Point) GeoJSONPoint {
	return GeoJSONPoint{Type: pointType, Coordinates: []float64{p.Lng, p.Lat}}
}

// Valid reports whether p is a finite coordinate within degree ranges.
func (p Point) Valid() bool {
	_, ok := checked(p.Lat, p.Lng)
	return ok
}

func fromPair(coords []float64) (Point, bool) {
	if len(coords) < 2 {
		return Point{}, false
	}
	return checked(coords[1], coords[0])
}

func checked(lat, lng float64) (Point, bool) {
	if !finite(lat) || !finite(lng) {
		return Point{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func floats(v any) ([]float64, bool) {
	switch arr := v.(type) {
	case []float64:
		return arr, true
	case []any:
		out := make([]float64, 0, len(arr))
		for _, item := range arr {
			f, ok := number(item)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		return nil, false
	}
}
