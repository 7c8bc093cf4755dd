// Package search serves the public donor search.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/services/matching"
)

// Searcher runs a donor search.
type Searcher interface {
	Search(ctx context.Context, c matching.Criteria, seeker *geo.Point) (matching.Result, error)
}

// Limits are the radius bounds applied to requests.
type Limits struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// Response is the body of GET /api/donors/nearby.
type Response struct {
	Count      int                      `json:"count"`
	Donors     []matching.EnrichedDonor `json:"donors"`
	Message    string                   `json:"message,omitempty"`
	Dropped    *int                     `json:"dropped,omitempty"`
	Unresolved *int                     `json:"unresolved,omitempty"`
}

// NearbyDonorsHandler finds donors by location, blood group and city
// Used by: GET /api/donors/nearby
func NearbyDonorsHandler(searcher Searcher, limits Limits, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		criteria, seeker, err := parseQuery(q, limits)
		if err != nil {
			respond.Error(w, logger, err)
			return
		}

		res, err := searcher.Search(r.Context(), criteria, seeker)
		if err != nil {
			respond.Error(w, logger, err)
			return
		}
		if partial := res.Partial(); partial != nil {
			logger.Warn("donor search returned partial data", "error", partial)
		}

		resp := Response{
			Count:   len(res.Donors),
			Donors:  res.Donors,
			Message: res.Message,
		}
		if resp.Donors == nil {
			resp.Donors = []matching.EnrichedDonor{}
		}
		if diagnostics, _ := strconv.ParseBool(q.Get("diagnostics")); diagnostics {
			resp.Dropped = &res.Dropped
			resp.Unresolved = &res.Unresolved
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

func parseQuery(q url.Values, limits Limits) (matching.Criteria, *geo.Point, error) {
	var c matching.Criteria

	if raw := q.Get("bloodGroup"); raw != "" {
		g, err := models.ParseBloodGroup(raw)
		if err != nil {
			return c, nil, err
		}
		c.BloodGroup = g
	}
	c.City = strings.TrimSpace(q.Get("city"))

	seeker, err := parseSeeker(q.Get("lat"), q.Get("lng"))
	if err != nil {
		return c, nil, err
	}

	radius, err := parseRadius(q)
	if err != nil {
		return c, nil, err
	}
	if radius == nil && seeker != nil {
		d := limits.DefaultRadiusKm
		radius = &d
	}
	if radius != nil && limits.MaxRadiusKm > 0 && *radius > limits.MaxRadiusKm {
		return c, nil, &models.ValidationError{
			Field:   "radius",
			Message: "radius must not exceed " + strconv.FormatFloat(limits.MaxRadiusKm, 'f', -1, 64) + " km",
		}
	}
	c.RadiusKm = radius
	return c, seeker, nil
}

func parseSeeker(rawLat, rawLng string) (*geo.Point, error) {
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	if rawLat == "" || rawLng == "" {
		return nil, &models.ValidationError{Field: "location", Message: "lat and lng must be given together"}
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, &models.ValidationError{Field: "lat", Message: "lat must be a number"}
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return nil, &models.ValidationError{Field: "lng", Message: "lng must be a number"}
	}
	return &geo.Point{Lat: lat, Lng: lng}, nil
}

// parseRadius reads radiusKm, or maxDistance in metres. radiusKm wins when
// both are present.
func parseRadius(q url.Values) (*float64, error) {
	if raw := q.Get("radiusKm"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "radius", Message: "radiusKm must be a number"}
		}
		return &km, nil
	}
	if raw := q.Get("maxDistance"); raw != "" {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "radius", Message: "maxDistance must be a number of metres"}
		}
		km := geo.MetersToKm(m)
		return &km, nil
	}
	return nil, nil
}
