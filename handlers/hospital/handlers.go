// Package hospital serves the hospital and blood bank directory.
package hospital

import (
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

// DefaultRadiusKm applies to nearby queries without radiusKm.
const DefaultRadiusKm = 10.0

// NearbyHospital is a directory entry with its distance from the seeker.
type NearbyHospital struct {
	models.Hospital
	DistanceKm float64 `json:"distance_km"`
}

// Handler reads the hospital directory.
type Handler struct {
	hospitals   store.HospitalStore
	maxRadiusKm float64
	logger      *slog.Logger
}

func NewHandler(hospitals store.HospitalStore, maxRadiusKm float64, logger *slog.Logger) *Handler {
	return &Handler{hospitals: hospitals, maxRadiusKm: maxRadiusKm, logger: logger}
}

// ListHandler returns hospitals matching the query filters
// Used by: GET /api/hospitals
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.hospitals.List(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"count": len(list), "hospitals": list})
}

// CitiesHandler returns the distinct hospital cities
// Used by: GET /api/hospitals/cities
func (h *Handler) CitiesHandler(w http.ResponseWriter, r *http.Request) {
	cities, err := h.hospitals.Cities(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"cities": cities})
}

// GetHandler returns one hospital
// Used by: GET /api/hospitals/{id}
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, h.logger, &models.ValidationError{Field: "id", Message: "id must be a positive integer"})
		return
	}
	hosp, err := h.hospitals.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, hosp)
}

// NearbyHandler returns hospitals within radiusKm of lat/lng, nearest first.
// The list filters apply as well.
// Used by: GET /api/hospitals/nearby
func (h *Handler) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seeker, radius, err := h.parseNearby(q)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	list, err := h.hospitals.List(r.Context(), parseFilter(q))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	out := []NearbyHospital{}
	for _, hosp := range list {
		if hosp.Latitude == nil || hosp.Longitude == nil {
			continue
		}
		pt, ok := geo.Normalize(geo.LatitudeLongitude{Latitude: *hosp.Latitude, Longitude: *hosp.Longitude})
		if !ok {
			h.logger.Debug("skipping hospital with invalid coordinates", "hospital_id", hosp.ID)
			continue
		}
		km := geo.HaversineKm(seeker, pt)
		if km > radius {
			continue
		}
		out = append(out, NearbyHospital{Hospital: hosp, DistanceKm: km})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })

	respond.JSON(w, http.StatusOK, map[string]any{"count": len(out), "hospitals": out})
}

func (h *Handler) parseNearby(q url.Values) (geo.Point, float64, error) {
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		return geo.Point{}, 0, &models.ValidationError{Field: "location", Message: "lat and lng are required numbers"}
	}
	seeker, ok := geo.Normalize(geo.LatLng{Lat: lat, Lng: lng})
	if !ok {
		return geo.Point{}, 0, &models.ValidationError{Field: "location", Message: "lat/lng is not a valid coordinate"}
	}

	radius := DefaultRadiusKm
	if raw := q.Get("radiusKm"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return geo.Point{}, 0, &models.ValidationError{Field: "radius", Message: "radiusKm must be a positive number"}
		}
		radius = r
	}
	if h.maxRadiusKm > 0 && radius > h.maxRadiusKm {
		return geo.Point{}, 0, &models.ValidationError{Field: "radius", Message: "radius must not exceed " + strconv.FormatFloat(h.maxRadiusKm, 'f', -1, 64) + " km"}
	}
	return seeker, radius, nil
}

func parseFilter(q url.Values) store.HospitalFilter {
	flag := func(key string) bool {
		v, _ := strconv.ParseBool(q.Get(key))
		return v
	}
	return store.HospitalFilter{
		City:         q.Get("city"),
		VerifiedOnly: flag("verified"),
		BloodBank:    flag("bloodBank"),
		Emergency:    flag("emergency"),
		Search:       q.Get("q"),
		BloodType:    q.Get("bloodType"),
	}
}
