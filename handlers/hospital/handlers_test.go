package hospital

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/logging"
	"bloodzy/backend/models"
	"bloodzy/backend/store/memory"
)

func f(v float64) *float64 { return &v }

func router() *mux.Router {
	hospitals := memory.NewHospitalStore(
		models.Hospital{ID: 1, Name: "Mayo Hospital", City: "Lahore", Address: "Anarkali", BloodTypes: "A+,O+",
			Latitude: f(31.5717), Longitude: f(74.3105), Verified: true, BloodBank: true},
		models.Hospital{ID: 2, Name: "Jinnah Hospital", City: "Lahore", Address: "Allama Shabbir Ahmad Usmani Rd", BloodTypes: "O-",
			Latitude: f(31.4846), Longitude: f(74.2997), Emergency24: true},
		models.Hospital{ID: 3, Name: "Aga Khan University Hospital", City: "Karachi", BloodTypes: "AB+",
			Latitude: f(24.8924), Longitude: f(67.0746), Verified: true},
		models.Hospital{ID: 4, Name: "Clinic Without Coordinates", City: "Lahore"},
	)
	h := NewHandler(hospitals, 100, logging.Discard())
	r := mux.NewRouter()
	r.HandleFunc("/api/hospitals", h.ListHandler)
	r.HandleFunc("/api/hospitals/cities", h.CitiesHandler)
	r.HandleFunc("/api/hospitals/nearby", h.NearbyHandler)
	r.HandleFunc("/api/hospitals/{id}", h.GetHandler)
	return r
}

type listBody struct {
	Count     int              `json:"count"`
	Hospitals []NearbyHospital `json:"hospitals"`
}

func get(t *testing.T, target string) (*httptest.ResponseRecorder, listBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body listBody
	if rec.Code == http.StatusOK {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestListFilters(t *testing.T) {
	_, body := get(t, "/api/hospitals?city=lahore")
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, "Clinic Without Coordinates", body.Hospitals[0].Name)

	_, body = get(t, "/api/hospitals?verified=true&bloodBank=true")
	require.Equal(t, 1, body.Count)
	assert.Equal(t, int64(1), body.Hospitals[0].ID)

	_, body = get(t, "/api/hospitals?q=usmani")
	require.Equal(t, 1, body.Count)
	assert.Equal(t, int64(2), body.Hospitals[0].ID)

	_, body = get(t, "/api/hospitals?bloodType=AB")
	require.Equal(t, 1, body.Count)
	assert.Equal(t, int64(3), body.Hospitals[0].ID)
}

func TestCitiesAndGet(t *testing.T) {
	rec, _ := get(t, "/api/hospitals/cities")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cities":["Karachi","Lahore"]}`, rec.Body.String())

	rec, _ = get(t, "/api/hospitals/3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aga Khan")

	rec, _ = get(t, "/api/hospitals/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = get(t, "/api/hospitals/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearbySortsByDistance(t *testing.T) {
	rec, body := get(t, "/api/hospitals/nearby?lat=31.5204&lng=74.3587&radiusKm=15")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, int64(2), body.Hospitals[0].ID)
	assert.Equal(t, int64(1), body.Hospitals[1].ID)
	assert.Less(t, body.Hospitals[0].DistanceKm, body.Hospitals[1].DistanceKm)

	_, body = get(t, "/api/hospitals/nearby?lat=31.5204&lng=74.3587&radiusKm=15&emergency=true")
	require.Equal(t, 1, body.Count)
	assert.Equal(t, int64(2), body.Hospitals[0].ID)
}

func TestNearbyValidation(t *testing.T) {
	for _, target := range []string{
		"/api/hospitals/nearby?lat=31.5",
		"/api/hospitals/nearby?lat=131.5&lng=74",
		"/api/hospitals/nearby?lat=31.5&lng=74&radiusKm=0",
		"/api/hospitals/nearby?lat=31.5&lng=74&radiusKm=500",
		"/api/hospitals/nearby?lat=31.5&lng=74&radiusKm=NaN",
		"/api/hospitals/nearby?lat=31.5&lng=74&radiusKm=-Inf",
	} {
		rec, _ := get(t, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
