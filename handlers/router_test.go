package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/config"
	"bloodzy/backend/handlers/admin"
	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/logging"
	"bloodzy/backend/models"
	"bloodzy/backend/services/matching"
	"bloodzy/backend/services/stats"
	"bloodzy/backend/store/memory"
)

type testServer struct {
	handler http.Handler
	donors  *memory.DonorStore
}

func newTestServer(t *testing.T, health HealthService) testServer {
	t.Helper()
	cfg := config.Config{
		HTTP:   config.HTTPConfig{AllowedOrigins: []string{"*"}},
		Auth:   config.AuthConfig{JWTSecret: "secret", AdminKey: "admin-key"},
		Search: config.SearchConfig{DefaultRadiusKm: 5, MaxRadiusKm: 100},
	}
	users := memory.NewUserDirectory()
	donors := memory.NewDonorStore()
	donations := memory.NewDonationStore()
	logger := logging.Discard()

	return testServer{
		handler: NewRouter(Dependencies{
			Config:    cfg,
			Logger:    logger,
			Tokens:    auth.NewTokens(cfg.Auth.JWTSecret, time.Hour),
			Accounts:  users,
			Users:     users,
			Donors:    donors,
			Donations: donations,
			Hospitals: memory.NewHospitalStore(models.Hospital{ID: 1, Name: "General", City: "London"}),
			Searcher:  matching.New(donors, users, matching.WithLogger(logger)),
			Stats:     stats.NewService(donations, nil, logger),
			Health:    health,
		}),
		donors: donors,
	}
}

func (s testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestDonorJourney(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", `{"username":"ayesha","email":"ayesha@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Token

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/donors/me", "", "").Code)

	rec = s.do(t, http.MethodPost, "/api/donors/register", token,
		`{"blood_group":"O-","age":29,"gender":"Female","phone":"07700","city":"London","location":{"lat":51.505,"lng":-0.09}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/donors/nearby?lat=51.5&lng=-0.1&bloodGroup=O-", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Count  int `json:"count"`
		Donors []struct {
			Name       string   `json:"name"`
			DistanceKm *float64 `json:"distance_km"`
		} `json:"donors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "ayesha", found.Donors[0].Name)
	require.NotNil(t, found.Donors[0].DistanceKm)
	assert.Less(t, *found.Donors[0].DistanceKm, 1.0)

	rec = s.do(t, http.MethodPost, "/api/donations", token, `{"donation_date":"2026-01-05","donation_center":"St Thomas"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/donors/me/badges", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rank":"Bronze"`)

	rec = s.do(t, http.MethodGet, "/api/donors/me/stats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_donations":1`)

	rec = s.do(t, http.MethodGet, "/api/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_donor":true`)
}

func TestRouterAssignsRequestID(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/hospitals", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logging.RequestIDHeader))
}

func TestAdminRoutesNeedKey(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/donors", "", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/donors", nil)
	req.Header.Set(admin.KeyHeader, "admin-key")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTestDataRouteIsDisabledByDefault(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/test/generate-donors", "", "").Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Checks{"postgres": func(context.Context) error { return nil }})
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	s = newTestServer(t, Checks{
		"postgres": func(context.Context) error { return nil },
		"mongo":    func(context.Context) error { return errors.New("server selection timeout") },
	})
	rec = s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "mongo: server selection timeout", body["error"])
}
