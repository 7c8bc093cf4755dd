package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"bloodzy/backend/config"
	"bloodzy/backend/handlers/admin"
	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/handlers/donation"
	"bloodzy/backend/handlers/hospital"
	"bloodzy/backend/handlers/profile"
	"bloodzy/backend/handlers/search"
	"bloodzy/backend/handlers/status"
	"bloodzy/backend/handlers/user"
	"bloodzy/backend/logging"
	"bloodzy/backend/store"
)

// Dependencies collects everything the routes need.
type Dependencies struct {
	Config    config.Config
	Logger    *slog.Logger
	Tokens    *auth.Tokens
	Accounts  store.AccountStore
	Users     store.UserDirectory
	Donors    store.DonorStore
	Donations store.DonationStore
	Hospitals store.HospitalStore
	Searcher  search.Searcher
	Stats     status.StatsSource
	Health    HealthService
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	cfg := deps.Config

	r := mux.NewRouter()

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", admin.KeyHeader, logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	})

	donorHandler := profile.NewHandler(deps.Donors, logger)
	statusHandler := status.NewHandler(deps.Donors, deps.Stats, deps.Users, logger)
	donationHandler := donation.NewHandler(deps.Donations, deps.Donors, logger)
	hospitalHandler := hospital.NewHandler(deps.Hospitals, cfg.Search.MaxRadiusKm, logger)

	r.HandleFunc("/healthz", HealthHandler(deps.Health, logger)).Methods("GET")

	// Public routes (no auth required)
	r.HandleFunc("/api/auth/signup", auth.SignupHandler(deps.Accounts, deps.Tokens, logger)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", auth.LoginHandler(deps.Accounts, deps.Tokens, logger)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/donors/nearby", search.NearbyDonorsHandler(deps.Searcher, search.Limits{
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxRadiusKm:     cfg.Search.MaxRadiusKm,
	}, logger)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/eligibility/check", statusHandler.CheckEligibilityHandler).Methods("POST", "OPTIONS")

	// Hospital directory
	r.HandleFunc("/api/hospitals", hospitalHandler.ListHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/hospitals/cities", hospitalHandler.CitiesHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/hospitals/nearby", hospitalHandler.NearbyHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/hospitals/{id:[0-9]+}", hospitalHandler.GetHandler).Methods("GET", "OPTIONS")

	if cfg.EnableTestData {
		generator := NewTestDataGenerator(deps.Accounts, deps.Donors, deps.Donations, logger)
		r.HandleFunc("/api/test/generate-donors", GenerateTestDonorsHandler(generator)).Methods("POST", "OPTIONS")
	}

	// Admin routes are only mounted when a key is configured
	if cfg.Auth.AdminKey != "" {
		adminHandler := admin.NewHandler(deps.Donors, deps.Donations, logger)
		adm := r.PathPrefix("/api/admin").Subrouter()
		adm.Use(admin.RequireKey(cfg.Auth.AdminKey))
		adm.HandleFunc("/donors", adminHandler.ListDonorsHandler).Methods("GET", "OPTIONS")
		adm.HandleFunc("/donors/{ownerId:[0-9]+}", adminHandler.DeleteDonorHandler).Methods("DELETE", "OPTIONS")
		adm.HandleFunc("/donations/{id}", adminHandler.DeleteDonationHandler).Methods("DELETE", "OPTIONS")
	}

	// Create a subrouter for protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(deps.Tokens.Middleware)

	// Me routes
	protected.HandleFunc("/me", user.GetMeHandler(deps.Users, deps.Donors, logger)).Methods("GET", "OPTIONS")

	// Donor routes
	protected.HandleFunc("/donors/register", donorHandler.RegisterHandler).Methods("POST", "OPTIONS")
	protected.HandleFunc("/donors/me", donorHandler.GetMyDonorHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/donors/me", donorHandler.UpdateMyDonorHandler).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/donors/me/eligibility", statusHandler.MyEligibilityHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/donors/me/stats", statusHandler.MyStatsHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/donors/me/badges", statusHandler.MyBadgesHandler).Methods("GET", "OPTIONS")

	// Donation routes
	protected.HandleFunc("/donations", donationHandler.RecordDonationHandler).Methods("POST", "OPTIONS")
	protected.HandleFunc("/donations", donationHandler.HistoryHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/donations/range", donationHandler.RangeHandler).Methods("GET", "OPTIONS")

	return c.Handler(logging.Middleware(logger)(r))
}
