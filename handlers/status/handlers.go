// Package status serves the derived views of a donor: eligibility, donation
// statistics and badges.
package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/services/badges"
	"bloodzy/backend/services/eligibility"
	"bloodzy/backend/services/stats"
	"bloodzy/backend/store"
)

// StatsSource computes donation statistics for an owner.
type StatsSource interface {
	ForOwner(ctx context.Context, ownerID int64) (stats.Statistics, error)
}

// Handler reads profiles, records and accounts to build status views.
type Handler struct {
	donors store.DonorStore
	stats  StatsSource
	users  store.UserDirectory
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(donors store.DonorStore, st StatsSource, users store.UserDirectory, logger *slog.Logger) *Handler {
	return &Handler{donors: donors, stats: st, users: users, logger: logger, now: time.Now}
}

// BadgesResponse is the badge evaluation together with the statistics it was
// computed from.
type BadgesResponse struct {
	badges.Result
	Stats stats.Statistics `json:"stats"`
}

// MyEligibilityHandler checks the caller's stored profile
// Used by: GET /api/donors/me/eligibility
func (h *Handler) MyEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	p, err := h.donors.Get(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, eligibility.Check(eligibility.SnapshotFromProfile(p), h.now()))
}

// CheckEligibilityHandler checks a snapshot posted by the caller
// Used by: POST /api/eligibility/check
func (h *Handler) CheckEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	var s eligibility.Snapshot
	if err := respond.Decode(r, &s); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if s.Age <= 0 {
		respond.Error(w, h.logger, &models.ValidationError{Field: "age", Message: "age is required"})
		return
	}
	respond.JSON(w, http.StatusOK, eligibility.Check(s, h.now()))
}

// MyStatsHandler returns the caller's donation statistics
// Used by: GET /api/donors/me/stats
func (h *Handler) MyStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	s, err := h.stats.ForOwner(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

// MyBadgesHandler evaluates the caller's badges and rank
// Used by: GET /api/donors/me/badges
func (h *Handler) MyBadgesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	owner, err := h.users.Owner(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	s, err := h.stats.ForOwner(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	result := badges.Evaluate(s, badges.UserContext{
		CreatedAt:     owner.CreatedAt,
		ReferredCount: owner.ReferredCount,
	}, h.now())
	respond.JSON(w, http.StatusOK, BadgesResponse{Result: result, Stats: s})
}
