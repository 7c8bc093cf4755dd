package profile

import (
	"log/slog"
	"net/http"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/store"
)

// Handler serves the signed-in user's donor profile.
type Handler struct {
	donors store.DonorStore
	logger *slog.Logger
}

func NewHandler(donors store.DonorStore, logger *slog.Logger) *Handler {
	return &Handler{donors: donors, logger: logger}
}

// RegisterHandler creates the caller's donor profile
// Used by: POST /api/donors/register
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	p, err := req.Profile(userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	created, err := h.donors.Insert(r.Context(), p)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	h.logger.Info("donor registered", "user_id", userID, "blood_group", created.BloodGroup, "city", created.City)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Donor registered successfully!",
		"donor":   NewDonorResponse(created),
	})
}

// GetMyDonorHandler returns the caller's donor profile
// Used by: GET /api/donors/me
func (h *Handler) GetMyDonorHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	p, err := h.donors.Get(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"donor": NewDonorResponse(p)})
}

// UpdateMyDonorHandler applies a partial update to the caller's profile
// Used by: PUT /api/donors/me
func (h *Handler) UpdateMyDonorHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	u, err := req.Update()
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	p, err := h.donors.Update(r.Context(), userID, u)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Donor profile updated",
		"donor":   NewDonorResponse(p),
	})
}
