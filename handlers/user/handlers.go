package user

import (
	"errors"
	"log/slog"
	"net/http"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

// GetMeHandler returns the signed-in user's account
// Used by: /api/me
func GetMeHandler(users store.UserDirectory, donors store.DonorStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		owner, err := users.Owner(r.Context(), userID)
		if err != nil {
			respond.Error(w, logger, err)
			return
		}

		resp := MeResponse{
			ID:            owner.ID,
			Username:      owner.Username,
			Email:         owner.Email,
			CreatedAt:     owner.CreatedAt,
			ReferredCount: owner.ReferredCount,
		}

		profile, err := donors.Get(r.Context(), userID)
		var nf *models.NotFoundError
		switch {
		case err == nil:
			resp.IsDonor = true
			resp.BloodGroup = profile.BloodGroup
		case errors.As(err, &nf):
		default:
			respond.Error(w, logger, err)
			return
		}

		respond.JSON(w, http.StatusOK, resp)
	}
}
