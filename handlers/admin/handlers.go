// Package admin serves the operator endpoints guarded by the admin API key.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bloodzy/backend/handlers/profile"
	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

// KeyHeader carries the admin API key.
const KeyHeader = "X-Admin-Key"

// Listing limits for GET /api/admin/donors.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// RequireKey rejects requests whose KeyHeader does not match key.
func RequireKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(KeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				respond.Message(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type Handler struct {
	donors    store.DonorStore
	donations store.DonationStore
	logger    *slog.Logger
}

func NewHandler(donors store.DonorStore, donations store.DonationStore, logger *slog.Logger) *Handler {
	return &Handler{donors: donors, donations: donations, logger: logger}
}

// ListDonorsHandler returns donors, available first and then newest
// registrations first
// Used by: GET /api/admin/donors?limit=
func (h *Handler) ListDonorsHandler(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(w, h.logger, &models.ValidationError{Field: "limit", Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, MaxListLimit)
	}

	found, err := h.donors.Find(r.Context(), store.DonorQuery{Limit: limit})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	out := make([]profile.DonorResponse, 0, len(found))
	for _, p := range found {
		out = append(out, profile.NewDonorResponse(p))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"count": len(out), "donors": out})
}

// DeleteDonorHandler removes a donor profile
// Used by: DELETE /api/admin/donors/{ownerId}
func (h *Handler) DeleteDonorHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(mux.Vars(r)["ownerId"], 10, 64)
	if err != nil || ownerID <= 0 {
		respond.Error(w, h.logger, &models.ValidationError{Field: "ownerId", Message: "ownerId must be a positive integer"})
		return
	}
	if err := h.donors.Delete(r.Context(), ownerID); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	h.logger.Info("admin deleted donor", "owner_id", ownerID)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Donor deleted"})
}

// DeleteDonationHandler removes a donation record. Badges and statistics
// derived from it change on the next read. When the record set the donor's
// last donation date, the date falls back to the newest remaining record.
// Used by: DELETE /api/admin/donations/{id}
func (h *Handler) DeleteDonationHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := h.donations.Delete(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if err := h.resyncLastDonation(r.Context(), deleted); err != nil {
		h.logger.Warn("last donation date not updated", "owner_id", deleted.DonorOwnerID, "error", err)
	}
	h.logger.Info("admin deleted donation", "donation_id", id)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Donation deleted"})
}

func (h *Handler) resyncLastDonation(ctx context.Context, deleted models.DonationRecord) error {
	p, err := h.donors.Get(ctx, deleted.DonorOwnerID)
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.LastDonationDate == nil || !sameDay(*p.LastDonationDate, deleted.DonationDate) {
		return nil
	}

	fp, err := h.donations.Fingerprint(ctx, deleted.DonorOwnerID)
	if err != nil {
		return err
	}
	u := models.DonorUpdate{LastDonationDate: fp.Latest, ClearLastDonationDate: fp.Latest == nil}
	_, err = h.donors.Update(ctx, deleted.DonorOwnerID, u)
	return err
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
