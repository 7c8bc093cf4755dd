// Package donation records donations and serves a donor's history.
package donation

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

// DefaultHistoryLimit is the page size of GET /api/donations.
const DefaultHistoryLimit = 10

const dateOnly = "2006-01-02"

// Handler writes donation records and keeps the donor's last donation date
// in step.
type Handler struct {
	donations store.DonationStore
	donors    store.DonorStore
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(donations store.DonationStore, donors store.DonorStore, logger *slog.Logger) *Handler {
	return &Handler{donations: donations, donors: donors, logger: logger, now: time.Now}
}

// RecordRequest is the body of POST /api/donations. DonationDate accepts
// RFC 3339 or YYYY-MM-DD and defaults to now.
type RecordRequest struct {
	DonationDate     string  `json:"donation_date"`
	BloodCollectedMl int     `json:"blood_collected_ml"`
	Center           string  `json:"donation_center"`
	BankName         *string `json:"blood_bank_name"`
	Notes            *string `json:"notes"`
}

// HistoryResponse wraps a list of records.
type HistoryResponse struct {
	Count     int                     `json:"count"`
	Donations []models.DonationRecord `json:"donations"`
}

// RecordDonationHandler stores a donation for the caller
// Used by: POST /api/donations
func (h *Handler) RecordDonationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	var req RecordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	now := h.now().UTC()
	date := now
	if strings.TrimSpace(req.DonationDate) != "" {
		d, err := parseDate("donation_date", req.DonationDate, false)
		if err != nil {
			respond.Error(w, h.logger, err)
			return
		}
		date = d
	}
	if date.After(now) {
		respond.Error(w, h.logger, &models.ValidationError{Field: "donation_date", Message: "donation date cannot be in the future"})
		return
	}
	if req.BloodCollectedMl < 0 {
		respond.Error(w, h.logger, &models.ValidationError{Field: "blood_collected_ml", Message: "blood collected cannot be negative"})
		return
	}

	donor, err := h.donors.Get(r.Context(), userID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	record, err := h.donations.Insert(r.Context(), models.DonationRecord{
		DonorOwnerID:     userID,
		DonationDate:     date,
		BloodCollectedMl: req.BloodCollectedMl,
		Center:           strings.TrimSpace(req.Center),
		BankName:         req.BankName,
		Notes:            req.Notes,
	})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	if donor.LastDonationDate == nil || date.After(*donor.LastDonationDate) {
		if _, err := h.donors.Update(r.Context(), userID, models.DonorUpdate{LastDonationDate: &date}); err != nil {
			h.logger.Warn("update last donation date", "user_id", userID, "error", err)
		}
	}

	h.logger.Info("donation recorded", "user_id", userID, "donation_id", record.ID)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message":  "Donation recorded successfully",
		"donation": record,
	})
}

// HistoryHandler returns the caller's most recent donations
// Used by: GET /api/donations?limit=
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(w, h.logger, &models.ValidationError{Field: "limit", Message: "limit must be a positive integer"})
			return
		}
		limit = store.ClampLimit(n, DefaultHistoryLimit)
	}

	records, err := h.donations.ListByOwner(r.Context(), userID, limit)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, history(records))
}

// RangeHandler returns the caller's donations between from and to inclusive
// Used by: GET /api/donations/range?from&to
func (h *Handler) RangeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	from, err := parseDate("from", q.Get("from"), false)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	to, err := parseDate("to", q.Get("to"), true)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if to.Before(from) {
		respond.Error(w, h.logger, &models.ValidationError{Field: "to", Message: "to must not be before from"})
		return
	}

	records, err := h.donations.ListRange(r.Context(), userID, from, to)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, history(records))
}

func history(records []models.DonationRecord) HistoryResponse {
	if records == nil {
		records = []models.DonationRecord{}
	}
	return HistoryResponse{Count: len(records), Donations: records}
}

// parseDate reads RFC 3339 or YYYY-MM-DD. A bare date used as an upper bound
// covers the whole day.
func parseDate(field, raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &models.ValidationError{Field: field, Message: field + " is required"}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: field, Message: field + " must be RFC 3339 or YYYY-MM-DD"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
