package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/logging"
	"bloodzy/backend/models"
	"bloodzy/backend/services/badges"
	"bloodzy/backend/services/eligibility"
	"bloodzy/backend/services/stats"
	"bloodzy/backend/store/memory"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newHandler(t *testing.T) (*Handler, *memory.DonorStore, *memory.DonationStore) {
	t.Helper()
	donors := memory.NewDonorStore()
	donations := memory.NewDonationStore()
	users := memory.NewUserDirectory(models.Owner{ID: 1, Username: "ayesha", CreatedAt: now.AddDate(-1, 0, 0)})
	h := NewHandler(donors, stats.NewService(donations, nil, logging.Discard()), users, logging.Discard())
	h.now = func() time.Time { return now }
	return h, donors, donations
}

func call(h http.HandlerFunc, userID int64, body string) *httptest.ResponseRecorder {
	method := http.MethodGet
	if body != "" {
		method = http.MethodPost
	}
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestMyEligibilityReportsSpacing(t *testing.T) {
	h, donors, _ := newHandler(t)
	last := now.AddDate(0, 0, -10)
	donors.Seed(models.DonorProfile{OwnerID: 1, Age: 30, Gender: models.Male, LastDonationDate: &last})

	rec := call(h.MyEligibilityHandler, 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v eligibility.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.False(t, v.Eligible)
	assert.Equal(t, []eligibility.Code{eligibility.RecentDonation}, v.Codes)
	require.NotNil(t, v.DaysUntilNext)
	assert.Equal(t, 46, *v.DaysUntilNext)
	assert.Equal(t, "You can donate again in 46 days", v.Message)

	assert.Equal(t, http.StatusNotFound, call(h.MyEligibilityHandler, 2, "").Code)
}

func TestCheckEligibilitySnapshot(t *testing.T) {
	h, _, _ := newHandler(t)

	rec := call(h.CheckEligibilityHandler, 0, `{"age":17,"gender":"Female"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var v eligibility.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.False(t, v.Eligible)
	assert.Equal(t, 90, v.Score)
	assert.Contains(t, v.Reasons, "Must be at least 18 years old")

	assert.Equal(t, http.StatusBadRequest, call(h.CheckEligibilityHandler, 0, `{"gender":"Female"}`).Code)
}

func TestMyStatsAndBadges(t *testing.T) {
	h, _, donations := newHandler(t)
	ctx := context.Background()
	for _, d := range []time.Time{now.AddDate(0, 0, -60), now} {
		_, err := donations.Insert(ctx, models.DonationRecord{DonorOwnerID: 1, DonationDate: d})
		require.NoError(t, err)
	}

	rec := call(h.MyStatsHandler, 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s stats.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 2, s.TotalDonations)
	assert.Equal(t, 900, s.TotalBloodCollectedMl)
	assert.Equal(t, 60, s.AverageDaysBetweenDonations)

	rec = call(h.MyBadgesHandler, 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Earned []struct {
			ID badges.ID `json:"id"`
		} `json:"earned"`
		Next *struct {
			Badge struct {
				ID badges.ID `json:"id"`
			} `json:"badge"`
			Progress badges.Progress `json:"progress"`
		} `json:"next"`
		Rank  string           `json:"rank"`
		Stats stats.Statistics `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Earned, 2)
	assert.Equal(t, badges.FirstDonation, resp.Earned[0].ID)
	assert.Equal(t, badges.Consistent, resp.Earned[1].ID)
	assert.Equal(t, badges.Bronze, resp.Rank)
	require.NotNil(t, resp.Next)
	assert.Equal(t, badges.FiveDonations, resp.Next.Badge.ID)
	assert.Equal(t, badges.Progress{Current: 2, Target: 5, Percentage: 40}, resp.Next.Progress)
	assert.Equal(t, 2, resp.Stats.TotalDonations)

	assert.Equal(t, http.StatusUnauthorized, call(h.MyStatsHandler, 0, "").Code)
}
