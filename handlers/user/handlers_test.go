package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/handlers/auth"
	"bloodzy/backend/logging"
	"bloodzy/backend/models"
	"bloodzy/backend/store/memory"
)

func get(h http.Handler, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if userID > 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetMe(t *testing.T) {
	users := memory.NewUserDirectory(
		models.Owner{ID: 1, Username: "ayesha", Email: "a@example.com", ReferredCount: 2},
		models.Owner{ID: 2, Username: "bilal", Email: "b@example.com"},
	)
	donors := memory.NewDonorStore()
	donors.Seed(models.DonorProfile{OwnerID: 1, BloodGroup: models.ONegative})
	h := GetMeHandler(users, donors, logging.Discard())

	rec := get(h, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ayesha", me.Username)
	assert.Equal(t, 2, me.ReferredCount)
	assert.True(t, me.IsDonor)
	assert.Equal(t, models.ONegative, me.BloodGroup)

	rec = get(h, 2)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.False(t, me.IsDonor)

	assert.Equal(t, http.StatusNotFound, get(h, 3).Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, 0).Code)
}
