package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

func TestHospitalQueryWithoutFilters(t *testing.T) {
	q, args := hospitalQuery(store.HospitalFilter{})
	assert.NotContains(t, q, "WHERE")
	assert.True(t, strings.HasSuffix(q, "ORDER BY name"))
	assert.Empty(t, args)
}

func TestHospitalQueryCombinesFilters(t *testing.T) {
	q, args := hospitalQuery(store.HospitalFilter{
		City:         "Lahore",
		VerifiedOnly: true,
		Emergency:    true,
		BloodType:    "O-",
		Search:       "100%_",
	})

	assert.Contains(t, q, "city ILIKE $1")
	assert.Contains(t, q, "verified AND emergency_24h")
	assert.NotContains(t, q, "blood_bank AND")
	assert.Contains(t, q, "blood_types ILIKE $2")
	assert.Contains(t, q, "(name ILIKE $3 OR address ILIKE $3 OR blood_types ILIKE $3)")
	require.Len(t, args, 3)
	assert.Equal(t, "%Lahore%", args[0])
	assert.Equal(t, "%O-%", args[1])
	assert.Equal(t, `%100\%\_%`, args[2])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestStoreErr(t *testing.T) {
	var nf *models.NotFoundError
	require.True(t, errors.As(storeErr("get", "hospital", "4", sql.ErrNoRows), &nf))
	assert.Equal(t, "hospital", nf.Resource)

	err := storeErr("get", "hospital", "4", errors.New("connection reset"))
	assert.True(t, models.IsRetryable(err))
}
