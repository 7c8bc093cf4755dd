package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/logging"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
	"bloodzy/backend/store/memory"
)

func TestGenerateTestDonors(t *testing.T) {
	donors := memory.NewDonorStore()
	donations := memory.NewDonationStore()
	g := NewTestDataGenerator(memory.NewUserDirectory(), donors, donations, logging.Discard())
	h := GenerateTestDonorsHandler(g)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/test/generate-donors?count=5", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum GenerateSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 5, sum.DonorsCreated)
	assert.Zero(t, sum.FailedAttempts)

	found, err := donors.Find(context.Background(), store.DonorQuery{})
	require.NoError(t, err)
	require.Len(t, found, 5)

	total := 0
	for _, p := range found {
		require.NoError(t, p.Validate())
		_, ok := geo.Normalize(p.Location)
		assert.True(t, ok)
		records, err := donations.ListByOwner(context.Background(), p.OwnerID, 0)
		require.NoError(t, err)
		total += len(records)
		if len(records) > 0 {
			require.NotNil(t, p.LastDonationDate)
			assert.Equal(t, records[0].DonationDate, *p.LastDonationDate)
		}
	}
	assert.Equal(t, sum.DonationsCreated, total)
}

func TestGenerateTestDonorsRejectsBadCount(t *testing.T) {
	g := NewTestDataGenerator(memory.NewUserDirectory(), memory.NewDonorStore(), memory.NewDonationStore(), logging.Discard())
	for _, c := range []string{"0", "151", "many"} {
		rec := httptest.NewRecorder()
		GenerateTestDonorsHandler(g)(rec, httptest.NewRequest(http.MethodPost, "/api/test/generate-donors?count="+c, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, c)
	}
}

func TestGenerateConcurrentRequests(t *testing.T) {
	donors := memory.NewDonorStore()
	g := NewTestDataGenerator(memory.NewUserDirectory(), donors, memory.NewDonationStore(), logging.Discard())

	var wg sync.WaitGroup
	sums := make([]GenerateSummary, 4)
	for i := range sums {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sum, err := g.Generate(context.Background(), 3)
			assert.NoError(t, err)
			sums[i] = sum
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range sums {
		created += s.DonorsCreated
	}
	found, err := donors.Find(context.Background(), store.DonorQuery{})
	require.NoError(t, err)
	assert.Len(t, found, created)
}
