package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/models"
	"bloodzy/backend/store/memory"
)

func on(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.TotalDonations)
	assert.Zero(t, s.AverageDaysBetweenDonations)
	assert.Nil(t, s.MostRecentDonation)
	assert.Nil(t, s.LastDonationDate)
}

func TestComputeSingleRecord(t *testing.T) {
	s := Compute([]models.DonationRecord{{ID: "a", DonationDate: on(2026, 1, 10)}})
	assert.Equal(t, 1, s.TotalDonations)
	assert.Equal(t, models.DefaultBloodCollectedMl, s.TotalBloodCollectedMl)
	assert.Zero(t, s.AverageDaysBetweenDonations)
	require.NotNil(t, s.MostRecentDonation)
	assert.Equal(t, models.DefaultDonationCenter, s.MostRecentDonation.Center)
}

func TestComputeIsOrderIndependent(t *testing.T) {
	records := []models.DonationRecord{
		{ID: "b", DonationDate: on(2026, 3, 1), BloodCollectedMl: 500},
		{ID: "a", DonationDate: on(2026, 1, 1), BloodCollectedMl: 450},
		{ID: "c", DonationDate: on(2026, 5, 1), BloodCollectedMl: 400},
	}
	reversed := []models.DonationRecord{records[2], records[1], records[0]}

	s := Compute(records)
	assert.Equal(t, s, Compute(reversed))

	assert.Equal(t, 3, s.TotalDonations)
	assert.Equal(t, 1350, s.TotalBloodCollectedMl)
	// 59 and 61 days
	assert.Equal(t, 60, s.AverageDaysBetweenDonations)
	require.NotNil(t, s.LastDonationDate)
	assert.Equal(t, on(2026, 5, 1), *s.LastDonationDate)
	assert.Equal(t, "c", s.MostRecentDonation.ID)
}

func TestComputeFloorsPartialDays(t *testing.T) {
	first := on(2026, 1, 1)
	s := Compute([]models.DonationRecord{
		{ID: "a", DonationDate: first},
		{ID: "b", DonationDate: first.Add(30*day + 23*time.Hour)},
	})
	assert.Equal(t, 30, s.AverageDaysBetweenDonations)
}

type stubCache struct {
	entries map[string]Statistics
	getErr  error
	gets    int
	sets    int
}

func (c *stubCache) Get(ctx context.Context, key Key) (Statistics, bool, error) {
	c.gets++
	if c.getErr != nil {
		return Statistics{}, false, c.getErr
	}
	s, ok := c.entries[key.String()]
	return s, ok, nil
}

func (c *stubCache) Set(ctx context.Context, key Key, s Statistics) error {
	c.sets++
	c.entries[key.String()] = s
	return nil
}

func TestServiceMemoizesUntilRecordsChange(t *testing.T) {
	ctx := context.Background()
	donations := memory.NewDonationStore()
	_, err := donations.Insert(ctx, models.DonationRecord{DonorOwnerID: 1, DonationDate: on(2026, 1, 1)})
	require.NoError(t, err)

	cache := &stubCache{entries: map[string]Statistics{}}
	svc := NewService(donations, cache, nil)

	first, err := svc.ForOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalDonations)
	assert.Equal(t, 1, cache.sets)

	again, err := svc.ForOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, cache.sets)

	_, err = donations.Insert(ctx, models.DonationRecord{DonorOwnerID: 1, DonationDate: on(2026, 3, 1)})
	require.NoError(t, err)

	updated, err := svc.ForOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalDonations)
	assert.Equal(t, 2, cache.sets)
}

func TestServiceBypassesBrokenCache(t *testing.T) {
	ctx := context.Background()
	donations := memory.NewDonationStore()
	_, err := donations.Insert(ctx, models.DonationRecord{DonorOwnerID: 4, DonationDate: on(2026, 2, 2)})
	require.NoError(t, err)

	cache := &stubCache{entries: map[string]Statistics{}, getErr: errors.New("redis down")}
	s, err := NewService(donations, cache, nil).ForOwner(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalDonations)
}

func TestKeyString(t *testing.T) {
	latest := time.Unix(0, 42).UTC()
	assert.Equal(t, "stats:7:3:42", Key{OwnerID: 7, Count: 3, Latest: &latest}.String())
	assert.Equal(t, "stats:7:0:none", Key{OwnerID: 7}.String())
}
