// Package stats aggregates a donor's donation history into the figures shown
// on the dashboard and consumed by the badge engine.
package stats

import (
	"math"
	"sort"
	"time"

	"bloodzy/backend/models"
)

const day = 24 * time.Hour

// Statistics summarises a donor's records.
type Statistics struct {
	TotalDonations              int                    `json:"total_donations"`
	TotalBloodCollectedMl       int                    `json:"total_blood_collected_ml"`
	AverageDaysBetweenDonations int                    `json:"average_days_between_donations"`
	MostRecentDonation          *models.DonationRecord `json:"most_recent_donation,omitempty"`
	LastDonationDate            *time.Time             `json:"last_donation_date,omitempty"`
}

// Compute derives Statistics from records in any order. The average interval
// is zero with fewer than two records; otherwise it is the rounded mean of the
// whole-day gaps between consecutive donations.
func Compute(records []models.DonationRecord) Statistics {
	if len(records) == 0 {
		return Statistics{}
	}
	sorted := SortNewestFirst(records)

	var s Statistics
	s.TotalDonations = len(sorted)
	for _, r := range sorted {
		ml := r.BloodCollectedMl
		if ml <= 0 {
			ml = models.DefaultBloodCollectedMl
		}
		s.TotalBloodCollectedMl += ml
	}

	recent := sorted[0].WithDefaults()
	s.MostRecentDonation = &recent
	last := recent.DonationDate
	s.LastDonationDate = &last

	if len(sorted) > 1 {
		var totalDays int64
		for i := 0; i < len(sorted)-1; i++ {
			gap := sorted[i].DonationDate.Sub(sorted[i+1].DonationDate)
			totalDays += int64(gap / day)
		}
		s.AverageDaysBetweenDonations = int(math.Round(float64(totalDays) / float64(len(sorted)-1)))
	}
	return s
}

// SortNewestFirst returns a copy of records ordered by donation date
// descending, ties broken by id.
func SortNewestFirst(records []models.DonationRecord) []models.DonationRecord {
	out := append([]models.DonationRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DonationDate.Equal(out[j].DonationDate) {
			return out[i].DonationDate.After(out[j].DonationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
