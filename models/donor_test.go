package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/services/geo"
)

func TestParseBloodGroup(t *testing.T) {
	cases := map[string]BloodGroup{
		"A+":  APositive,
		"ab-": ABNegative,
		"O ":  OPositive,
		"AB ": ABPositive,
		"B-":  BNegative,
	}
	for raw, want := range cases {
		got, err := ParseBloodGroup(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "A", "C+", "   "} {
		_, err := ParseBloodGroup(raw)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), raw)
	}
}

func validProfile() DonorProfile {
	return DonorProfile{
		OwnerID:    7,
		BloodGroup: OPositive,
		Age:        30,
		Gender:     Female,
		Phone:      "555-0100",
		City:       "Lahore",
		Available:  true,
		Location:   geo.ToGeoJSON(geo.Point{Lat: 31.52, Lng: 74.35}),
	}
}

func TestDonorProfileValidate(t *testing.T) {
	require.NoError(t, validProfile().Validate())

	mutations := map[string]func(p *DonorProfile){
		"owner":      func(p *DonorProfile) { p.OwnerID = 0 },
		"bloodGroup": func(p *DonorProfile) { p.BloodGroup = "Z" },
		"age":        func(p *DonorProfile) { p.Age = 17 },
		"gender":     func(p *DonorProfile) { p.Gender = "x" },
		"phone":      func(p *DonorProfile) { p.Phone = " " },
		"city":       func(p *DonorProfile) { p.City = "" },
		"location":   func(p *DonorProfile) { p.Location = nil },
	}
	for field, mutate := range mutations {
		p := validProfile()
		mutate(&p)
		err := p.Validate()
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), field)
		assert.Equal(t, field, ve.Field)
	}
}

func TestDonorUpdateApply(t *testing.T) {
	p := validProfile()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	city := "Karachi"
	available := false

	DonorUpdate{
		City:      &city,
		Available: &available,
		Location:  &geo.Point{Lat: 24.86, Lng: 67.0},
	}.Apply(&p, now)

	assert.Equal(t, "Karachi", p.City)
	assert.False(t, p.Available)
	assert.Equal(t, now, p.UpdatedAt)
	assert.Equal(t, geo.GeoJSONPoint{Type: "Point", Coordinates: []float64{67.0, 24.86}}, p.Location)
	assert.Equal(t, OPositive, p.BloodGroup)
}

func TestNewStoreErrorKeepsTypedErrors(t *testing.T) {
	nf := &NotFoundError{Resource: "donor", Key: "1"}
	assert.Same(t, nf, NewStoreError("get", nf).(*NotFoundError))
	assert.ErrorIs(t, NewStoreError("insert", ErrAlreadyRegistered), ErrAlreadyRegistered)
	assert.Nil(t, NewStoreError("x", nil))

	wrapped := NewStoreError("find", errors.New("connection refused"))
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(nf))
}
