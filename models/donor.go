// Package models holds the donor, donation and account types shared by the
// stores, services and HTTP handlers.
package models

import (
	"strings"
	"time"

	"bloodzy/backend/services/geo"
)

// BloodGroup is an ABO/Rh blood type label.
type BloodGroup string

const (
	APositive  BloodGroup = "A+"
	ANegative  BloodGroup = "A-"
	BPositive  BloodGroup = "B+"
	BNegative  BloodGroup = "B-"
	OPositive  BloodGroup = "O+"
	ONegative  BloodGroup = "O-"
	ABPositive BloodGroup = "AB+"
	ABNegative BloodGroup = "AB-"
)

// BloodGroups lists every accepted blood group.
var BloodGroups = []BloodGroup{
	OPositive, ONegative, APositive, ANegative,
	BPositive, BNegative, ABPositive, ABNegative,
}

// Valid reports whether b is one of BloodGroups.
func (b BloodGroup) Valid() bool {
	for _, g := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

// ParseBloodGroup accepts a blood group label in any case. A trailing space is
// read as "+", since an unescaped "+" in a query string decodes to a space.
func ParseBloodGroup(raw string) (BloodGroup, error) {
	s := strings.ToUpper(strings.TrimLeft(raw, " "))
	if strings.HasSuffix(s, " ") {
		s = strings.TrimRight(s, " ") + "+"
	}
	g := BloodGroup(s)
	if !g.Valid() {
		return "", &ValidationError{Field: "bloodGroup", Message: "must be one of A+, A-, B+, B-, O+, O-, AB+, AB-"}
	}
	return g, nil
}

// Gender is the self-reported gender on a donor profile.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Other  Gender = "Other"
)

// Valid reports whether g is one of the accepted genders.
func (g Gender) Valid() bool {
	return g == Male || g == Female || g == Other
}

// Donor age limits enforced when a profile is written.
const (
	MinDonorAge = 18
	MaxDonorAge = 65
)

// HealthInfo carries the optional screening fields used by the eligibility
// checker. A nil pointer or false flag means "not reported".
type HealthInfo struct {
	WeightKg          *float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	HemoglobinGdL     *float64 `json:"hemoglobin,omitempty" bson:"hemoglobin,omitempty"`
	SystolicBP        *int     `json:"systolic_bp,omitempty" bson:"systolicBp,omitempty"`
	DiastolicBP       *int     `json:"diastolic_bp,omitempty" bson:"diastolicBp,omitempty"`
	Pregnant          bool     `json:"pregnant,omitempty" bson:"pregnant,omitempty"`
	HasInfection      bool     `json:"has_infection,omitempty" bson:"hasInfection,omitempty"`
	HasHeartCondition bool     `json:"has_heart_condition,omitempty" bson:"hasHeartCondition,omitempty"`
	HasAnemia         bool     `json:"has_anemia,omitempty" bson:"hasAnemia,omitempty"`
	Medications       []string `json:"current_medications,omitempty" bson:"medications,omitempty"`
}

// DonorProfile is one person's registration as a blood donor. There is at
// most one profile per OwnerID.
type DonorProfile struct {
	ID               string
	OwnerID          int64
	BloodGroup       BloodGroup
	Age              int
	Gender           Gender
	Phone            string
	City             string
	Available        bool
	Location         geo.LocationInput
	LastDonationDate *time.Time
	Health           *HealthInfo
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DonorUpdate is a partial update of a donor profile. Nil fields are left
// untouched.
type DonorUpdate struct {
	BloodGroup       *BloodGroup
	Age              *int
	Gender           *Gender
	Phone            *string
	City             *string
	Available        *bool
	Location         *geo.Point
	LastDonationDate *time.Time
	Health           *HealthInfo

	// ClearLastDonationDate removes the date when LastDonationDate is nil.
	ClearLastDonationDate bool
}

// Apply merges u into p and stamps UpdatedAt.
func (u DonorUpdate) Apply(p *DonorProfile, now time.Time) {
	if u.BloodGroup != nil {
		p.BloodGroup = *u.BloodGroup
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Available != nil {
		p.Available = *u.Available
	}
	if u.Location != nil {
		p.Location = geo.ToGeoJSON(*u.Location)
	}
	if u.LastDonationDate != nil {
		t := *u.LastDonationDate
		p.LastDonationDate = &t
	} else if u.ClearLastDonationDate {
		p.LastDonationDate = nil
	}
	if u.Health != nil {
		h := *u.Health
		p.Health = &h
	}
	p.UpdatedAt = now
}

// Validate checks the write-time invariants of a new profile.
func (p DonorProfile) Validate() error {
	if p.OwnerID <= 0 {
		return &ValidationError{Field: "owner", Message: "owner is required"}
	}
	if !p.BloodGroup.Valid() {
		return &ValidationError{Field: "bloodGroup", Message: "must be one of A+, A-, B+, B-, O+, O-, AB+, AB-"}
	}
	if err := ValidateAge(p.Age); err != nil {
		return err
	}
	if !p.Gender.Valid() {
		return &ValidationError{Field: "gender", Message: "must be Male, Female or Other"}
	}
	if strings.TrimSpace(p.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	if strings.TrimSpace(p.City) == "" {
		return &ValidationError{Field: "city", Message: "city is required"}
	}
	if _, ok := geo.Normalize(p.Location); !ok {
		return &ValidationError{Field: "location", Message: "a valid location is required"}
	}
	return nil
}

// ValidateAge enforces the donor age range.
func ValidateAge(age int) error {
	if age < MinDonorAge || age > MaxDonorAge {
		return &ValidationError{Field: "age", Message: "age must be between 18 and 65"}
	}
	return nil
}

// Owner is the account behind a donor profile, as seen by the matcher and the
// badge engine.
type Owner struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	ReferredCount int       `json:"referred_count"`
}
