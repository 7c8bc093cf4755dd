// Package eligibility decides whether a donor may give blood today.
package eligibility

import (
	"math"
	"strconv"
	"strings"
	"time"

	"bloodzy/backend/models"
)

// Screening thresholds.
const (
	MinAge                  = 18
	MaxAge                  = 65
	MinWeightKg             = 50.0
	MinHemoglobinMale       = 13.5
	MinHemoglobinFemale     = 12.5
	MinDaysBetweenDonations = 56

	maxSystolic  = 180
	minSystolic  = 90
	maxDiastolic = 110
	minDiastolic = 60
)

// RestrictedMedications are matched as case-insensitive substrings of each
// reported medication.
var RestrictedMedications = []string{"aspirin", "warfarin", "isotretinoin", "dutasteride", "finasteride"}

// Code identifies a failed rule.
type Code string

const (
	UnderAge          Code = "UNDER_AGE"
	OverAge           Code = "OVER_AGE"
	LowWeight         Code = "LOW_WEIGHT"
	LowHemoglobin     Code = "LOW_HEMOGLOBIN"
	RecentDonation    Code = "RECENT_DONATION"
	Pregnant          Code = "PREGNANT"
	InfectiousDisease Code = "INFECTIOUS_DISEASE"
	HeartCondition    Code = "HEART_CONDITION"
	Anemia            Code = "ANEMIA"
	Medication        Code = "MEDICATION"
	BloodPressure     Code = "BLOOD_PRESSURE"
)

var reasons = map[Code]string{
	UnderAge:          "Must be at least 18 years old",
	OverAge:           "Must be under 65 years old",
	LowWeight:         "Must weigh at least 50 kg",
	LowHemoglobin:     "Hemoglobin levels are too low",
	RecentDonation:    "Must wait 56 days between donations",
	Pregnant:          "Cannot donate while pregnant",
	InfectiousDisease: "Cannot donate with active infections",
	HeartCondition:    "Heart condition may prevent donation",
	Anemia:            "Anemia may prevent donation",
	Medication:        "Current medication may prevent donation",
	BloodPressure:     "Blood pressure is out of safe range",
}

// Reason returns the human-readable text for c.
func (c Code) Reason() string { return reasons[c] }

// Status messages.
const (
	MessageEligible   = "You are eligible to donate!"
	MessageIneligible = "Not eligible for donation at this time"
)

// Snapshot is the donor data the checker reads. Nil pointers mean "not
// reported" and make the corresponding rule pass.
type Snapshot struct {
	Age               int           `json:"age"`
	Gender            models.Gender `json:"gender,omitempty"`
	WeightKg          *float64      `json:"weight,omitempty"`
	HemoglobinGdL     *float64      `json:"hemoglobin,omitempty"`
	SystolicBP        *int          `json:"systolic_bp,omitempty"`
	DiastolicBP       *int          `json:"diastolic_bp,omitempty"`
	LastDonationDate  *time.Time    `json:"last_donation,omitempty"`
	Pregnant          bool          `json:"pregnant,omitempty"`
	HasInfection      bool          `json:"has_infection,omitempty"`
	HasHeartCondition bool          `json:"has_heart_condition,omitempty"`
	HasAnemia         bool          `json:"has_anemia,omitempty"`
	Medications       []string      `json:"current_medications,omitempty"`
}

// SnapshotFromProfile builds a Snapshot from a stored profile.
func SnapshotFromProfile(p models.DonorProfile) Snapshot {
	s := Snapshot{
		Age:              p.Age,
		Gender:           p.Gender,
		LastDonationDate: p.LastDonationDate,
	}
	if h := p.Health; h != nil {
		s.WeightKg = h.WeightKg
		s.HemoglobinGdL = h.HemoglobinGdL
		s.SystolicBP = h.SystolicBP
		s.DiastolicBP = h.DiastolicBP
		s.Pregnant = h.Pregnant
		s.HasInfection = h.HasInfection
		s.HasHeartCondition = h.HasHeartCondition
		s.HasAnemia = h.HasAnemia
		s.Medications = h.Medications
	}
	return s
}

// Verdict is the result of a check.
type Verdict struct {
	Eligible         bool       `json:"eligible"`
	Score            int        `json:"score"`
	Reasons          []string   `json:"reasons"`
	Codes            []Code     `json:"codes"`
	NextEligibleDate *time.Time `json:"next_eligible_date"`
	DaysUntilNext    *int       `json:"days_until_next"`
	Message          string     `json:"message"`
}

// rule reports the code it would raise and whether the snapshot fails it.
type rule func(s Snapshot, now time.Time) (Code, bool)

// rules are evaluated in this order. Age is one rule with two possible codes.
var rules = []rule{
	func(s Snapshot, _ time.Time) (Code, bool) {
		switch {
		case s.Age < MinAge:
			return UnderAge, true
		case s.Age > MaxAge:
			return OverAge, true
		}
		return "", false
	},
	func(s Snapshot, _ time.Time) (Code, bool) {
		return LowWeight, s.WeightKg != nil && *s.WeightKg < MinWeightKg
	},
	func(s Snapshot, _ time.Time) (Code, bool) {
		if s.HemoglobinGdL == nil {
			return LowHemoglobin, false
		}
		threshold := MinHemoglobinMale
		if s.Gender == models.Female {
			threshold = MinHemoglobinFemale
		}
		return LowHemoglobin, *s.HemoglobinGdL < threshold
	},
	func(s Snapshot, now time.Time) (Code, bool) {
		return RecentDonation, s.LastDonationDate != nil && daysSince(*s.LastDonationDate, now) < MinDaysBetweenDonations
	},
	func(s Snapshot, _ time.Time) (Code, bool) { return Pregnant, s.Pregnant },
	func(s Snapshot, _ time.Time) (Code, bool) { return InfectiousDisease, s.HasInfection },
	func(s Snapshot, _ time.Time) (Code, bool) { return HeartCondition, s.HasHeartCondition },
	func(s Snapshot, _ time.Time) (Code, bool) { return Anemia, s.HasAnemia },
	func(s Snapshot, _ time.Time) (Code, bool) { return Medication, takesRestricted(s.Medications) },
	func(s Snapshot, _ time.Time) (Code, bool) {
		bad := false
		if s.SystolicBP != nil {
			bad = bad || *s.SystolicBP > maxSystolic || *s.SystolicBP < minSystolic
		}
		if s.DiastolicBP != nil {
			bad = bad || *s.DiastolicBP > maxDiastolic || *s.DiastolicBP < minDiastolic
		}
		return BloodPressure, bad
	},
}

// RuleCount is the number of rules behind Verdict.Score.
var RuleCount = len(rules)

// Check evaluates every rule against s. It never fails; missing optional data
// makes the rule pass.
func Check(s Snapshot, now time.Time) Verdict {
	v := Verdict{Reasons: []string{}, Codes: []Code{}}
	for _, r := range rules {
		if code, failed := r(s, now); failed {
			v.Codes = append(v.Codes, code)
			v.Reasons = append(v.Reasons, code.Reason())
		}
	}
	v.Eligible = len(v.Codes) == 0
	passed := RuleCount - len(v.Codes)
	v.Score = int(math.Round(float64(passed) / float64(RuleCount) * 100))

	if v.Has(RecentDonation) {
		next := s.LastDonationDate.Add(MinDaysBetweenDonations * 24 * time.Hour)
		v.NextEligibleDate = &next
		days := DaysUntil(next, now)
		v.DaysUntilNext = &days
	}

	switch {
	case v.Eligible:
		v.Message = MessageEligible
	case v.NextEligibleDate != nil && len(v.Codes) == 1:
		v.Message = "You can donate again in " + strconv.Itoa(*v.DaysUntilNext) + " days"
	default:
		v.Message = MessageIneligible
	}
	return v
}

// Has reports whether code is among the failed rules.
func (v Verdict) Has(code Code) bool {
	for _, c := range v.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// DaysUntil returns the whole days from now to next, rounded up and never
// negative.
func DaysUntil(next, now time.Time) int {
	d := math.Ceil(next.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return int(d)
}

func daysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

func takesRestricted(meds []string) bool {
	for _, m := range meds {
		lower := strings.ToLower(m)
		for _, r := range RestrictedMedications {
			if strings.Contains(lower, r) {
				return true
			}
		}
	}
	return false
}
