package models

import (
	"strings"
	"time"
)

// Donation defaults.
const (
	DefaultBloodCollectedMl = 450
	DefaultDonationCenter   = "Unknown"
)

// DonationRecord is one completed donation. Records are immutable except for
// administrative deletion.
type DonationRecord struct {
	ID               string    `json:"id"`
	DonorOwnerID     int64     `json:"donor_owner_id"`
	DonationDate     time.Time `json:"donation_date"`
	BloodCollectedMl int       `json:"blood_collected_ml"`
	Center           string    `json:"donation_center"`
	BankName         *string   `json:"blood_bank_name,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// WithDefaults fills the volume and centre defaults.
func (r DonationRecord) WithDefaults() DonationRecord {
	if r.BloodCollectedMl <= 0 {
		r.BloodCollectedMl = DefaultBloodCollectedMl
	}
	if strings.TrimSpace(r.Center) == "" {
		r.Center = DefaultDonationCenter
	}
	return r
}

// Hospital is a directory entry for a hospital or blood bank.
type Hospital struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Phone       string   `json:"phone"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	BloodTypes  string   `json:"blood_types"`
	Verified    bool     `json:"verified"`
	BloodBank   bool     `json:"blood_bank"`
	Emergency24 bool     `json:"emergency_24h"`
}
