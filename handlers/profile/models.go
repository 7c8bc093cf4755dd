package profile

import (
	"encoding/json"
	"strings"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
)

// RegisterRequest is the body of POST /api/donors/register. Location may be
// any accepted shape.
type RegisterRequest struct {
	BloodGroup       string             `json:"blood_group"`
	Age              int                `json:"age"`
	Gender           models.Gender      `json:"gender"`
	Phone            string             `json:"phone"`
	City             string             `json:"city"`
	Available        *bool              `json:"available"`
	Location         json.RawMessage    `json:"location"`
	LastDonationDate *time.Time         `json:"last_donation_date"`
	Health           *models.HealthInfo `json:"health"`
}

// UpdateRequest is the body of PUT /api/donors/me. Absent fields are left
// unchanged.
type UpdateRequest struct {
	BloodGroup       *string            `json:"blood_group"`
	Age              *int               `json:"age"`
	Gender           *models.Gender     `json:"gender"`
	Phone            *string            `json:"phone"`
	City             *string            `json:"city"`
	Available        *bool              `json:"available"`
	Location         json.RawMessage    `json:"location"`
	LastDonationDate *time.Time         `json:"last_donation_date"`
	Health           *models.HealthInfo `json:"health"`
}

// DonorResponse is the JSON view of a donor profile. Location is always
// GeoJSON with longitude first.
type DonorResponse struct {
	ID               string             `json:"id"`
	OwnerID          int64              `json:"owner_id"`
	BloodGroup       models.BloodGroup  `json:"blood_group"`
	Age              int                `json:"age"`
	Gender           models.Gender      `json:"gender"`
	Phone            string             `json:"phone"`
	City             string             `json:"city"`
	Available        bool               `json:"available"`
	Location         *geo.GeoJSONPoint  `json:"location"`
	LastDonationDate *time.Time         `json:"last_donation_date,omitempty"`
	Health           *models.HealthInfo `json:"health,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewDonorResponse renders p. A location that cannot be normalized is
// rendered as null.
func NewDonorResponse(p models.DonorProfile) DonorResponse {
	resp := DonorResponse{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		BloodGroup:       p.BloodGroup,
		Age:              p.Age,
		Gender:           p.Gender,
		Phone:            p.Phone,
		City:             p.City,
		Available:        p.Available,
		LastDonationDate: p.LastDonationDate,
		Health:           p.Health,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if pt, ok := geo.Normalize(p.Location); ok {
		g := geo.ToGeoJSON(pt)
		resp.Location = &g
	}
	return resp
}

func parsePoint(raw json.RawMessage) (geo.Point, error) {
	pt, ok := geo.Normalize(geo.ParseLocation(raw))
	if !ok {
		return geo.Point{}, &models.ValidationError{Field: "location", Message: "a valid location is required"}
	}
	return pt, nil
}

// Profile builds a validated profile for owner.
func (req RegisterRequest) Profile(owner int64) (models.DonorProfile, error) {
	group, err := models.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return models.DonorProfile{}, err
	}
	pt, err := parsePoint(req.Location)
	if err != nil {
		return models.DonorProfile{}, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p := models.DonorProfile{
		OwnerID:          owner,
		BloodGroup:       group,
		Age:              req.Age,
		Gender:           req.Gender,
		Phone:            strings.TrimSpace(req.Phone),
		City:             strings.TrimSpace(req.City),
		Available:        available,
		Location:         geo.ToGeoJSON(pt),
		LastDonationDate: req.LastDonationDate,
		Health:           req.Health,
	}
	if err := p.Validate(); err != nil {
		return models.DonorProfile{}, err
	}
	return p, nil
}

// Update converts the request into a validated DonorUpdate.
func (req UpdateRequest) Update() (models.DonorUpdate, error) {
	var u models.DonorUpdate
	if req.BloodGroup != nil {
		g, err := models.ParseBloodGroup(*req.BloodGroup)
		if err != nil {
			return u, err
		}
		u.BloodGroup = &g
	}
	if req.Age != nil {
		if err := models.ValidateAge(*req.Age); err != nil {
			return u, err
		}
		u.Age = req.Age
	}
	if req.Gender != nil {
		if !req.Gender.Valid() {
			return u, &models.ValidationError{Field: "gender", Message: "must be Male, Female or Other"}
		}
		u.Gender = req.Gender
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return u, &models.ValidationError{Field: "phone", Message: "phone is required"}
		}
		u.Phone = &phone
	}
	if req.City != nil {
		city := strings.TrimSpace(*req.City)
		if city == "" {
			return u, &models.ValidationError{Field: "city", Message: "city is required"}
		}
		u.City = &city
	}
	if len(req.Location) > 0 && string(req.Location) != "null" {
		pt, err := parsePoint(req.Location)
		if err != nil {
			return u, err
		}
		u.Location = &pt
	}
	u.Available = req.Available
	u.LastDonationDate = req.LastDonationDate
	u.Health = req.Health
	return u, nil
}
