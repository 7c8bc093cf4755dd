package user

import (
	"time"

	"bloodzy/backend/models"
)

// MeResponse is the signed-in account with a flag for donor registration.
type MeResponse struct {
	ID            int64             `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	CreatedAt     time.Time         `json:"created_at"`
	ReferredCount int               `json:"referred_count"`
	IsDonor       bool              `json:"is_donor"`
	BloodGroup    models.BloodGroup `json:"blood_group,omitempty"`
}
