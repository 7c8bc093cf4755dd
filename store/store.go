// Package store defines the persistence capabilities the services depend on.
// Implementations live in the mongo, postgres, memory and cache subpackages.
package store

import (
	"context"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
)

// MaxResults bounds any donor query.
const MaxResults = 500

// DonorQuery selects donor profiles. Zero values mean "no constraint".
type DonorQuery struct {
	BloodGroup models.BloodGroup
	// City matches case-insensitively as a substring.
	City string
	// Near and RadiusKm restrict results to a radius when both are set.
	// Stores with a native geospatial index apply it there; others use
	// Haversine distance.
	Near          *geo.Point
	RadiusKm      float64
	OnlyAvailable bool
	Limit         int
}

// DonorStore is the canonical donor profile store.
type DonorStore interface {
	Find(ctx context.Context, q DonorQuery) ([]models.DonorProfile, error)
	Get(ctx context.Context, ownerID int64) (models.DonorProfile, error)
	Insert(ctx context.Context, p models.DonorProfile) (models.DonorProfile, error)
	Update(ctx context.Context, ownerID int64, u models.DonorUpdate) (models.DonorProfile, error)
	Delete(ctx context.Context, ownerID int64) error
}

// Fingerprint identifies a donor's record set for cache keys.
type Fingerprint struct {
	Count  int
	Latest *time.Time
}

// DonationStore persists donation records.
type DonationStore interface {
	Insert(ctx context.Context, r models.DonationRecord) (models.DonationRecord, error)
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.DonationRecord, error)
	ListRange(ctx context.Context, ownerID int64, from, to time.Time) ([]models.DonationRecord, error)
	// Delete removes a record and returns it.
	Delete(ctx context.Context, id string) (models.DonationRecord, error)
	Fingerprint(ctx context.Context, ownerID int64) (Fingerprint, error)
}

// UserDirectory resolves account data for donor owners.
type UserDirectory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]models.Owner, error)
	Owner(ctx context.Context, id int64) (models.Owner, error)
}

// AccountStore creates accounts and loads login credentials.
type AccountStore interface {
	CreateAccount(ctx context.Context, a models.NewAccount) (models.AccountCreated, error)
	Credentials(ctx context.Context, email string) (models.Credentials, error)
}

// HospitalFilter narrows a hospital listing.
type HospitalFilter struct {
	City         string
	VerifiedOnly bool
	BloodBank    bool
	Emergency    bool
	Search       string
	BloodType    string
}

// HospitalStore reads the hospital directory.
type HospitalStore interface {
	List(ctx context.Context, f HospitalFilter) ([]models.Hospital, error)
	Get(ctx context.Context, id int64) (models.Hospital, error)
	Cities(ctx context.Context) ([]string, error)
}

// ClampLimit applies the default and the MaxResults ceiling.
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > MaxResults {
		limit = MaxResults
	}
	return limit
}
