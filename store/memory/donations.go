package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var _ store.DonationStore = (*DonationStore)(nil)

// DonationStore keeps donation records in a slice.
type DonationStore struct {
	mu      sync.RWMutex
	records []models.DonationRecord
	now     func() time.Time
}

// NewDonationStore returns an empty store.
func NewDonationStore() *DonationStore {
	return &DonationStore{now: time.Now}
}

func (s *DonationStore) Insert(ctx context.Context, r models.DonationRecord) (models.DonationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = r.WithDefaults()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.DonationDate.IsZero() {
		r.DonationDate = r.CreatedAt
	}
	s.records = append(s.records, r)
	return r, nil
}

func (s *DonationStore) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.DonationRecord, error) {
	out := s.filter(func(r models.DonationRecord) bool { return r.DonorOwnerID == ownerID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *DonationStore) ListRange(ctx context.Context, ownerID int64, from, to time.Time) ([]models.DonationRecord, error) {
	return s.filter(func(r models.DonationRecord) bool {
		return r.DonorOwnerID == ownerID && !r.DonationDate.Before(from) && !r.DonationDate.After(to)
	}), nil
}

func (s *DonationStore) Delete(ctx context.Context, id string) (models.DonationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return r, nil
		}
	}
	return models.DonationRecord{}, &models.NotFoundError{Resource: "donation", Key: id}
}

func (s *DonationStore) Fingerprint(ctx context.Context, ownerID int64) (store.Fingerprint, error) {
	var fp store.Fingerprint
	for _, r := range s.filter(func(r models.DonationRecord) bool { return r.DonorOwnerID == ownerID }) {
		fp.Count++
		if fp.Latest == nil || r.DonationDate.After(*fp.Latest) {
			d := r.DonationDate
			fp.Latest = &d
		}
	}
	return fp, nil
}

// filter returns matching records newest first.
func (s *DonationStore) filter(keep func(models.DonationRecord) bool) []models.DonationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DonationRecord
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DonationDate.After(out[j].DonationDate)
	})
	return out
}
