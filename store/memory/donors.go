// Package memory provides in-process stores used by tests and by local runs
// without MongoDB.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

var _ store.DonorStore = (*DonorStore)(nil)

// DonorStore keeps donor profiles in a map keyed by owner.
type DonorStore struct {
	mu      sync.RWMutex
	byOwner map[int64]models.DonorProfile
	seq     int
	now     func() time.Time
}

// NewDonorStore returns an empty store.
func NewDonorStore() *DonorStore {
	return &DonorStore{
		byOwner: make(map[int64]models.DonorProfile),
		now:     time.Now,
	}
}

// Seed stores profiles as-is, without validation. Tests use it to plant
// records with malformed locations.
func (s *DonorStore) Seed(profiles ...models.DonorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range profiles {
		if p.ID == "" {
			s.seq++
			p.ID = strconv.Itoa(s.seq)
		}
		s.byOwner[p.OwnerID] = clone(p)
	}
}

// Find filters profiles the same way the Mongo store does. Records whose
// location cannot be normalized are passed through so the caller can account
// for them. The limit is applied after ordering: nearest first when Near is
// set, otherwise available first and then newest first.
func (s *DonorStore) Find(ctx context.Context, q store.DonorQuery) ([]models.DonorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStoreError("find donors", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	city := strings.ToLower(strings.TrimSpace(q.City))
	var out []models.DonorProfile
	for _, p := range s.byOwner {
		if q.BloodGroup != "" && p.BloodGroup != q.BloodGroup {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(p.City), city) {
			continue
		}
		if q.OnlyAvailable && !p.Available {
			continue
		}
		if q.Near != nil && q.RadiusKm > 0 {
			if pt, ok := geo.Normalize(p.Location); ok && !geo.WithinRadius(*q.Near, pt, q.RadiusKm) {
				continue
			}
		}
		out = append(out, clone(p))
	}

	if q.Near != nil {
		sortByDistance(out, *q.Near)
	} else {
		sortByAvailability(out)
	}

	limit := store.ClampLimit(q.Limit, store.MaxResults)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *DonorStore) Get(ctx context.Context, ownerID int64) (models.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byOwner[ownerID]
	if !ok {
		return models.DonorProfile{}, notFound(ownerID)
	}
	return clone(p), nil
}

func (s *DonorStore) Insert(ctx context.Context, p models.DonorProfile) (models.DonorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOwner[p.OwnerID]; exists {
		return models.DonorProfile{}, models.ErrAlreadyRegistered
	}
	s.seq++
	p.ID = strconv.Itoa(s.seq)
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.byOwner[p.OwnerID] = clone(p)
	return clone(p), nil
}

func (s *DonorStore) Update(ctx context.Context, ownerID int64, u models.DonorUpdate) (models.DonorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byOwner[ownerID]
	if !ok {
		return models.DonorProfile{}, notFound(ownerID)
	}
	u.Apply(&p, s.now().UTC())
	s.byOwner[ownerID] = clone(p)
	return clone(p), nil
}

func (s *DonorStore) Delete(ctx context.Context, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOwner[ownerID]; !ok {
		return notFound(ownerID)
	}
	delete(s.byOwner, ownerID)
	return nil
}

// sortByDistance orders profiles nearest first. Profiles without a usable
// location sort last.
func sortByDistance(out []models.DonorProfile, from geo.Point) {
	dist := make(map[int64]float64, len(out))
	for _, p := range out {
		d := math.Inf(1)
		if pt, ok := geo.Normalize(p.Location); ok {
			d = geo.HaversineKm(from, pt)
		}
		dist[p.OwnerID] = d
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := dist[out[i].OwnerID], dist[out[j].OwnerID]
		if di != dj {
			return di < dj
		}
		return out[i].OwnerID < out[j].OwnerID
	})
}

func sortByAvailability(out []models.DonorProfile) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OwnerID < out[j].OwnerID
	})
}

func notFound(ownerID int64) error {
	return &models.NotFoundError{Resource: "donor", Key: strconv.FormatInt(ownerID, 10)}
}

func clone(p models.DonorProfile) models.DonorProfile {
	if p.LastDonationDate != nil {
		t := *p.LastDonationDate
		p.LastDonationDate = &t
	}
	if p.Health != nil {
		h := *p.Health
		h.Medications = append([]string(nil), h.Medications...)
		p.Health = &h
	}
	if g, ok := p.Location.(geo.GeoJSONPoint); ok {
		g.Coordinates = append([]float64(nil), g.Coordinates...)
		p.Location = g
	}
	return p
}
