package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var _ store.HospitalStore = (*HospitalStore)(nil)

// HospitalStore is a fixed hospital directory with the same filter semantics
// as the Postgres one.
type HospitalStore struct {
	mu        sync.RWMutex
	hospitals []models.Hospital
}

// NewHospitalStore returns a directory holding hospitals.
func NewHospitalStore(hospitals ...models.Hospital) *HospitalStore {
	return &HospitalStore{hospitals: append([]models.Hospital(nil), hospitals...)}
}

func (s *HospitalStore) List(ctx context.Context, f store.HospitalFilter) ([]models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Hospital{}
	for _, h := range s.hospitals {
		if matchesHospital(h, f) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *HospitalStore) Get(ctx context.Context, id int64) (models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Hospital{}, &models.NotFoundError{Resource: "hospital", Key: strconv.FormatInt(id, 10)}
}

func (s *HospitalStore) Cities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	cities := []string{}
	for _, h := range s.hospitals {
		if h.City != "" && !seen[h.City] {
			seen[h.City] = true
			cities = append(cities, h.City)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func matchesHospital(h models.Hospital, f store.HospitalFilter) bool {
	if !containsFold(h.City, f.City) || !containsFold(h.BloodTypes, f.BloodType) {
		return false
	}
	if (f.VerifiedOnly && !h.Verified) || (f.BloodBank && !h.BloodBank) || (f.Emergency && !h.Emergency24) {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		return containsFold(h.Name, q) || containsFold(h.Address, q) || containsFold(h.BloodTypes, q)
	}
	return true
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
