// Package matching finds donors for a seeker: it queries the donor store,
// normalizes each candidate's location, ranks by distance or availability and
// attaches owner display data.
package matching

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

// PlaceholderName is shown for donors whose owner cannot be resolved.
const PlaceholderName = "Donor"

// EmptyMessage accompanies a search with no results.
const EmptyMessage = "No donors found matching your criteria. Try widening the search radius or removing filters."

// radiusPad inflates the radius handed to the store so that a native index
// using a slightly different earth model never drops a donor the exact
// Haversine check would keep.
const radiusPad = 1.01

// DonorFinder is the query capability the matcher needs.
type DonorFinder interface {
	Find(ctx context.Context, q store.DonorQuery) ([]models.DonorProfile, error)
}

// OwnerDirectory resolves owner ids to display data.
type OwnerDirectory interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]models.Owner, error)
}

// Criteria are the seeker's filters.
type Criteria struct {
	BloodGroup models.BloodGroup
	City       string
	RadiusKm   *float64
}

// EnrichedDonor is a search result.
type EnrichedDonor struct {
	ID               string            `json:"id"`
	OwnerID          int64             `json:"owner_id"`
	Name             string            `json:"name"`
	Email            string            `json:"email,omitempty"`
	BloodGroup       models.BloodGroup `json:"blood_group"`
	Age              int               `json:"age"`
	Gender           models.Gender     `json:"gender"`
	Phone            string            `json:"phone"`
	City             string            `json:"city"`
	Available        bool              `json:"available"`
	Location         geo.Point         `json:"location"`
	DistanceKm       *float64          `json:"distance_km,omitempty"`
	LastDonationDate *time.Time        `json:"last_donation_date,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Result is the outcome of a search.
type Result struct {
	Donors     []EnrichedDonor
	Dropped    int
	Unresolved int
	Message    string
}

// Partial returns a PartialDataError when candidates were excluded or left
// unenriched, and nil otherwise.
func (r Result) Partial() *models.PartialDataError {
	if r.Dropped == 0 && r.Unresolved == 0 {
		return nil
	}
	return &models.PartialDataError{Dropped: r.Dropped, Unresolved: r.Unresolved}
}

// Matcher runs donor searches. It holds no mutable state and is safe for
// concurrent use.
type Matcher struct {
	donors             DonorFinder
	owners             OwnerDirectory
	includeUnavailable bool
	limit              int
	storeTimeout       time.Duration
	logger             *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithIncludeUnavailable controls whether donors with available=false are
// returned. The default is true.
func WithIncludeUnavailable(include bool) Option {
	return func(m *Matcher) { m.includeUnavailable = include }
}

// WithLimit caps the number of candidates fetched from the store.
func WithLimit(n int) Option {
	return func(m *Matcher) { m.limit = store.ClampLimit(n, store.MaxResults) }
}

// WithStoreTimeout bounds each store call. Zero leaves the caller's deadline
// as the only bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(m *Matcher) { m.storeTimeout = d }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// New builds a Matcher. owners may be nil, in which case every result carries
// the placeholder name.
func New(donors DonorFinder, owners OwnerDirectory, opts ...Option) *Matcher {
	m := &Matcher{
		donors:             donors,
		owners:             owners,
		includeUnavailable: true,
		limit:              store.MaxResults,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Search returns donors matching c. When seeker is set every result carries
// its distance and results are sorted nearest first; otherwise available
// donors come first, newest registrations first within each group.
func (m *Matcher) Search(ctx context.Context, c Criteria, seeker *geo.Point) (Result, error) {
	if err := validate(c, seeker); err != nil {
		return Result{}, err
	}

	q := store.DonorQuery{
		BloodGroup:    c.BloodGroup,
		City:          strings.TrimSpace(c.City),
		OnlyAvailable: !m.includeUnavailable,
		Limit:         m.limit,
	}
	if seeker != nil && c.RadiusKm != nil {
		s := *seeker
		q.Near = &s
		q.RadiusKm = *c.RadiusKm * radiusPad
	}

	candidates, err := m.find(ctx, q)
	if err != nil {
		return Result{}, err
	}

	res := Result{Donors: make([]EnrichedDonor, 0, len(candidates))}
	for _, p := range candidates {
		pt, ok := geo.Normalize(p.Location)
		if !ok {
			res.Dropped++
			m.logger.Debug("dropping donor with unusable location", "owner_id", p.OwnerID, "donor_id", p.ID)
			continue
		}
		d := toEnriched(p, pt)
		if seeker != nil {
			km := geo.HaversineKm(*seeker, pt)
			if c.RadiusKm != nil && km > *c.RadiusKm {
				continue
			}
			d.DistanceKm = &km
		}
		res.Donors = append(res.Donors, d)
	}
	if res.Dropped > 0 {
		m.logger.Warn("donor search excluded records without a valid location", "dropped", res.Dropped)
	}

	if seeker != nil {
		sortByDistance(res.Donors)
	} else {
		sortByAvailability(res.Donors)
	}

	res.Unresolved = m.enrich(ctx, res.Donors)
	if len(res.Donors) == 0 {
		res.Message = EmptyMessage
	}
	return res, nil
}

func (m *Matcher) find(ctx context.Context, q store.DonorQuery) ([]models.DonorProfile, error) {
	if m.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.storeTimeout)
		defer cancel()
	}
	candidates, err := m.donors.Find(ctx, q)
	if err != nil {
		return nil, models.NewStoreError("find donors", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, models.NewStoreError("find donors", ctxErr)
	}
	return candidates, nil
}

// enrich attaches owner names and returns how many owners were unresolved.
func (m *Matcher) enrich(ctx context.Context, donors []EnrichedDonor) int {
	if len(donors) == 0 {
		return 0
	}
	var owners map[int64]models.Owner
	if m.owners != nil {
		ids := make([]int64, 0, len(donors))
		seen := make(map[int64]struct{}, len(donors))
		for _, d := range donors {
			if _, ok := seen[d.OwnerID]; ok {
				continue
			}
			seen[d.OwnerID] = struct{}{}
			ids = append(ids, d.OwnerID)
		}
		var err error
		owners, err = m.owners.Lookup(ctx, ids)
		if err != nil {
			m.logger.Warn("owner lookup failed, using placeholder names", "error", err, "owners", len(ids))
			owners = nil
		}
	}

	unresolved := 0
	for i := range donors {
		o, ok := owners[donors[i].OwnerID]
		if !ok || o.Username == "" {
			donors[i].Name = PlaceholderName
			unresolved++
			continue
		}
		donors[i].Name = o.Username
		donors[i].Email = o.Email
	}
	return unresolved
}

func validate(c Criteria, seeker *geo.Point) error {
	if c.BloodGroup != "" && !c.BloodGroup.Valid() {
		return &models.ValidationError{Field: "bloodGroup", Message: "must be one of A+, A-, B+, B-, O+, O-, AB+, AB-"}
	}
	if c.RadiusKm != nil {
		r := *c.RadiusKm
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return &models.ValidationError{Field: "radius", Message: "radius must be a positive number"}
		}
		if seeker == nil {
			return &models.ValidationError{Field: "radius", Message: "a radius requires a seeker location"}
		}
	}
	if seeker != nil && !seeker.Valid() {
		return &models.ValidationError{Field: "location", Message: "seeker location is not a valid coordinate"}
	}
	return nil
}

func toEnriched(p models.DonorProfile, pt geo.Point) EnrichedDonor {
	return EnrichedDonor{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		BloodGroup:       p.BloodGroup,
		Age:              p.Age,
		Gender:           p.Gender,
		Phone:            p.Phone,
		City:             p.City,
		Available:        p.Available,
		Location:         pt,
		LastDonationDate: p.LastDonationDate,
		CreatedAt:        p.CreatedAt,
	}
}

func sortByDistance(donors []EnrichedDonor) {
	sort.SliceStable(donors, func(i, j int) bool {
		di, dj := *donors[i].DistanceKm, *donors[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return donors[i].OwnerID < donors[j].OwnerID
	})
}

func sortByAvailability(donors []EnrichedDonor) {
	sort.SliceStable(donors, func(i, j int) bool {
		if donors[i].Available != donors[j].Available {
			return donors[i].Available
		}
		if !donors[i].CreatedAt.Equal(donors[j].CreatedAt) {
			return donors[i].CreatedAt.After(donors[j].CreatedAt)
		}
		return donors[i].OwnerID < donors[j].OwnerID
	})
}

// IsStoreFailure reports whether err came from the donor store rather than
// from the request.
func IsStoreFailure(err error) bool {
	var se *models.StoreError
	return errors.As(err, &se)
}
