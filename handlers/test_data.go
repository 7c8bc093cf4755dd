// Note: To generate test donors, use:
// curl -X POST "http://localhost:8080/api/test/generate-donors?count=5"

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"

	"bloodzy/backend/handlers/respond"
	"bloodzy/backend/models"
	"bloodzy/backend/services/geo"
	"bloodzy/backend/store"
)

// TestPassword is the password of every generated account.
const TestPassword = "testpass123"

// Generator count bounds.
const (
	DefaultTestDonors = 10
	MaxTestDonors     = 150
)

// jitterDegrees scatters generated donors roughly 10 km around a centre.
const jitterDegrees = 0.09

type centre struct {
	city     string
	lat, lng float64
}

// Predefined centres for consistent test data
var centres = []centre{
	{"London", 51.505, -0.09},
	{"Manchester", 53.4808, -2.2426},
	{"New York", 40.7128, -74.0060},
	{"Lahore", 31.5204, 74.3587},
	{"Karachi", 24.8607, 67.0011},
	{"Delhi", 28.6139, 77.2090},
	{"Mumbai", 19.0760, 72.8777},
	{"Dhaka", 23.8103, 90.4125},
}

var genders = []models.Gender{models.Male, models.Female, models.Other}

// TestDataGenerator creates fake accounts, donor profiles and donation
// history.
type TestDataGenerator struct {
	accounts  store.AccountStore
	donors    store.DonorStore
	donations store.DonationStore
	logger    *slog.Logger
	now       func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewTestDataGenerator(accounts store.AccountStore, donors store.DonorStore, donations store.DonationStore, logger *slog.Logger) *TestDataGenerator {
	return &TestDataGenerator{
		accounts:  accounts,
		donors:    donors,
		donations: donations,
		logger:    logger,
		rng:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		now:       time.Now,
	}
}

func (g *TestDataGenerator) randIntn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func (g *TestDataGenerator) randFloat() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// GenerateSummary reports what Generate created.
type GenerateSummary struct {
	Message          string `json:"message"`
	DonorsCreated    int    `json:"donors_created"`
	DonationsCreated int    `json:"donations_created"`
	FailedAttempts   int    `json:"failed_attempts"`
}

// Generate creates count donors. A failure for one donor is logged and the
// rest continue.
func (g *TestDataGenerator) Generate(ctx context.Context, count int) (GenerateSummary, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	if err != nil {
		return GenerateSummary{}, fmt.Errorf("hash test password: %w", err)
	}

	var sum GenerateSummary
	for i := 0; i < count; i++ {
		donations, err := g.generateOne(ctx, string(hashedPassword))
		if err != nil {
			g.logger.Warn("test donor not created", "attempt", i+1, "error", err)
			sum.FailedAttempts++
			continue
		}
		sum.DonorsCreated++
		sum.DonationsCreated += donations
	}
	sum.Message = "Test donor(s) generated successfully"
	g.logger.Info("test data generated", "donors", sum.DonorsCreated, "donations", sum.DonationsCreated, "failed", sum.FailedAttempts)
	return sum, nil
}

func (g *TestDataGenerator) generateOne(ctx context.Context, passwordHash string) (int, error) {
	age := gofakeit.Number(models.MinDonorAge, models.MaxDonorAge)
	created, err := g.accounts.CreateAccount(ctx, models.NewAccount{
		Username:     gofakeit.Username() + strconv.Itoa(gofakeit.Number(100, 999)),
		Email:        gofakeit.Email(),
		PasswordHash: passwordHash,
		Phone:        gofakeit.Phone(),
		Age:          age,
	})
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}

	c := centres[g.randIntn(len(centres))]
	pt := geo.Point{
		Lat: c.lat + (g.randFloat()*2-1)*jitterDegrees,
		Lng: c.lng + (g.randFloat()*2-1)*jitterDegrees,
	}

	now := g.now().UTC()
	var history []time.Time
	for d, n := now, g.randIntn(4); len(history) < n; {
		d = d.AddDate(0, 0, -(56 + g.randIntn(120)))
		history = append(history, d)
	}

	p := models.DonorProfile{
		OwnerID:    created.ID,
		BloodGroup: models.BloodGroups[g.randIntn(len(models.BloodGroups))],
		Age:        age,
		Gender:     genders[g.randIntn(len(genders))],
		Phone:      gofakeit.Phone(),
		City:       c.city,
		Available:  g.randFloat() < 0.8,
		Location:   geo.ToGeoJSON(pt),
	}
	if len(history) > 0 {
		last := history[0]
		p.LastDonationDate = &last
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if _, err := g.donors.Insert(ctx, p); err != nil {
		return 0, fmt.Errorf("insert donor: %w", err)
	}

	for _, d := range history {
		_, err := g.donations.Insert(ctx, models.DonationRecord{
			DonorOwnerID:     created.ID,
			DonationDate:     d,
			BloodCollectedMl: 350 + 50*g.randIntn(3),
			Center:           c.city + " " + gofakeit.RandomString([]string{"General Hospital", "Blood Bank", "Red Cross Centre"}),
		})
		if err != nil {
			return 0, fmt.Errorf("insert donation: %w", err)
		}
	}
	return len(history), nil
}

// GenerateTestDonorsHandler creates fake donors for local development
// Used by: POST /api/test/generate-donors?count=
func GenerateTestDonorsHandler(g *TestDataGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := DefaultTestDonors
		if countParam := r.URL.Query().Get("count"); countParam != "" {
			parsedCount, err := strconv.Atoi(countParam)
			if err != nil || parsedCount < 1 || parsedCount > MaxTestDonors {
				respond.Error(w, g.logger, &models.ValidationError{Field: "count", Message: "Count must be between 1 and 150"})
				return
			}
			count = parsedCount
		}

		sum, err := g.Generate(r.Context(), count)
		if err != nil {
			respond.Error(w, g.logger, err)
			return
		}
		respond.JSON(w, http.StatusOK, sum)
	}
}
