package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

// Key identifies one version of a donor's record set. Appending or deleting a
// record changes Count or Latest, so stale entries are never read back.
type Key struct {
	OwnerID int64
	Count   int
	Latest  *time.Time
}

// String renders the key for use in a flat key space.
func (k Key) String() string {
	latest := "none"
	if k.Latest != nil {
		latest = fmt.Sprintf("%d", k.Latest.UTC().UnixNano())
	}
	return fmt.Sprintf("stats:%d:%d:%s", k.OwnerID, k.Count, latest)
}

// Cache stores computed statistics. A miss returns ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key Key) (Statistics, bool, error)
	Set(ctx context.Context, key Key, s Statistics) error
}

// RecordSource is the part of the donation store the service reads.
type RecordSource interface {
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.DonationRecord, error)
	Fingerprint(ctx context.Context, ownerID int64) (store.Fingerprint, error)
}

// Service computes statistics for an owner, memoizing through an optional
// cache.
type Service struct {
	records RecordSource
	cache   Cache
	logger  *slog.Logger
}

// NewService builds a Service. cache and logger may be nil.
func NewService(records RecordSource, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{records: records, cache: cache, logger: logger}
}

// ForOwner returns the statistics for ownerID. Cache errors are logged and the
// statistics are computed from the store instead.
func (s *Service) ForOwner(ctx context.Context, ownerID int64) (Statistics, error) {
	if s.cache == nil {
		return s.compute(ctx, ownerID)
	}

	fp, err := s.records.Fingerprint(ctx, ownerID)
	if err != nil {
		return Statistics{}, models.NewStoreError("fingerprint donations", err)
	}
	key := Key{OwnerID: ownerID, Count: fp.Count, Latest: fp.Latest}

	cached, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("stats cache read failed", "owner_id", ownerID, "error", err)
	case ok:
		return cached, nil
	}

	computed, err := s.compute(ctx, ownerID)
	if err != nil {
		return Statistics{}, err
	}
	if err := s.cache.Set(ctx, key, computed); err != nil {
		s.logger.Warn("stats cache write failed", "owner_id", ownerID, "error", err)
	}
	return computed, nil
}

func (s *Service) compute(ctx context.Context, ownerID int64) (Statistics, error) {
	records, err := s.records.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		return Statistics{}, models.NewStoreError("list donations", err)
	}
	return Compute(records), nil
}
