package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var _ store.DonationStore = (*Donations)(nil)

// Donations reads and writes donation_records.
type Donations struct {
	db  *sql.DB
	now func() time.Time
}

func NewDonations(db *sql.DB) *Donations {
	return &Donations{db: db, now: time.Now}
}

func (d *Donations) Insert(ctx context.Context, r models.DonationRecord) (models.DonationRecord, error) {
	r = r.WithDefaults()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = d.now().UTC()
	}
	if r.DonationDate.IsZero() {
		r.DonationDate = r.CreatedAt
	}
	_, err := d.db.ExecContext(ctx, InsertDonationQuery,
		r.ID, r.DonorOwnerID, r.DonationDate, r.BloodCollectedMl, r.Center, r.BankName, r.Notes, r.CreatedAt,
	)
	if err != nil {
		return models.DonationRecord{}, models.NewStoreError("insert donation", err)
	}
	return r, nil
}

// ListByOwner returns up to limit records newest first. A limit of zero or
// less returns every record.
func (d *Donations) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.DonationRecord, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	return d.query(ctx, "list donations", SelectDonationsQuery, ownerID, lim)
}

func (d *Donations) ListRange(ctx context.Context, ownerID int64, from, to time.Time) ([]models.DonationRecord, error) {
	return d.query(ctx, "list donation range", SelectDonationRangeQuery, ownerID, from, to)
}

func (d *Donations) Delete(ctx context.Context, id string) (models.DonationRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.DonationRecord{}, &models.NotFoundError{Resource: "donation", Key: id}
	}
	deleted, err := d.query(ctx, "delete donation", DeleteDonationQuery, id)
	if err != nil {
		return models.DonationRecord{}, err
	}
	if len(deleted) == 0 {
		return models.DonationRecord{}, &models.NotFoundError{Resource: "donation", Key: id}
	}
	return deleted[0], nil
}

func (d *Donations) Fingerprint(ctx context.Context, ownerID int64) (store.Fingerprint, error) {
	var fp store.Fingerprint
	var latest sql.NullTime
	if err := d.db.QueryRowContext(ctx, SelectFingerprintQuery, ownerID).Scan(&fp.Count, &latest); err != nil {
		return store.Fingerprint{}, models.NewStoreError("fingerprint donations", err)
	}
	if latest.Valid {
		t := latest.Time.UTC()
		fp.Latest = &t
	}
	return fp, nil
}

func (d *Donations) query(ctx context.Context, op, q string, args ...any) ([]models.DonationRecord, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, models.NewStoreError(op, err)
	}
	defer rows.Close()

	var out []models.DonationRecord
	for rows.Next() {
		var r models.DonationRecord
		var bank, notes sql.NullString
		if err := rows.Scan(&r.ID, &r.DonorOwnerID, &r.DonationDate, &r.BloodCollectedMl, &r.Center, &bank, &notes, &r.CreatedAt); err != nil {
			return nil, models.NewStoreError(op, err)
		}
		r.BankName = nullable(bank)
		r.Notes = nullable(notes)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError(op, err)
	}
	return out, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
