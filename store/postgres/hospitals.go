package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var _ store.HospitalStore = (*Hospitals)(nil)

// Hospitals reads the hospital directory.
type Hospitals struct {
	db *sql.DB
}

func NewHospitals(db *sql.DB) *Hospitals {
	return &Hospitals{db: db}
}

func (h *Hospitals) List(ctx context.Context, f store.HospitalFilter) ([]models.Hospital, error) {
	q, args := hospitalQuery(f)
	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, models.NewStoreError("list hospitals", err)
	}
	defer rows.Close()

	var out []models.Hospital
	for rows.Next() {
		hosp, err := scanHospital(rows)
		if err != nil {
			return nil, models.NewStoreError("scan hospital", err)
		}
		out = append(out, hosp)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("list hospitals", err)
	}
	return out, nil
}

func (h *Hospitals) Get(ctx context.Context, id int64) (models.Hospital, error) {
	hosp, err := scanHospital(h.db.QueryRowContext(ctx, SelectHospitalQuery, id))
	if err != nil {
		return models.Hospital{}, storeErr("get hospital", "hospital", strconv.FormatInt(id, 10), err)
	}
	return hosp, nil
}

func (h *Hospitals) Cities(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, SelectCitiesQuery)
	if err != nil {
		return nil, models.NewStoreError("list cities", err)
	}
	defer rows.Close()

	cities := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, models.NewStoreError("scan city", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// hospitalQuery appends a WHERE clause for f. Text filters use ILIKE with the
// input escaped so that % and _ match literally.
func hospitalQuery(f store.HospitalFilter) (string, []any) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if city := strings.TrimSpace(f.City); city != "" {
		where = append(where, "city ILIKE "+arg(contains(city)))
	}
	if f.VerifiedOnly {
		where = append(where, "verified")
	}
	if f.BloodBank {
		where = append(where, "blood_bank")
	}
	if f.Emergency {
		where = append(where, "emergency_24h")
	}
	if bt := strings.TrimSpace(f.BloodType); bt != "" {
		where = append(where, "blood_types ILIKE "+arg(contains(bt)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg(contains(s))
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR address ILIKE %[1]s OR blood_types ILIKE %[1]s)", p))
	}

	q := SelectHospitalsQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q + " ORDER BY name", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanHospital(row scanner) (models.Hospital, error) {
	var h models.Hospital
	var lat, lng sql.NullFloat64
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Phone, &lat, &lng, &h.BloodTypes, &h.Verified, &h.BloodBank, &h.Emergency24)
	if err != nil {
		return models.Hospital{}, err
	}
	if lat.Valid && lng.Valid {
		h.Latitude = &lat.Float64
		h.Longitude = &lng.Float64
	}
	return h, nil
}
