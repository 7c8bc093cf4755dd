package postgres

// Schema bootstraps the relational tables. Every statement is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		age INTEGER NOT NULL DEFAULT 0,
		referred_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS donation_records (
		id UUID PRIMARY KEY,
		donor_owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		donation_date TIMESTAMPTZ NOT NULL,
		blood_collected_ml INTEGER NOT NULL DEFAULT 450,
		donation_center TEXT NOT NULL DEFAULT 'Unknown',
		blood_bank_name TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS donation_records_owner_date
		ON donation_records (donor_owner_id, donation_date DESC);

	CREATE TABLE IF NOT EXISTS hospitals (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		blood_types TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		blood_bank BOOLEAN NOT NULL DEFAULT FALSE,
		emergency_24h BOOLEAN NOT NULL DEFAULT FALSE
	);
`

// User queries
const (
	// InsertUserQuery creates an account and returns its id and creation time
	InsertUserQuery = `
		INSERT INTO users (username, email, password_hash, phone, age, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	// SelectCredentialsQuery loads the password hash for login
	SelectCredentialsQuery = `
		SELECT id, password_hash
		FROM users
		WHERE email = $1
	`

	// SelectOwnersQuery resolves a batch of owners with their referral counts
	SelectOwnersQuery = `
		SELECT u.id, u.username, u.email, u.created_at,
			(SELECT COUNT(*) FROM users r WHERE r.referred_by = u.id)
		FROM users u
		WHERE u.id = ANY($1)
	`

	// SelectOwnerQuery resolves one owner
	SelectOwnerQuery = `
		SELECT u.id, u.username, u.email, u.created_at,
			(SELECT COUNT(*) FROM users r WHERE r.referred_by = u.id)
		FROM users u
		WHERE u.id = $1
	`
)

// Donation record queries
const (
	InsertDonationQuery = `
		INSERT INTO donation_records
			(id, donor_owner_id, donation_date, blood_collected_ml, donation_center, blood_bank_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	donationColumns = `id, donor_owner_id, donation_date, blood_collected_ml, donation_center, blood_bank_name, notes, created_at`

	// SelectDonationsQuery lists an owner's records newest first; a NULL
	// limit returns all of them
	SelectDonationsQuery = `
		SELECT ` + donationColumns + `
		FROM donation_records
		WHERE donor_owner_id = $1
		ORDER BY donation_date DESC, id
		LIMIT $2
	`

	SelectDonationRangeQuery = `
		SELECT ` + donationColumns + `
		FROM donation_records
		WHERE donor_owner_id = $1 AND donation_date BETWEEN $2 AND $3
		ORDER BY donation_date DESC, id
	`

	DeleteDonationQuery = `DELETE FROM donation_records WHERE id = $1 RETURNING ` + donationColumns

	// SelectFingerprintQuery identifies the current record set for caching
	SelectFingerprintQuery = `
		SELECT COUNT(*), MAX(donation_date)
		FROM donation_records
		WHERE donor_owner_id = $1
	`
)

// Hospital queries
const (
	hospitalColumns = `id, name, address, city, phone, latitude, longitude, blood_types, verified, blood_bank, emergency_24h`

	SelectHospitalsQuery = `SELECT ` + hospitalColumns + ` FROM hospitals`

	SelectHospitalQuery = `SELECT ` + hospitalColumns + ` FROM hospitals WHERE id = $1`

	SelectCitiesQuery = `
		SELECT DISTINCT city
		FROM hospitals
		WHERE city <> ''
		ORDER BY city
	`
)
