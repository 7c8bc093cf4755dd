package postgres

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lib/pq"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var (
	_ store.UserDirectory = (*Users)(nil)
	_ store.AccountStore  = (*Users)(nil)
)

// Users reads and writes the users table.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (u *Users) CreateAccount(ctx context.Context, a models.NewAccount) (models.AccountCreated, error) {
	var referredBy sql.NullInt64
	if a.ReferredBy != nil {
		referredBy = sql.NullInt64{Int64: *a.ReferredBy, Valid: true}
	}
	var out models.AccountCreated
	err := u.db.QueryRowContext(ctx, InsertUserQuery,
		a.Username, a.Email, a.PasswordHash, a.Phone, a.Age, referredBy,
	).Scan(&out.ID, &out.CreatedAt)
	if IsUniqueViolation(err) {
		return models.AccountCreated{}, models.ErrDuplicateAccount
	}
	if err != nil {
		return models.AccountCreated{}, models.NewStoreError("create account", err)
	}
	return out, nil
}

func (u *Users) Credentials(ctx context.Context, email string) (models.Credentials, error) {
	var c models.Credentials
	err := u.db.QueryRowContext(ctx, SelectCredentialsQuery, email).Scan(&c.UserID, &c.PasswordHash)
	if err != nil {
		return models.Credentials{}, storeErr("load credentials", "user", email, err)
	}
	return c, nil
}

// Lookup resolves every id in one query. Unknown ids are absent from the map.
func (u *Users) Lookup(ctx context.Context, ids []int64) (map[int64]models.Owner, error) {
	out := make(map[int64]models.Owner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := u.db.QueryContext(ctx, SelectOwnersQuery, pq.Array(ids))
	if err != nil {
		return nil, models.NewStoreError("lookup owners", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, models.NewStoreError("scan owner", err)
		}
		out[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("lookup owners", err)
	}
	return out, nil
}

func (u *Users) Owner(ctx context.Context, id int64) (models.Owner, error) {
	o, err := scanOwner(u.db.QueryRowContext(ctx, SelectOwnerQuery, id))
	if err != nil {
		return models.Owner{}, storeErr("get owner", "user", strconv.FormatInt(id, 10), err)
	}
	return o, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOwner(row scanner) (models.Owner, error) {
	var o models.Owner
	err := row.Scan(&o.ID, &o.Username, &o.Email, &o.CreatedAt, &o.ReferredCount)
	return o, err
}
