package memory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"bloodzy/backend/models"
	"bloodzy/backend/store"
)

var (
	_ store.UserDirectory = (*UserDirectory)(nil)
	_ store.AccountStore  = (*UserDirectory)(nil)
)

// UserDirectory is a map-backed account store and owner lookup. Setting Err
// makes every call fail, which tests use to simulate an unreachable directory.
type UserDirectory struct {
	mu     sync.RWMutex
	owners map[int64]models.Owner
	hashes map[int64]string
	seq    int64
	now    func() time.Time
	Err    error
}

// NewUserDirectory returns a directory holding owners.
func NewUserDirectory(owners ...models.Owner) *UserDirectory {
	d := &UserDirectory{
		owners: make(map[int64]models.Owner),
		hashes: make(map[int64]string),
		now:    time.Now,
	}
	for _, o := range owners {
		d.Add(o)
	}
	return d
}

// Add registers or replaces an owner.
func (d *UserDirectory) Add(o models.Owner) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.owners[o.ID] = o
	if o.ID > d.seq {
		d.seq = o.ID
	}
}

func (d *UserDirectory) CreateAccount(ctx context.Context, a models.NewAccount) (models.AccountCreated, error) {
	if d.Err != nil {
		return models.AccountCreated{}, models.NewStoreError("create account", d.Err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.owners {
		if strings.EqualFold(o.Email, a.Email) || o.Username == a.Username {
			return models.AccountCreated{}, models.ErrDuplicateAccount
		}
	}
	d.seq++
	created := models.AccountCreated{ID: d.seq, CreatedAt: d.now().UTC()}
	d.owners[created.ID] = models.Owner{
		ID:        created.ID,
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: created.CreatedAt,
	}
	d.hashes[created.ID] = a.PasswordHash
	if a.ReferredBy != nil {
		if ref, ok := d.owners[*a.ReferredBy]; ok {
			ref.ReferredCount++
			d.owners[ref.ID] = ref
		}
	}
	return created, nil
}

func (d *UserDirectory) Credentials(ctx context.Context, email string) (models.Credentials, error) {
	if d.Err != nil {
		return models.Credentials{}, models.NewStoreError("load credentials", d.Err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for id, o := range d.owners {
		if strings.EqualFold(o.Email, email) {
			if hash, ok := d.hashes[id]; ok {
				return models.Credentials{UserID: id, PasswordHash: hash}, nil
			}
		}
	}
	return models.Credentials{}, &models.NotFoundError{Resource: "user", Key: email}
}

func (d *UserDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]models.Owner, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[int64]models.Owner, len(ids))
	for _, id := range ids {
		if o, ok := d.owners[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

func (d *UserDirectory) Owner(ctx context.Context, id int64) (models.Owner, error) {
	if d.Err != nil {
		return models.Owner{}, d.Err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.owners[id]
	if !ok {
		return models.Owner{}, &models.NotFoundError{Resource: "user", Key: strconv.FormatInt(id, 10)}
	}
	return o, nil
}

// ErrUnavailable is a convenience error for simulating outages.
var ErrUnavailable = errors.New("directory unavailable")
