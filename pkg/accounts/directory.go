package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage"
)

// Directory is the account store consumed by token issuance and the
// promotion workflow. Implementations live in pkg/storage.
type Directory interface {
	storage.AccountReader
	storage.AccountWriter
}

// InstrumentedDirectory records operation counts and latency for a Directory
type InstrumentedDirectory struct {
	next    Directory
	backend string
	metrics *observability.Metrics
}

// NewInstrumentedDirectory wraps next; backend labels the metrics
func NewInstrumentedDirectory(next Directory, backend string, metrics *observability.Metrics) *InstrumentedDirectory {
	return &InstrumentedDirectory{next: next, backend: backend, metrics: metrics}
}

func (d *InstrumentedDirectory) observe(op string, start time.Time, err error) {
	// lookups that miss and inserts that collide are outcomes, not failures
	if errors.Is(err, storage.ErrAccountNotFound) || errors.Is(err, storage.ErrUsernameTaken) {
		err = nil
	}
	d.metrics.ObserveStorage(op, d.backend, start, err)
}

func (d *InstrumentedDirectory) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	start := time.Now()
	account, err := d.next.FindByUsername(ctx, username)
	d.observe("find_by_username", start, err)
	return account, err
}

func (d *InstrumentedDirectory) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	start := time.Now()
	account, err := d.next.FindByID(ctx, id)
	d.observe("find_by_id", start, err)
	return account, err
}

func (d *InstrumentedDirectory) FindAll(ctx context.Context) ([]*auth.Account, error) {
	start := time.Now()
	accounts, err := d.next.FindAll(ctx)
	d.observe("find_all", start, err)
	return accounts, err
}

func (d *InstrumentedDirectory) Save(ctx context.Context, account *auth.Account) error {
	start := time.Now()
	err := d.next.Save(ctx, account)
	d.observe("save", start, err)
	return err
}
