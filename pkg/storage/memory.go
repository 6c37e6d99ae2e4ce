package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/platinummonkey/storefront/pkg/auth"
)

// MemoryDirectory is an in-process AccountStore. Every operation holds the
// same mutex, so concurrent saves are serialized and never lost. Callers get
// copies; mutating a returned account has no effect until it is saved.
type MemoryDirectory struct {
	mu     sync.RWMutex
	byID   map[int64]*auth.Account
	byName map[string]int64
	lastID int64
}

// NewMemoryDirectory creates an empty directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:   make(map[int64]*auth.Account),
		byName: make(map[string]int64),
	}
}

// FindByUsername looks an account up by its exact username
func (d *MemoryDirectory) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byName[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(d.byID[id]), nil
}

// FindByID looks an account up by id
func (d *MemoryDirectory) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, ok := d.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(account), nil
}

// FindAll returns all accounts ordered by id
func (d *MemoryDirectory) FindAll(ctx context.Context) ([]*auth.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	accounts := make([]*auth.Account, 0, len(d.byID))
	for _, account := range d.byID {
		accounts = append(accounts, copyAccount(account))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// Save inserts or updates an account
func (d *MemoryDirectory) Save(ctx context.Context, account *auth.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if account.ID == 0 {
		if _, taken := d.byName[account.Username]; taken {
			return ErrUsernameTaken
		}
		d.lastID++
		account.ID = d.lastID
		d.byID[account.ID] = copyAccount(account)
		d.byName[account.Username] = account.ID
		return nil
	}

	existing, ok := d.byID[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if existing.Username != account.Username {
		if _, taken := d.byName[account.Username]; taken {
			return ErrUsernameTaken
		}
		delete(d.byName, existing.Username)
		d.byName[account.Username] = account.ID
	}
	d.byID[account.ID] = copyAccount(account)
	return nil
}

// Len returns the number of stored accounts
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func copyAccount(a *auth.Account) *auth.Account {
	c := *a
	return &c
}
