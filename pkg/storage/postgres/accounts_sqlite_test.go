package postgres

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccountStore_SQLite_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(setupTestDB(t))

	root := &auth.Account{Username: "root", PasswordHash: "h", IsAdmin: true}
	require.NoError(t, store.Save(ctx, root))
	alice := &auth.Account{Username: "alice", PasswordHash: "h"}
	require.NoError(t, store.Save(ctx, alice))
	assert.Equal(t, int64(1), root.ID)
	assert.Equal(t, int64(2), alice.ID)

	err := store.Save(ctx, &auth.Account{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, storage.ErrUsernameTaken)

	alice.IsAdmin = true
	require.NoError(t, store.Save(ctx, alice))

	found, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found.IsAdmin)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"root", "alice"}, []string{all[0].Username, all[1].Username})

	_, err = store.FindByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	err = store.Save(ctx, &auth.Account{ID: 99, Username: "ghost", PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestAccountStore_SQLite_ConcurrentIdenticalUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(setupTestDB(t))

	target := &auth.Account{Username: "alice", PasswordHash: "h"}
	require.NoError(t, store.Save(ctx, target))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := store.FindByID(ctx, target.ID)
			if err != nil {
				errs <- err
				return
			}
			a.IsAdmin = true
			errs <- store.Save(ctx, a)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	final, err := store.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, final.IsAdmin)
}
