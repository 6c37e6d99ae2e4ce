package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/storage"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

const selectAccount = `SELECT id, username, password_hash, is_admin FROM users`

// AccountStore persists accounts in the users table.
//
// Updates touch a single row by primary key, so two concurrent saves of the
// same admin flag both land and neither is lost.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a store over an open connection pool
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// DB returns the underlying pool
func (s *AccountStore) DB() *sql.DB {
	return s.db
}

// FindByUsername looks an account up by its exact username
func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE username = $1`, username)
	return scanAccount(row)
}

// FindByID looks an account up by id
func (s *AccountStore) FindByID(ctx context.Context, id int64) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE id = $1`, id)
	return scanAccount(row)
}

// FindAll returns all accounts ordered by id
func (s *AccountStore) FindAll(ctx context.Context) ([]*auth.Account, error) {
	rows, err := s.db.QueryContext(ctx, selectAccount+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		var a auth.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsAdmin); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Save inserts a new account (ID == 0) or updates an existing one
func (s *AccountStore) Save(ctx context.Context, account *auth.Account) error {
	if account.ID == 0 {
		return s.insert(ctx, account)
	}
	return s.update(ctx, account)
}

func (s *AccountStore) insert(ctx context.Context, account *auth.Account) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
		RETURNING id`,
		account.Username, account.PasswordHash, account.IsAdmin,
	).Scan(&account.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *AccountStore) update(ctx context.Context, account *auth.Account) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $1, password_hash = $2, is_admin = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`,
		account.Username, account.PasswordHash, account.IsAdmin, account.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update account %d: %w", account.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", account.ID, err)
	}
	if affected == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}
