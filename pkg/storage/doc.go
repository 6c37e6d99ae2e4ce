// Package storage defines account persistence for the storefront service.
//
// # Overview
//
// Accounts are the only state the authentication subsystem owns. The
// storage layer splits access into AccountReader (FindByUsername, FindByID,
// FindAll) and AccountWriter (Save), composed as AccountStore.
//
// Lookups of a missing account return ErrAccountNotFound; inserting a
// username that already exists returns ErrUsernameTaken.
//
// # Backend Implementations
//
// MemoryDirectory keeps accounts in process behind a mutex. It is the
// default for development and tests; everything is lost on restart.
//
//	dir := storage.NewMemoryDirectory()
//
// postgres.AccountStore keeps accounts in PostgreSQL:
//
//	db, err := postgres.Connect(ctx, postgres.ConnectionConfigFrom(cfg))
//	store := postgres.NewAccountStore(db)
//
// # Related Packages
//
//   - pkg/accounts: Registration, login and the promotion workflow
//   - pkg/config: Storage configuration
package storage
