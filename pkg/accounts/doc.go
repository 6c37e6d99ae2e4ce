// Package accounts implements the account workflows behind the auth API:
// registration, login, live admin checks and the admin promotion workflow.
//
// # Promotion
//
// SetAdminStatus evaluates in a fixed order:
//
//  1. no caller identity            -> ErrUnauthenticated
//  2. caller not an admin right now -> ErrForbidden
//  3. unknown target id             -> ErrNotFound
//  4. caller demoting themselves    -> ErrInvalidSelfDemotion, nothing saved
//  5. otherwise the flag is saved and a Summary returned
//
// Step 2 reads the directory, not the token. Tokens are role snapshots taken
// at login and are not updated when an account is promoted or demoted.
//
// # Directory
//
// Directory is satisfied by storage.MemoryDirectory and postgres.AccountStore.
// Wrap either in NewInstrumentedDirectory to record storage metrics.
package accounts
