// Package auth provides identity tokens, password hashing and the identity model for the storefront.
//
// # Overview
//
// Tokens are stateless HS512 JWTs. A token encodes the subject (username), a single role label
// and issued/expiry timestamps. There is no server-side token record: validity depends only on the
// signature and the 24 hour expiry, so a token cannot be revoked before it expires.
//
// # Key Components
//
// TokenCodec: issues and verifies tokens with a process-lifetime signing key
//
//	codec, err := auth.NewTokenCodec()
//	token, err := codec.Issue("alice", auth.RoleUser)
//	identity, err := codec.Verify(token)
//	// identity.Username == "alice", identity.Roles == []string{"ROLE_USER"}
//
// Verification errors wrap one of:
//
//	ErrMalformedToken    - token cannot be parsed
//	ErrSignatureMismatch - signature does not verify against the current key
//	ErrExpired           - now is at or past the expiry time
//
// Role claims: a single label or a list of labels. Unparseable shapes decode to ROLE_USER.
//
// Capabilities:
//
//	CapabilityPublic        - everyone, including anonymous callers
//	CapabilityAuthenticated - any verified identity
//	CapabilityAdmin         - identities carrying ROLE_ADMIN
//
// # Role snapshots
//
// The role embedded in a token is a snapshot of Account.IsAdmin at login. Promoting or demoting an
// account does not change tokens that were already issued; operations that must see the live role
// re-read the account directory instead of trusting the token.
//
// # Key lifecycle
//
// The signing key is generated when the codec is constructed and is never persisted. Restarting the
// process therefore invalidates all outstanding tokens, which then fail with ErrSignatureMismatch.
//
// # Related Packages
//
//   - pkg/middleware: resolves identities from Authorization headers
//   - pkg/rbac: route-level authorization against identity capabilities
//   - pkg/accounts: login, registration and admin promotion
package auth
