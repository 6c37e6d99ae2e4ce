package auth

import "sort"

// Role labels carried in the token "roles" claim
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Capability is the permission level a route requires and an identity holds
type Capability string

const (
	CapabilityPublic        Capability = "PUBLIC"
	CapabilityAuthenticated Capability = "AUTHENTICATED"
	CapabilityAdmin         Capability = "ADMIN"
)

// Account represents a marketplace user account as held by the account directory
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose hash
	IsAdmin      bool   `json:"isAdmin"`
}

// Role returns the role label that a token issued for this account carries
func (a *Account) Role() string {
	return RoleFor(a.IsAdmin)
}

// RoleFor maps the admin flag to a role label
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Identity is the principal resolved from a verified token for a single request.
// It is never persisted.
type Identity struct {
	Username string
	Roles    []string
}

// NewIdentity builds an identity with a deduplicated, sorted role set
func NewIdentity(username string, roles ...string) *Identity {
	seen := make(map[string]struct{}, len(roles))
	set := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		set = append(set, r)
	}
	sort.Strings(set)
	return &Identity{Username: username, Roles: set}
}

// HasRole checks if the identity carries a role label
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Capabilities returns the capabilities granted by the identity's roles.
// Any identity is AUTHENTICATED; ROLE_ADMIN additionally grants ADMIN.
func (id *Identity) Capabilities() []Capability {
	if id == nil {
		return []Capability{CapabilityPublic}
	}
	caps := []Capability{CapabilityPublic, CapabilityAuthenticated}
	if id.HasRole(RoleAdmin) {
		caps = append(caps, CapabilityAdmin)
	}
	return caps
}

// Has checks if the identity holds a capability. A nil identity only holds PUBLIC.
func (id *Identity) Has(c Capability) bool {
	for _, held := range id.Capabilities() {
		if held == c {
			return true
		}
	}
	return false
}
