package rbac

import (
	"net/http"
	"testing"

	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.NewIdentity("alice", auth.RoleUser)
	root  = auth.NewIdentity("root", auth.RoleAdmin)
)

func TestDefaultPolicy_RouteClasses(t *testing.T) {
	policy := NewDefaultPolicy()

	tests := []struct {
		method string
		path   string
		want   auth.Capability
	}{
		{http.MethodPost, "/auth/register", auth.CapabilityPublic},
		{http.MethodPost, "/auth/login", auth.CapabilityPublic},
		{http.MethodGet, "/software/list", auth.CapabilityPublic},
		{http.MethodGet, "/uploads/icons/a.png", auth.CapabilityPublic},
		{http.MethodPost, "/software/upload", auth.CapabilityAuthenticated},
		{http.MethodPut, "/software/update/7", auth.CapabilityAuthenticated},
		{http.MethodGet, "/software/my-uploads", auth.CapabilityAuthenticated},
		{http.MethodGet, "/software/my-purchases", auth.CapabilityAuthenticated},
		{http.MethodPost, "/software/purchase/7", auth.CapabilityAuthenticated},
		{http.MethodGet, "/software/download/7", auth.CapabilityAuthenticated},
		{http.MethodPost, "/payment/create-payment", auth.CapabilityAuthenticated},
		{http.MethodPost, "/payment/execute-payment", auth.CapabilityAuthenticated},
		{http.MethodGet, "/auth/check-admin", auth.CapabilityAuthenticated},
		{http.MethodDelete, "/software/delete/7", auth.CapabilityAdmin},
		{http.MethodGet, "/admin/stats", auth.CapabilityAdmin},
		{http.MethodGet, "/auth/users", auth.CapabilityAdmin},
		{http.MethodPost, "/auth/promote/2", auth.CapabilityAdmin},
		{http.MethodPost, "/auth/promote/2/true", auth.CapabilityAdmin},
		{http.MethodPost, "/auth/demote/2", auth.CapabilityAdmin},
		// unmatched routes fall back to AUTHENTICATED
		{http.MethodGet, "/auth/debug-user", auth.CapabilityAuthenticated},
		{http.MethodGet, "/somewhere/else", auth.CapabilityAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			d := policy.Decide(nil, tt.method, tt.path)
			assert.Equal(t, tt.want, d.Required)
		})
	}
}

func TestDefaultRules_KeepsDuplicateUsersRule(t *testing.T) {
	var count int
	for _, r := range DefaultRules() {
		if r.Pattern == "/auth/users" {
			count++
			assert.Equal(t, auth.CapabilityAdmin, r.Capability)
		}
	}
	assert.Equal(t, 2, count)
}

func TestPolicy_Decide(t *testing.T) {
	policy := NewDefaultPolicy()

	tests := []struct {
		name       string
		identity   *auth.Identity
		path       string
		wantAllow  bool
		wantStatus int
	}{
		{"public anonymous", nil, "/auth/login", true, http.StatusOK},
		{"public with identity", alice, "/software/list", true, http.StatusOK},
		{"authenticated anonymous", nil, "/auth/check-admin", false, http.StatusUnauthorized},
		{"authenticated user", alice, "/auth/check-admin", true, http.StatusOK},
		{"authenticated admin", root, "/auth/check-admin", true, http.StatusOK},
		{"admin anonymous", nil, "/auth/users", false, http.StatusUnauthorized},
		{"admin as user", alice, "/auth/users", false, http.StatusForbidden},
		{"admin as admin", root, "/auth/users", true, http.StatusOK},
		{"fallback anonymous", nil, "/unknown", false, http.StatusUnauthorized},
		{"fallback user", alice, "/unknown", true, http.StatusOK},
		{"dot segments", alice, "/software/list/../../admin/stats", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.identity, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantAllow, d.Allowed)
			assert.Equal(t, tt.wantStatus, d.Status)
		})
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	rules := []Rule{
		{Pattern: "/reports/public", Capability: auth.CapabilityPublic},
		{Pattern: "/reports/**", Capability: auth.CapabilityAdmin},
		{Pattern: "/reports/public", Capability: auth.CapabilityAdmin},
	}
	policy := NewPolicy(rules, auth.CapabilityAuthenticated)

	d := policy.Decide(nil, http.MethodGet, "/reports/public")
	assert.True(t, d.Allowed)
	require.NotNil(t, d.Rule)
	assert.Equal(t, rules[0], *d.Rule)

	d = policy.Decide(alice, http.MethodGet, "/reports/q3")
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.Status)

	// appending more rules never changes the outcome for an already matched path
	extended := NewPolicy(append(rules, Rule{Pattern: "/**", Capability: auth.CapabilityAdmin}), auth.CapabilityAuthenticated)
	assert.Equal(t, policy.Decide(nil, http.MethodGet, "/reports/public"), extended.Decide(nil, http.MethodGet, "/reports/public"))
}

func TestPolicy_Match(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Pattern: "/items/**", Method: http.MethodGet, Capability: auth.CapabilityPublic},
		{Pattern: "/items/**", Capability: auth.CapabilityAdmin},
	}, auth.CapabilityAuthenticated)

	rule, ok := policy.Match("get", "/items/1")
	require.True(t, ok)
	assert.Equal(t, auth.CapabilityPublic, rule.Capability)

	rule, ok = policy.Match(http.MethodDelete, "/items/1")
	require.True(t, ok)
	assert.Equal(t, auth.CapabilityAdmin, rule.Capability)

	_, ok = policy.Match(http.MethodGet, "/other")
	assert.False(t, ok)

	d := policy.Decide(alice, http.MethodGet, "/other")
	assert.Nil(t, d.Rule)
	assert.Equal(t, auth.CapabilityAuthenticated, d.Required)
}

func TestPolicy_RulesIsCopy(t *testing.T) {
	policy := NewDefaultPolicy()
	rules := policy.Rules()
	rules[0].Capability = auth.CapabilityAdmin

	assert.True(t, policy.Decide(nil, http.MethodPost, "/auth/register").Allowed)
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "* /admin/** -> ADMIN", Rule{Pattern: "/admin/**", Capability: auth.CapabilityAdmin}.String())
	assert.Equal(t, "GET /x -> PUBLIC", Rule{Pattern: "/x", Method: "GET", Capability: auth.CapabilityPublic}.String())
}
