package rbac

import (
	"net/http"
	"path"
	"strings"

	"github.com/platinummonkey/storefront/pkg/auth"
)

type compiledRule struct {
	rule     Rule
	segments []string
}

// Policy is an ordered route authorization table. The first rule whose
// method and pattern match decides; later rules never override it.
// A Policy is immutable and safe for concurrent use.
type Policy struct {
	rules    []compiledRule
	fallback auth.Capability
}

// NewPolicy creates a policy from rules in evaluation order. Requests that
// match no rule require the fallback capability.
func NewPolicy(rules []Rule, fallback auth.Capability) *Policy {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, compiledRule{
			rule:     r,
			segments: splitPath(r.Pattern),
		})
	}
	return &Policy{rules: compiled, fallback: fallback}
}

// NewDefaultPolicy returns the marketplace route table with an AUTHENTICATED fallback
func NewDefaultPolicy() *Policy {
	return NewPolicy(DefaultRules(), auth.CapabilityAuthenticated)
}

// DefaultRules returns the marketplace route table in evaluation order.
// The second "/auth/users" entry is unreachable and kept as listed.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/auth/register", Capability: auth.CapabilityPublic},
		{Pattern: "/auth/login", Capability: auth.CapabilityPublic},
		{Pattern: "/software/list", Capability: auth.CapabilityPublic},
		{Pattern: "/software/upload", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/update/**", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/delete/**", Capability: auth.CapabilityAdmin},
		{Pattern: "/admin/**", Capability: auth.CapabilityAdmin},
		{Pattern: "/uploads/**", Capability: auth.CapabilityPublic},
		{Pattern: "/auth/check-admin", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/my-uploads", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/my-purchases", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/purchase/**", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/auth/users", Capability: auth.CapabilityAdmin},
		{Pattern: "/auth/users", Capability: auth.CapabilityAdmin},
		{Pattern: "/auth/promote/**", Capability: auth.CapabilityAdmin},
		{Pattern: "/auth/demote/**", Capability: auth.CapabilityAdmin},
		{Pattern: "/payment/create-payment", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/payment/execute-payment", Capability: auth.CapabilityAuthenticated},
		{Pattern: "/software/download/**", Capability: auth.CapabilityAuthenticated},
	}
}

// Rules returns a copy of the table in evaluation order
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	for i, cr := range p.rules {
		out[i] = cr.rule
	}
	return out
}

// Match returns the first rule matching the request
func (p *Policy) Match(method, urlPath string) (Rule, bool) {
	if i := p.match(method, urlPath); i >= 0 {
		return p.rules[i].rule, true
	}
	return Rule{}, false
}

func (p *Policy) match(method, urlPath string) int {
	segs := splitPath(cleanPath(urlPath))
	for i, cr := range p.rules {
		if cr.rule.Method != "" && !strings.EqualFold(cr.rule.Method, method) {
			continue
		}
		if matchSegments(cr.segments, segs) {
			return i
		}
	}
	return -1
}

// Decide evaluates a request. identity is nil for anonymous callers.
func (p *Policy) Decide(identity *auth.Identity, method, urlPath string) Decision {
	d := Decision{Required: p.fallback}
	if i := p.match(method, urlPath); i >= 0 {
		rule := p.rules[i].rule
		d.Rule = &rule
		d.Required = rule.Capability
	}

	switch {
	case d.Required == auth.CapabilityPublic:
		d.Allowed = true
	case identity == nil:
		d.Status = http.StatusUnauthorized
		return d
	default:
		d.Allowed = identity.Has(d.Required)
	}

	if d.Allowed {
		d.Status = http.StatusOK
	} else {
		d.Status = http.StatusForbidden
	}
	return d
}

// cleanPath resolves dot segments so "/software/list/../../admin/x" is
// judged as "/admin/x"
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
