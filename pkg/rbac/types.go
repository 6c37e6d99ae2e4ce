package rbac

import (
	"fmt"
	"net/http"

	"github.com/platinummonkey/storefront/pkg/auth"
)

// Rule binds a route pattern to the capability a caller needs to reach it
type Rule struct {
	// Pattern is an ant-style path: literal segments, "*" for exactly one
	// segment and "**" for zero or more segments.
	Pattern string `json:"pattern"`

	// Method restricts the rule to one HTTP method. Empty matches any method.
	Method string `json:"method,omitempty"`

	Capability auth.Capability `json:"capability"`
}

// String returns a string representation of the rule
func (r Rule) String() string {
	method := r.Method
	if method == "" {
		method = "*"
	}
	return fmt.Sprintf("%s %s -> %s", method, r.Pattern, r.Capability)
}

// Decision is the outcome of evaluating a request against the policy
type Decision struct {
	Allowed bool `json:"allowed"`

	// Status is 200 when allowed, 401 when no identity was resolved and
	// 403 when the identity lacks the required capability.
	Status int `json:"status"`

	Required auth.Capability `json:"required"`

	// Rule is the first matching rule, or nil when the fallback applied
	Rule *Rule `json:"rule,omitempty"`
}

// Decision results used as metric labels
const (
	ResultAllow           = "allow"
	ResultUnauthenticated = "unauthenticated"
	ResultForbidden       = "forbidden"
)

// Result returns the metric label for the decision
func (d Decision) Result() string {
	switch {
	case d.Allowed:
		return ResultAllow
	case d.Status == http.StatusUnauthorized:
		return ResultUnauthenticated
	default:
		return ResultForbidden
	}
}
