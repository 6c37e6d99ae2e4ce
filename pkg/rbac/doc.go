// Package rbac provides route-level authorization for the storefront API.
//
// # Overview
//
// A Policy is an ordered table of rules. Each rule pairs an ant-style path
// pattern with the capability a caller needs:
//
//	PUBLIC         - anyone, with or without a token
//	AUTHENTICATED  - any caller with a verified token
//	ADMIN          - a caller whose token carries ROLE_ADMIN
//
// The first rule matching the request decides. Overlapping or duplicate
// rules are resolved purely by table order, never by specificity. A request
// that matches nothing requires AUTHENTICATED.
//
// # Patterns
//
//	/auth/login        - exact path
//	/software/*        - exactly one segment below /software
//	/admin/**          - /admin and everything below it
//
// Request paths are cleaned before matching, so dot segments cannot be used
// to step out of a protected prefix.
//
// # Usage
//
//	policy := rbac.NewDefaultPolicy()
//	authz := rbac.NewPolicyMiddleware(policy, logger, metrics)
//	router.Use(authn.Handler, authz.Handler)
//
// Denials are written as JSON errors: 401 when the request carried no usable
// identity, 403 when the identity lacks the capability. The ADMIN check here
// trusts the role in the token, which is a snapshot taken at login. Handlers
// that change account state re-check admin status against the directory.
package rbac
