// Package api provides the HTTP server for the storefront auth endpoints.
//
// # Request pipeline
//
// Every request passes, in order:
//
//	recovery -> request id -> access log -> CORS -> body limit
//	  -> metrics -> bearer token resolution -> route policy -> handler
//
// Token resolution never rejects; the route policy (pkg/rbac) answers 401
// for anonymous callers and 403 for callers lacking the capability. Requests
// that match no route still go through the policy, so an anonymous probe of
// an unknown path gets 401 rather than 404.
//
// # Endpoints
//
//	POST /auth/register                     PUBLIC         {"username","password"}
//	POST /auth/login                        PUBLIC         -> {"token","username","isAdmin"}
//	GET  /auth/check-admin                  AUTHENTICATED  -> true | false
//	GET  /auth/debug-user                   AUTHENTICATED  -> {"id","username","isAdmin"}
//	GET  /auth/users                        ADMIN          -> [{"id","username","isAdmin"}]
//	POST /auth/promote/{userId}             ADMIN          {"makeAdmin": bool}
//	POST /auth/promote/{userId}/{makeAdmin} ADMIN
//
// Handlers behind ADMIN routes re-check admin status against the account
// directory, because the role in a token is a snapshot taken at login.
//
// # Usage
//
//	server := api.NewServer(api.ServerOptions{
//		Accounts: service,
//		Verifier: codec,
//		Limiter:  middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
//		Logger:   logger,
//		Metrics:  metrics,
//	})
//	http.ListenAndServe(":8080", server)
package api
