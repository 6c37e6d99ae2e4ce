// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every error reply has the shape {"error": "..."}:
//
//	httputil.WriteJSON(w, http.StatusOK, summary)
//	httputil.WriteUnauthorized(w, "authentication required")
//	httputil.WriteForbidden(w, "admin privileges required")
//
// # Request Parsing
//
//	var req promoteRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.CORSMiddleware(origins),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication and rate limiting middleware
//   - pkg/rbac: Route authorization
package httputil
