package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/storefront/pkg/accounts"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/httputil"
	"github.com/platinummonkey/storefront/pkg/middleware"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/sirupsen/logrus"
)

// AuthHandlers handles the /auth HTTP endpoints
type AuthHandlers struct {
	accounts      *accounts.Service
	logger        *logrus.Logger
	loginLimit    func(http.Handler) http.Handler
	registerLimit func(http.Handler) http.Handler
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(service *accounts.Service, logger *logrus.Logger) *AuthHandlers {
	passthrough := func(next http.Handler) http.Handler { return next }
	return &AuthHandlers{
		accounts:      service,
		logger:        logger,
		loginLimit:    passthrough,
		registerLimit: passthrough,
	}
}

// SetRateLimiter throttles login and register per client IP. A nil
// resolver keys on the direct peer address.
func (h *AuthHandlers) SetRateLimiter(limiter middleware.Limiter, resolver *middleware.ClientIPResolver, logger *observability.Logger, metrics *observability.Metrics) {
	h.loginLimit = middleware.NewRateLimitMiddleware(limiter, "login", logger, metrics).WithClientIPResolver(resolver).Handler
	h.registerLimit = middleware.NewRateLimitMiddleware(limiter, "register", logger, metrics).WithClientIPResolver(resolver).Handler
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/auth/register", h.registerLimit(http.HandlerFunc(h.register))).Methods("POST")
	router.Handle("/auth/login", h.loginLimit(http.HandlerFunc(h.login))).Methods("POST")

	router.HandleFunc("/auth/check-admin", h.checkAdmin).Methods("GET")
	router.HandleFunc("/auth/debug-user", h.debugUser).Methods("GET")
	router.HandleFunc("/auth/users", h.listUsers).Methods("GET")

	router.HandleFunc("/auth/promote/{userId}", h.promote).Methods("POST")
	router.HandleFunc("/auth/promote/{userId}/{makeAdmin}", h.promoteSimple).Methods("POST")
}

// CredentialsRequest is the body of register and login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// AccountResponse describes an account without its password hash
type AccountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// PromoteRequest is the body of POST /auth/promote/{userId}
type PromoteRequest struct {
	MakeAdmin *bool `json:"makeAdmin"`
}

// PromoteResponse is returned by both promote endpoints
type PromoteResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	Message  string `json:"message"`
}

func toAccountResponse(a *auth.Account) AccountResponse {
	return AccountResponse{ID: a.ID, Username: a.Username, IsAdmin: a.IsAdmin}
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Username, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "User registered successfully"})
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, LoginResponse{
		Token:    res.Token,
		Username: res.Account.Username,
		IsAdmin:  res.Account.IsAdmin,
	})
}

// checkAdmin handles GET /auth/check-admin
func (h *AuthHandlers) checkAdmin(w http.ResponseWriter, r *http.Request) {
	isAdmin, err := h.accounts.IsAdmin(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, isAdmin)
}

// debugUser handles GET /auth/debug-user
func (h *AuthHandlers) debugUser(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.CurrentAccount(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, toAccountResponse(account))
}

// listUsers handles GET /auth/users
func (h *AuthHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.accounts.ListAccounts(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	users := make([]AccountResponse, 0, len(all))
	for _, a := range all {
		users = append(users, toAccountResponse(a))
	}
	httputil.WriteSuccess(w, users)
}

// promote handles POST /auth/promote/{userId}
func (h *AuthHandlers) promote(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}

	var req PromoteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.MakeAdmin == nil {
		httputil.WriteBadRequest(w, "makeAdmin is required")
		return
	}

	h.setAdminStatus(w, r, userID, *req.MakeAdmin)
}

// promoteSimple handles POST /auth/promote/{userId}/{makeAdmin}
func (h *AuthHandlers) promoteSimple(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	makeAdmin, ok := httputil.ParsePathBoolOrError(w, r, "makeAdmin")
	if !ok {
		return
	}

	h.setAdminStatus(w, r, userID, makeAdmin)
}

func (h *AuthHandlers) setAdminStatus(w http.ResponseWriter, r *http.Request, userID int64, makeAdmin bool) {
	summary, err := h.accounts.SetAdminStatus(r.Context(), middleware.GetIdentity(r), userID, makeAdmin)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, PromoteResponse{
		UserID:   summary.UserID,
		Username: summary.Username,
		IsAdmin:  summary.IsAdmin,
		Message:  "User promotion status updated successfully",
	})
}

// writeServiceError maps account workflow errors to HTTP responses. Anything
// unrecognised is a storage failure and is not echoed to the client.
func (h *AuthHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, accounts.ErrUnauthenticated), errors.Is(err, accounts.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, accounts.ErrForbidden):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, accounts.ErrInvalidSelfDemotion), errors.Is(err, accounts.ErrInvalidInput),
		errors.Is(err, accounts.ErrPasswordTooLong):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, accounts.ErrUsernameTaken):
		httputil.WriteConflict(w, err.Error())
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Account operation failed")
		httputil.WriteInternalError(w)
	}
}
