package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/storefront/pkg/audit"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var accountsTracer = otel.Tracer("storefront/accounts")

// Summary is the account state returned by an admin status change
type Summary struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// LoginResult carries a freshly issued token and the account it was issued for
type LoginResult struct {
	Token   string
	Account *auth.Account
}

// Service implements registration, login and the admin promotion workflow
// on top of a Directory
type Service struct {
	directory Directory
	hasher    *auth.PasswordHasher
	issuer    auth.TokenIssuer
	trail     audit.Logger
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewService creates an account service. trail and metrics may be nil.
func NewService(directory Directory, hasher *auth.PasswordHasher, issuer auth.TokenIssuer, trail audit.Logger, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if trail == nil {
		trail = audit.NoopLogger{}
	}
	return &Service{
		directory: directory,
		hasher:    hasher,
		issuer:    issuer,
		trail:     trail,
		logger:    logger,
		metrics:   metrics,
	}
}

// Register creates a non-admin account. The username is trimmed.
func (s *Service) Register(ctx context.Context, username, password string) (*auth.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, err
	}

	account := &auth.Account{Username: username, PasswordHash: hash}
	if err := s.directory.Save(ctx, account); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			s.logger.WithField("username", username).Warn("Registration failed: username already exists")
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	event := audit.NewEvent(ctx, audit.EventTypeAccountRegister, audit.EventStatusSuccess)
	event.Actor = account.Username
	event.TargetID = account.ID
	event.TargetUsername = account.Username
	event.Message = "account registered"
	s.record(ctx, event)

	s.logger.WithFields(map[string]interface{}{
		"username": account.Username,
		"user_id":  account.ID,
	}).Info("User registered")
	return account, nil
}

// Login checks credentials and issues a token carrying the account's current role
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.countLogin("invalid")
		return nil, ErrInvalidInput
	}

	account, err := s.directory.FindByUsername(ctx, username)
	if errors.Is(err, storage.ErrAccountNotFound) {
		s.loginFailed(ctx, username, "unknown_user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.hasher.Verify(password, account.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.loginFailed(ctx, username, "bad_password")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	role := account.Role()
	token, err := s.issuer.Issue(account.Username, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.countLogin("success")
	if s.metrics != nil {
		s.metrics.TokensIssuedTotal.WithLabelValues(role).Inc()
	}

	event := audit.NewEvent(ctx, audit.EventTypeAccountLogin, audit.EventStatusSuccess)
	event.Actor = account.Username
	event.TargetID = account.ID
	event.Message = "token issued"
	event.Metadata = map[string]interface{}{"role": role}
	s.record(ctx, event)

	return &LoginResult{Token: token, Account: account}, nil
}

func (s *Service) loginFailed(ctx context.Context, username, reason string) {
	s.countLogin(reason)
	s.logger.WithFields(map[string]interface{}{
		"username": username,
		"reason":   reason,
	}).Warn("Login failed")

	event := audit.NewEvent(ctx, audit.EventTypeAccountLoginFailed, audit.EventStatusDenied)
	event.Actor = username
	event.Message = "login rejected"
	event.Metadata = map[string]interface{}{"reason": reason}
	s.record(ctx, event)
}

func (s *Service) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
	}
}

// requireAdmin resolves the actor's live account and checks its admin flag.
// The role carried in the token is not consulted.
func (s *Service) requireAdmin(ctx context.Context, actor *auth.Identity) (*auth.Account, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	account, err := s.directory.FindByUsername(ctx, actor.Username)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up actor: %w", err)
	}
	if !account.IsAdmin {
		return nil, ErrForbidden
	}
	return account, nil
}

// SetAdminStatus grants or removes admin status on the target account.
//
// The actor must currently be an admin according to the directory. An admin
// may never demote themselves; that call fails with ErrInvalidSelfDemotion
// and leaves the account untouched. Tokens already issued to the target keep
// the role they were issued with.
func (s *Service) SetAdminStatus(ctx context.Context, actor *auth.Identity, targetID int64, makeAdmin bool) (summary *Summary, err error) {
	ctx, span := accountsTracer.Start(ctx, "SetAdminStatus",
		trace.WithAttributes(
			attribute.Int64("target_id", targetID),
			attribute.Bool("make_admin", makeAdmin),
		),
	)
	defer span.End()

	eventType := audit.EventTypeAdminDemote
	if makeAdmin {
		eventType = audit.EventTypeAdminPromote
	}
	event := audit.NewEvent(ctx, eventType, audit.EventStatusSuccess)
	event.TargetID = targetID
	event.Metadata = map[string]interface{}{"make_admin": makeAdmin}
	if actor != nil {
		event.Actor = actor.Username
		span.SetAttributes(attribute.String("actor", actor.Username))
	}
	defer func() {
		s.finishAdminChange(ctx, span, event, makeAdmin, err)
	}()

	if _, err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	target, err := s.directory.FindByID(ctx, targetID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up target: %w", err)
	}
	event.TargetUsername = target.Username

	if target.Username == actor.Username && !makeAdmin {
		return nil, ErrInvalidSelfDemotion
	}

	target.IsAdmin = makeAdmin
	if err := s.directory.Save(ctx, target); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	return &Summary{
		UserID:   target.ID,
		Username: target.Username,
		IsAdmin:  target.IsAdmin,
	}, nil
}

func (s *Service) finishAdminChange(ctx context.Context, span trace.Span, event *audit.Event, makeAdmin bool, err error) {
	action := "demote"
	if makeAdmin {
		action = "promote"
	}
	result := adminChangeResult(err)
	if s.metrics != nil {
		s.metrics.PromotionsTotal.WithLabelValues(action, result).Inc()
	}

	log := s.logger.WithFields(map[string]interface{}{
		"actor":     event.Actor,
		"target_id": event.TargetID,
		"action":    action,
		"result":    result,
	})

	if err == nil {
		span.SetStatus(codes.Ok, "")
		if makeAdmin {
			event.Message = "admin status granted"
		} else {
			event.Message = "admin status removed"
		}
		log.WithField("target", event.TargetUsername).Info("Admin status updated")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrForbidden) {
			event.Status = audit.EventStatusDenied
		}
		event.Message = "admin status change rejected"
		event.WithError(err)
		log.WithError(err).Warn("Admin status change rejected")
	}

	s.record(ctx, event)
}

func adminChangeResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidSelfDemotion):
		return "self_demotion"
	default:
		return "error"
	}
}

// ListAccounts returns every account ordered by id. The actor must currently be an admin.
func (s *Service) ListAccounts(ctx context.Context, actor *auth.Identity) ([]*auth.Account, error) {
	if _, err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	accounts, err := s.directory.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// IsAdmin reports the actor's live admin status. An identity whose account
// no longer exists is not an admin.
func (s *Service) IsAdmin(ctx context.Context, actor *auth.Identity) (bool, error) {
	if actor == nil {
		return false, ErrUnauthenticated
	}

	account, err := s.directory.FindByUsername(ctx, actor.Username)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up account: %w", err)
	}
	return account.IsAdmin, nil
}

// CurrentAccount returns the live account behind the actor's identity
func (s *Service) CurrentAccount(ctx context.Context, actor *auth.Identity) (*auth.Account, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	account, err := s.directory.FindByUsername(ctx, actor.Username)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return account, nil
}

// record writes an audit event; failures are logged and never surface to the caller
func (s *Service) record(ctx context.Context, event *audit.Event) {
	if err := s.trail.Log(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", string(event.EventType)).Error("Failed to write audit event")
	}
}
