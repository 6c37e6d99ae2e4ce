package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/storefront/pkg/audit"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/storage"
)

// EnsureBootstrapAdmin makes sure the named account exists and is an admin.
// An existing account is promoted in place and keeps its password; a missing
// one is created with password. An empty username disables bootstrapping.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username, password string) (*auth.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}

	account, err := s.directory.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if account.IsAdmin {
			return account, nil
		}
		account.IsAdmin = true
		if err := s.directory.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to promote bootstrap admin: %w", err)
		}

	case errors.Is(err, storage.ErrAccountNotFound):
		if password == "" {
			return nil, fmt.Errorf("bootstrap admin %q does not exist and no password is configured", username)
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash bootstrap admin password: %w", err)
		}
		account = &auth.Account{Username: username, PasswordHash: hash, IsAdmin: true}
		if err := s.directory.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
		}

	default:
		return nil, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	event := audit.NewEvent(ctx, audit.EventTypeAdminBootstrap, audit.EventStatusSuccess)
	event.TargetID = account.ID
	event.TargetUsername = account.Username
	event.Message = "bootstrap admin ensured"
	s.record(ctx, event)

	s.logger.WithField("username", account.Username).Info("Bootstrap admin ready")
	return account, nil
}
