package accounts

import (
	"context"
	"testing"

	"github.com/platinummonkey/storefront/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureBootstrapAdmin_Creates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.svc.EnsureBootstrapAdmin(ctx, "root", "s3cret")
	require.NoError(t, err)
	assert.True(t, account.IsAdmin)
	assert.Equal(t, audit.EventTypeAdminBootstrap, env.trail.last().EventType)

	res, err := env.svc.Login(ctx, "root", "s3cret")
	require.NoError(t, err)
	assert.True(t, res.Account.IsAdmin)

	// idempotent
	again, err := env.svc.EnsureBootstrapAdmin(ctx, "root", "ignored")
	require.NoError(t, err)
	assert.Equal(t, account.ID, again.ID)
	assert.Equal(t, 1, env.dir.Len())
}

func TestEnsureBootstrapAdmin_PromotesExisting(t *testing.T) {
	env := newTestEnv(t)
	existing := env.seed(t, "root", false)

	account, err := env.svc.EnsureBootstrapAdmin(context.Background(), "root", "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, account.ID)
	assert.True(t, env.isAdmin(t, existing.ID))

	// the stored password is kept
	_, err = env.svc.Login(context.Background(), "root", "pw-root")
	assert.NoError(t, err)
}

func TestEnsureBootstrapAdmin_Disabled(t *testing.T) {
	env := newTestEnv(t)

	account, err := env.svc.EnsureBootstrapAdmin(context.Background(), " ", "pw")
	require.NoError(t, err)
	assert.Nil(t, account)
	assert.Equal(t, 0, env.dir.Len())
}

func TestEnsureBootstrapAdmin_MissingPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.EnsureBootstrapAdmin(context.Background(), "root", "")
	assert.ErrorContains(t, err, "no password is configured")
}
