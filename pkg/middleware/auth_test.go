package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/contextkeys"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthMiddleware(t *testing.T, codec *auth.TokenCodec) (*AuthMiddleware, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := observability.NewLogger(observability.DebugLevel, &bytes.Buffer{})
	return NewAuthMiddleware(codec, logger, metrics), metrics
}

// serve runs the middleware and returns the identity the handler saw
func serve(t *testing.T, m *AuthMiddleware, header string) (*auth.Identity, *httptest.ResponseRecorder) {
	t.Helper()
	var seen *auth.Identity
	called := false
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = GetIdentity(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/check-admin", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called, "middleware must always call the next handler")
	assert.Equal(t, http.StatusTeapot, rec.Code, "middleware must not write a response")
	return seen, rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	codec, err := auth.NewTokenCodec()
	require.NoError(t, err)
	m, metrics := newTestAuthMiddleware(t, codec)

	token, err := codec.Issue("alice", auth.RoleUser)
	require.NoError(t, err)

	var userID string
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = contextkeys.GetUserID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "alice", userID)

	identity, _ := serve(t, m, "Bearer "+token)
	require.NotNil(t, identity)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, []string{auth.RoleUser}, identity.Roles)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.AuthnOutcomesTotal.WithLabelValues(OutcomeOK)))
}

func TestAuthMiddleware_NeverRejects(t *testing.T) {
	codec, err := auth.NewTokenCodec(auth.WithSigningKey(sharedTestKey))
	require.NoError(t, err)
	other, err := auth.NewTokenCodec()
	require.NoError(t, err)

	foreign, err := other.Issue("mallory", auth.RoleAdmin)
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	stale, err := auth.NewTokenCodec(auth.WithClock(func() time.Time { return past }), auth.WithSigningKey(sharedTestKey))
	require.NoError(t, err)
	expired, err := stale.Issue("alice", auth.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		outcome string
	}{
		{"no header", "", OutcomeNone},
		{"basic scheme", "Basic YWxpY2U6cHc=", OutcomeNone},
		{"lowercase bearer", "bearer abc", OutcomeNone},
		{"empty token", "Bearer ", OutcomeMalformed},
		{"garbage token", "Bearer not-a-jwt", OutcomeMalformed},
		{"foreign key", "Bearer " + foreign, OutcomeSignature},
		{"expired", "Bearer " + expired, OutcomeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, metrics := newTestAuthMiddleware(t, codec)
			identity, _ := serve(t, m, tt.header)
			assert.Nil(t, identity)
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AuthnOutcomesTotal.WithLabelValues(tt.outcome)))
		})
	}
}

func TestAuthMiddleware_NilMetrics(t *testing.T) {
	codec, err := auth.NewTokenCodec()
	require.NoError(t, err)
	m := NewAuthMiddleware(codec, observability.NewLogger(observability.InfoLevel, &bytes.Buffer{}), nil)

	assert.NotPanics(t, func() { serve(t, m, "Bearer junk") })
}

var sharedTestKey = bytes.Repeat([]byte{0x2a}, auth.SigningKeyLength)
