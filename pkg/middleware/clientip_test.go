package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPResolver_ClientIP(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolver *ClientIPResolver
		headers  map[string]string
		remote   string
		want     string
	}{
		{"untrusted peer ignores forwarded for", resolver, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "198.51.100.1:1234", "198.51.100.1"},
		{"untrusted peer ignores real ip", resolver, map[string]string{"X-Real-IP": "203.0.113.7"}, "198.51.100.1:1234", "198.51.100.1"},
		{"nil resolver trusts nobody", nil, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.2:1234", "10.0.0.2"},
		{"trusted peer uses forwarded client", resolver, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.2:1234", "203.0.113.7"},
		{"spoofed leading hop skipped", resolver, map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.5"}, "10.0.0.2:1234", "203.0.113.7"},
		{"all hops trusted", resolver, map[string]string{"X-Forwarded-For": "10.0.0.9, 10.0.0.5"}, "10.0.0.2:1234", "10.0.0.9"},
		{"trusted single ip uses real ip", resolver, map[string]string{"X-Real-IP": "198.51.100.4"}, "192.0.2.10:80", "198.51.100.4"},
		{"trusted peer without headers", resolver, nil, "10.0.0.2:1234", "10.0.0.2"},
		{"peer without port", resolver, nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.ClientIP(req))
		})
	}
}

func TestNewClientIPResolver_Invalid(t *testing.T) {
	_, err := NewClientIPResolver([]string{"not-an-ip"})
	assert.ErrorContains(t, err, "invalid trusted proxy")

	_, err = NewClientIPResolver([]string{"10.0.0.0/99"})
	assert.ErrorContains(t, err, "invalid trusted proxy")

	r, err := NewClientIPResolver([]string{"", " 2001:db8::1 "})
	require.NoError(t, err)
	assert.True(t, r.isTrusted("2001:db8::1"))
	assert.False(t, r.isTrusted("2001:db8::2"))
}
