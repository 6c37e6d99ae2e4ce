package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	var dest struct {
		MakeAdmin bool `json:"makeAdmin"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"makeAdmin":true}`))
	require.NoError(t, ParseJSON(req, &dest))
	assert.True(t, dest.MakeAdmin)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	assert.ErrorContains(t, ParseJSON(req, &dest), "invalid JSON")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.EqualError(t, ParseJSON(req, &dest), "request body is empty")
}

func TestParseJSONOrError(t *testing.T) {
	var dest map[string]string
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[`))

	assert.False(t, ParseJSONOrError(w, req, &dest))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePathInt64(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		want    int64
		wantErr string
	}{
		{"valid", map[string]string{"userId": "42"}, 42, ""},
		{"missing", map[string]string{}, 0, "missing path parameter: userId"},
		{"not a number", map[string]string{"userId": "abc"}, 0, "invalid integer for userId: abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), tt.vars)
			got, err := ParsePathInt64(req, "userId")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathBoolOrError(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"makeAdmin": "false"})
	w := httptest.NewRecorder()
	val, ok := ParsePathBoolOrError(w, req, "makeAdmin")
	assert.True(t, ok)
	assert.False(t, val)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"makeAdmin": "maybe"})
	w = httptest.NewRecorder()
	_, ok = ParsePathBoolOrError(w, req, "makeAdmin")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseJSON_TrailingData(t *testing.T) {
	var dest map[string]interface{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{\"makeAdmin\":true}\n"))
	assert.NoError(t, ParseJSON(req, &dest))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"makeAdmin":true}{"makeAdmin":false}`))
	assert.ErrorContains(t, ParseJSON(req, &dest), "unexpected data")
}

func TestParsePathBool_Missing(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{})
	_, err := ParsePathBool(req, "makeAdmin")
	assert.EqualError(t, err, "missing path parameter: makeAdmin")
}
