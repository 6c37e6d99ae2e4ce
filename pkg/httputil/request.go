package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParseJSON decodes the request body into dest. An empty body and trailing
// garbage after the first value are both errors.
func ParseJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: unexpected data after the request object")
	}
	return nil
}

// ParseJSONOrError decodes JSON and answers 400 on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

func pathVar[T any](r *http.Request, key, kind string, parse func(string) (T, error)) (T, error) {
	var zero T
	raw, ok := mux.Vars(r)[key]
	if !ok || raw == "" {
		return zero, fmt.Errorf("missing path parameter: %s", key)
	}
	v, err := parse(raw)
	if err != nil {
		return zero, fmt.Errorf("invalid %s for %s: %s", kind, key, raw)
	}
	return v, nil
}

// ParsePathInt64 extracts a decimal int64 route variable
func ParsePathInt64(r *http.Request, key string) (int64, error) {
	return pathVar(r, key, "integer", func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// ParsePathBool extracts a boolean route variable ("true", "false", "1", "0", ...)
func ParsePathBool(r *http.Request, key string) (bool, error) {
	return pathVar(r, key, "boolean", strconv.ParseBool)
}

// ParsePathInt64OrError is ParsePathInt64 answering 400 on failure
func ParsePathInt64OrError(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	v, err := ParsePathInt64(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return 0, false
	}
	return v, true
}

// ParsePathBoolOrError is ParsePathBool answering 400 on failure
func ParsePathBoolOrError(w http.ResponseWriter, r *http.Request, key string) (bool, bool) {
	v, err := ParsePathBool(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return false, false
	}
	return v, true
}
