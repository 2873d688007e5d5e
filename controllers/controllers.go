// Package controllers holds the HTTP handlers of the storefront API.
package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go-storefront/apperr"
	"go-storefront/middleware"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(err, apperr.Validation, "Invalid input")
	}
	return nil
}

// caller returns the signed-in user. Routes that call it are guarded, so a
// missing identity is an unauthenticated request that slipped through.
func caller(r *http.Request) (*middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthorizedf("No Token")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Validationf("Invalid %s price", key)
	}
	return &f, nil
}
