package utils

import (
	"encoding/json"
	"net/http"

	"go-storefront/apperr"

	"github.com/rs/zerolog"
)

// WriteJSON writes v as the JSON response body with the given status
func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes a {"message": msg} body
func WriteMessage(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]string{"message": msg})
}

// WriteError maps err to its status and writes its message. Unclassified
// errors are logged with the request logger first.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	WriteMessage(w, code, apperr.Message(err))
}
