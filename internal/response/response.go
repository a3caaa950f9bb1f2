// Package response writes JSON bodies and coded error responses.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
)

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encode response")
	}
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusOK, data)
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error classifies err and writes {"code", "error", "details"}. Internal
// errors are logged with their cause and reported without it.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	coded := appErrors.Classify(err)
	status := coded.Code.HTTPStatus()

	body := coded
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).Str("path", r.URL.Path).
			Msg("request failed")
		body = &appErrors.Error{Code: coded.Code, Message: coded.Message}
	}
	JSON(w, r, status, body)
}
