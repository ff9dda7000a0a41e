package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/i18n"
	"github.com/diewo77/go-materiel/internal/services"
)

// writeCode writes the JSON error envelope with the message translated
// into the request language.
func writeCode(w http.ResponseWriter, r *http.Request, status int, code string, details any) {
	httpx.JSONError(w, status, code, i18n.T(i18n.LangFromContext(r.Context()), code), details)
}

// writeServiceError maps service and auth errors to HTTP statuses.
// Unknown errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		lang := i18n.LangFromContext(r.Context())
		details := make(map[string]string, len(verr.Fields))
		for field, code := range verr.Fields {
			details[field] = i18n.T(lang, code)
		}
		writeCode(w, r, http.StatusUnprocessableEntity, "validation_failed", details)
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeCode(w, r, http.StatusUnauthorized, "unauthenticated", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeCode(w, r, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.Is(err, services.ErrForbidden):
		writeCode(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, services.ErrNotFound):
		writeCode(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		writeCode(w, r, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, services.ErrConflict):
		writeCode(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeCode(w, r, http.StatusInternalServerError, "internal_error", nil)
	}
}
