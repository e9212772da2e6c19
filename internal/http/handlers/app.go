package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/facade"
	"mediaforge/internal/validate"
)

// App carries the handler dependencies.
type App struct {
	Facade *facade.Service
	Logger zerolog.Logger
}

func NewApp(svc *facade.Service, logger zerolog.Logger) *App {
	return &App{Facade: svc, Logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, errorResponse{Error: kind, Message: msg})
}

// domainError maps the core error taxonomy onto HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrAdmissionRejected):
		a.error(w, http.StatusTooManyRequests, "at_capacity", "backend at capacity, retry later")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "unknown job or artifact")
	case errors.Is(err, domain.ErrNotReady):
		a.error(w, http.StatusConflict, "not_ready", "job has not completed")
	case errors.Is(err, domain.ErrJobExpired):
		a.error(w, http.StatusGone, "expired", "job result has expired")
	case errors.Is(err, domain.ErrUnknownBackend):
		a.error(w, http.StatusNotFound, "not_found", "unknown backend")
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
