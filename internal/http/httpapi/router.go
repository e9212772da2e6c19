package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediaforge/internal/http/handlers"
	"mediaforge/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats", app.Stats)

	r.Post("/v1/images", app.CreateImage)
	r.Post("/v1/edits", app.CreateEdit)
	r.Post("/v1/videos", app.CreateVideo)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/{id}", app.Status)
		r.Get("/{id}/artifacts/{index}", app.Download)
	})

	return r
}
