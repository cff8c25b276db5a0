package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/metrics"
	"github.com/sevigo/code-pilot/internal/server/handler"
)

// requestTimeout bounds every route except the event stream, which lives as
// long as its review.
const requestTimeout = 3 * time.Minute

// NewRouter creates and configures a new HTTP router with middleware and API routes.
// m may be nil, in which case /metrics is not served.
func NewRouter(dispatcher core.JobDispatcher, library handler.Library, assistant handler.Assistant, m *metrics.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	reviews := handler.NewReviewHandler(dispatcher, logger)
	lib := handler.NewLibraryHandler(library, logger)
	assist := handler.NewAssistHandler(assistant, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/reviews/{id}/events", reviews.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Post("/reviews", reviews.Create)
			r.Delete("/reviews/{id}", reviews.Cancel)

			r.Route("/library", func(r chi.Router) {
				r.Get("/", lib.List)
				r.Post("/search", lib.Search)
				r.Post("/reindex", lib.Reindex)
				r.Get("/{id}", lib.Get)
				r.Patch("/{id}", lib.Rename)
				r.Delete("/{id}", lib.Delete)
			})

			r.Get("/languages", assist.Languages)
			r.Post("/explain", assist.Explain)
			r.Post("/style", assist.Style)
			r.Post("/detect-language", assist.DetectLanguage)
			r.Post("/validate-language", assist.ValidateLanguage)
			r.Post("/feedback/sections", assist.FeedbackSections)
		})
	})

	return r
}
