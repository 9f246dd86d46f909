package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prentissw/chartedroots/internal/timelineservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /stream inside the auth group.
func NewRouter(svc *timelineservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/events", h.ListEvents)

	r.Get("/timelines", h.ListTimelines)
	r.Post("/timelines", h.ExportTimeline)
	r.Post("/timelines/regenerate", h.RegenerateAll)
	r.Post("/timelines/regenerate/*", h.RegenerateTimeline)
	r.Get("/timelines/*", h.GetTimeline)
	r.Delete("/timelines/*", h.DeleteTimeline)

	if sseHandler != nil {
		r.Get("/stream", sseHandler.ServeHTTP)
	}

	return r
}
