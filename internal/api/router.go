package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slatehq/slate/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Decomposition workflow.
	r.Post("/notes/{id}/decompose", h.Decompose)
	r.Post("/notes/{id}/atomic", h.ApproveCandidates)

	// Hub notes.
	r.Post("/hubs", h.CreateHub)
	r.Post("/hubs/{id}/links", h.AppendToHub)
	r.Delete("/hubs/{id}/links/{atomicID}", h.UnlinkFromHub)

	// Structure notes.
	r.Post("/structures", h.CreateStructure)
	r.Post("/structures/{id}/links/{atomicID}", h.AppendToStructure)
	r.Delete("/structures/{id}/links/{atomicID}", h.UnlinkFromStructure)

	// AI-assisted operations.
	r.Post("/ask", h.Ask)
	r.Post("/define", h.Define)
	r.Post("/analyze", h.Analyze)

	// Search and graph.
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)

	// Manual save.
	r.Post("/save", h.Save)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
