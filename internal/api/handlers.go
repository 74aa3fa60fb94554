package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/slatehq/slate/internal/apperr"
	"github.com/slatehq/slate/internal/models"
	"github.com/slatehq/slate/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional kind filter and pagination
//	@Tags			notes
//	@Produce		json
//	@Param			kind	query		string	false	"Filter by kind"	Enums(source, atomic, hub, structured)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kind := q.Get("kind")

	notes, total, err := h.svc.ListNotes(r.Context(), kind, limit, offset)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidKind) {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown kind"))
			return
		}
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new source note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	note, err := h.svc.CreateSourceNote(r.Context(), req.Title, req.Content)
	if err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), noteID(r))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", noteID(r)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note's title and content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Updated content"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), noteID(r), req.Title, req.Content)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update note failed", slog.String("id", noteID(r)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and report the refocus target
//	@Tags			notes
//	@Produce		json
//	@Param			id		path		string	true	"Note id"
//	@Param			kind	query		string	false	"View the deletion occurred in"	Enums(source, atomic, hub, structured)
//	@Success		200		{object}	DeleteNoteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	view := models.Kind(r.URL.Query().Get("kind"))
	next, err := h.svc.DeleteNote(r.Context(), noteID(r), view)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidKind):
			writeJSON(w, http.StatusBadRequest, errorBody("unknown kind"))
		default:
			slog.Error("delete note failed", slog.String("id", noteID(r)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, DeleteNoteResponse{NextActiveID: next})
}

// Decompose handles POST /api/notes/{id}/decompose.
//
//	@Summary		Propose atomic-note candidates for a note
//	@Tags			atomic
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	CandidatesResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/decompose [post]
func (h *Handler) Decompose(w http.ResponseWriter, r *http.Request) {
	cands, err := h.svc.Decompose(r.Context(), noteID(r))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("decompose failed", slog.String("id", noteID(r)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if cands == nil {
		cands = []models.Candidate{}
	}
	writeJSON(w, http.StatusOK, CandidatesResponse{Candidates: cands})
}

// ApproveCandidates handles POST /api/notes/{id}/atomic.
//
//	@Summary		Approve candidates into atomic notes
//	@Tags			atomic
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Source note id"
//	@Param			body	body		ApproveRequest	true	"Selected candidates"
//	@Success		201		{array}		models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/atomic [post]
func (h *Handler) ApproveCandidates(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	notes, err := h.svc.ApproveCandidates(r.Context(), noteID(r), req.Candidates)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("approve failed", slog.String("id", noteID(r)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, notes)
}

// CreateHub handles POST /api/hubs.
//
//	@Summary		Create a hub note from atomic notes
//	@Tags			hubs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LinkRequest	true	"Atomic note ids to aggregate"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hubs [post]
func (h *Handler) CreateHub(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.CreateHub(r.Context(), req.AtomicNoteIDs)
	if err != nil {
		if errors.Is(err, apperr.ErrNoAtomic) {
			writeJSON(w, http.StatusBadRequest, errorBody("no atomic notes given"))
		} else {
			slog.Error("create hub failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// AppendToHub handles POST /api/hubs/{id}/links.
//
//	@Summary		Add atomic notes to an existing hub
//	@Tags			hubs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Hub note id"
//	@Param			body	body		LinkRequest	true	"Atomic note ids to add"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hubs/{id}/links [post]
func (h *Handler) AppendToHub(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.AppendToHub(r.Context(), noteID(r), req.AtomicNoteIDs)
	h.writeAggregate(w, note, err)
}

// UnlinkFromHub handles DELETE /api/hubs/{id}/links/{atomicID}.
// Removal that would drop the hub below two members is a no-op: the
// unchanged hub is returned with status 200.
//
//	@Summary		Remove an atomic note from a hub
//	@Tags			hubs
//	@Produce		json
//	@Param			id			path		string	true	"Hub note id"
//	@Param			atomicID	path		string	true	"Atomic note id"
//	@Success		200			{object}	models.Note
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hubs/{id}/links/{atomicID} [delete]
func (h *Handler) UnlinkFromHub(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.UnlinkFromHub(r.Context(), noteID(r), chi.URLParam(r, "atomicID"))
	h.writeAggregate(w, note, err)
}

// CreateStructure handles POST /api/structures.
//
//	@Summary		Create a structure note from atomic notes
//	@Tags			structures
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LinkRequest	true	"Atomic note ids to synthesize"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/structures [post]
func (h *Handler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.svc.CreateStructure(r.Context(), req.AtomicNoteIDs)
	if err != nil {
		if errors.Is(err, apperr.ErrNoAtomic) {
			writeJSON(w, http.StatusBadRequest, errorBody("no atomic notes given"))
		} else {
			slog.Error("create structure failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// AppendToStructure handles POST /api/structures/{id}/links/{atomicID}.
//
//	@Summary		Append one atomic note's reference block to a structure note
//	@Tags			structures
//	@Produce		json
//	@Param			id			path		string	true	"Structure note id"
//	@Param			atomicID	path		string	true	"Atomic note id"
//	@Success		200			{object}	models.Note
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/structures/{id}/links/{atomicID} [post]
func (h *Handler) AppendToStructure(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.AppendToStructure(r.Context(), noteID(r), chi.URLParam(r, "atomicID"))
	h.writeAggregate(w, note, err)
}

// UnlinkFromStructure handles DELETE /api/structures/{id}/links/{atomicID}.
//
//	@Summary		Remove an atomic note from a structure note
//	@Tags			structures
//	@Produce		json
//	@Param			id			path		string	true	"Structure note id"
//	@Param			atomicID	path		string	true	"Atomic note id"
//	@Success		200			{object}	models.Note
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/structures/{id}/links/{atomicID} [delete]
func (h *Handler) UnlinkFromStructure(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.UnlinkFromStructure(r.Context(), noteID(r), chi.URLParam(r, "atomicID"))
	h.writeAggregate(w, note, err)
}

// Ask handles POST /api/ask.
//
//	@Summary		Answer a question over the atomic notes
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	AskResponse
//	@Security		BearerAuth
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ans, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		slog.Error("ask failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if ans == nil {
		writeJSON(w, http.StatusOK, AskResponse{
			NoAnswer: true,
			Message:  "No answer could be generated from your notes.",
		})
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: ans.Answer, SourcedNotes: ans.SourcedNotes})
}

// Define handles POST /api/define.
//
//	@Summary		Define a term, optionally in context
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DefineRequest	true	"Term"
//	@Success		200		{object}	DefineResponse
//	@Security		BearerAuth
//	@Router			/define [post]
func (h *Handler) Define(w http.ResponseWriter, r *http.Request) {
	var req DefineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	def, err := h.svc.Define(r.Context(), req.Term, req.Context)
	if err != nil {
		slog.Error("define failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if def == nil {
		writeJSON(w, http.StatusOK, DefineResponse{Message: "No definition is available."})
		return
	}
	writeJSON(w, http.StatusOK, DefineResponse{Definition: def})
}

// Analyze handles POST /api/analyze.
//
//	@Summary		Propose hub-note clusters over the atomic notes
//	@Tags			ai
//	@Produce		json
//	@Success		200	{object}	AnalyzeResponse
//	@Security		BearerAuth
//	@Router			/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.svc.Analyze(r.Context())
	if err != nil {
		slog.Error("analyze failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if analysis == nil {
		writeJSON(w, http.StatusOK, AnalyzeResponse{Message: "No hub suggestions are available."})
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Analysis: analysis})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the note graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"links": links,
	})
}

// Save handles POST /api/save: a manual flush of the debounced autosave.
//
//	@Summary		Save the collection immediately
//	@Tags			notes
//	@Success		204	"Collection saved"
//	@Security		BearerAuth
//	@Router			/save [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveNow(r.Context()); err != nil {
		slog.Error("manual save failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeAggregate maps the shared error cases of hub/structure link
// operations and writes the resulting note.
func (h *Handler) writeAggregate(w http.ResponseWriter, note *models.Note, err error) {
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidKind):
			writeJSON(w, http.StatusBadRequest, errorBody("wrong note kind"))
		default:
			slog.Error("aggregate operation failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}
