package api

import (
	"github.com/slatehq/slate/internal/models"
)

// CreateNoteRequest is the request body for creating a source note.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Reading notes"`
	Content string `json:"content" example:"Raw text to decompose later" validate:"required"`
}

// UpdateNoteRequest is the request body for editing a note.
type UpdateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// DeleteNoteResponse reports the refocus target after a deletion.
// NextActiveID is empty when the view the deletion occurred in is empty.
type DeleteNoteResponse struct {
	NextActiveID string `json:"next_active_id"`
}

// CandidatesResponse carries the unapproved proposals of a decomposition.
type CandidatesResponse struct {
	Candidates []models.Candidate `json:"candidates" validate:"required"`
}

// ApproveRequest is the request body for approving candidates. Only the
// candidates listed (after any in-place edits) become atomic notes.
type ApproveRequest struct {
	Candidates []models.Candidate `json:"candidates" validate:"required"`
}

// LinkRequest names atomic notes to aggregate.
type LinkRequest struct {
	AtomicNoteIDs []string `json:"atomic_note_ids" validate:"required"`
}

// AskRequest is the request body for question answering.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// AskResponse is the question-answering result. NoAnswer is set when the
// capability is unavailable, declined, or the question was empty; Message
// then carries a user-visible explanation.
type AskResponse struct {
	Answer       string        `json:"answer,omitempty"`
	SourcedNotes []models.Note `json:"sourced_notes,omitempty"`
	NoAnswer     bool          `json:"no_answer,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// DefineRequest is the request body for term definition.
type DefineRequest struct {
	Term    string `json:"term" validate:"required"`
	Context string `json:"context,omitempty"`
}

// DefineResponse carries a definition or an explanatory message.
type DefineResponse struct {
	Definition *models.Definition `json:"definition,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// AnalyzeResponse carries actionable hub suggestions.
type AnalyzeResponse struct {
	Analysis *models.HubAnalysis `json:"analysis,omitempty"`
	Message  string              `json:"message,omitempty"`
}
