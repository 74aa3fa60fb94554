// Package ai defines the external text-generation capability and its
// OpenAI-backed implementation.
//
// The capability is a pure request/response collaborator: callers never
// depend on how it is transported, and every failure is recovered at the
// call site with a deterministic local fallback or a typed empty result.
package ai

import (
	"context"

	"github.com/slatehq/slate/internal/models"
)

// QANote is the slice of an atomic note handed to question answering and
// hub analysis.
type QANote struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	GlobalNumber int    `json:"global_number"`
}

// HubSummary describes an existing hub note for the analysis prompt.
type HubSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Generator is the text-generation capability consumed by the note
// service. Implementations must be safe for concurrent use.
type Generator interface {
	// GenerateAtomicNotes proposes 1-8 self-contained atomic-note
	// candidates for the given source text.
	GenerateAtomicNotes(ctx context.Context, sourceText string) ([]models.Candidate, error)
	// GenerateHubNoteContent produces a title and description for a hub
	// aggregating the given note contents.
	GenerateHubNoteContent(ctx context.Context, noteContents []string) (models.HubContent, error)
	// GenerateStructureNoteTitle produces a title for a structure note
	// synthesized from the given note contents.
	GenerateStructureNoteTitle(ctx context.Context, noteContents []string) (string, error)
	// GenerateTermDefinition defines a term, optionally in context.
	// A nil result with nil error means "no definition available".
	GenerateTermDefinition(ctx context.Context, term, context string) (*models.Definition, error)
	// AnswerQuestion answers a question over the given notes. The answer
	// must embed AN-n citations; the caller filters sourced notes by the
	// literal presence of those tokens.
	AnswerQuestion(ctx context.Context, question string, notes []QANote) (string, error)
	// AnalyzeForHubs proposes thematic clusters over the atomic notes,
	// given the hubs that already exist.
	AnalyzeForHubs(ctx context.Context, notes []QANote, hubs []HubSummary) (*models.HubAnalysis, error)
}
