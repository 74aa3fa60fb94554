// Package models defines the domain types for Slate.
package models

import "time"

// Kind discriminates the four note variants.
type Kind string

// Note kinds.
const (
	KindSource     Kind = "source"
	KindAtomic     Kind = "atomic"
	KindHub        Kind = "hub"
	KindStructured Kind = "structured"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSource, KindAtomic, KindHub, KindStructured:
		return true
	}
	return false
}

// Note is the single persisted entity. Kind is the canonical discriminant;
// the remaining fields are populated per kind:
//   - atomic notes may carry SourceNoteID (the note they were decomposed
//     from) and GlobalNumber (their AN-n citation number, 0 = unassigned)
//   - hub and structured notes carry LinkedAtomicNoteIDs
//
// Links may dangle after the target is deleted; consumers treat a dangling
// id as "reference not found", never as a fatal condition.
type Note struct {
	ID                  string    `json:"id"`
	Kind                Kind      `json:"kind"`
	Title               string    `json:"title,omitempty"`
	Content             string    `json:"content"`
	CreatedAt           time.Time `json:"created_at"`
	SourceNoteID        string    `json:"source_note_id,omitempty"`
	LinkedAtomicNoteIDs []string  `json:"linked_atomic_note_ids,omitempty"`
	GlobalNumber        int       `json:"global_number,omitempty"`
}

// Candidate is an unapproved atomic-note proposal. It has no id and no
// global number; it becomes a Note only when the user approves it.
type Candidate struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// HubContent is a generated title/description pair for a hub note.
type HubContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Definition is a generated term definition.
type Definition struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Answer is the result of question answering over atomic notes.
// SourcedNotes contains only the notes whose AN-n reference literally
// appears in the answer text.
type Answer struct {
	Answer       string `json:"answer"`
	SourcedNotes []Note `json:"sourced_notes"`
}

// HubSuggestion is one clustering proposal from hub analysis.
type HubSuggestion struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	AtomicNoteIDs []string `json:"atomic_note_ids"`
	Confidence    float64  `json:"confidence"`
}

// HubAnalysis is the full result of clustering analysis.
type HubAnalysis struct {
	TrainsOfThought      []HubSuggestion `json:"trains_of_thought"`
	NewThemes            []HubSuggestion `json:"new_themes"`
	ExistingThemeUpdates []HubSuggestion `json:"existing_theme_updates"`
}
