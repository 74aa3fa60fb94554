// Package noteservice implements the operations over the note collection:
// decomposition into atomic notes, hub and structure aggregation, question
// answering, and deletion with refocus.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slatehq/slate/internal/ai"
	"github.com/slatehq/slate/internal/apperr"
	"github.com/slatehq/slate/internal/collection"
	"github.com/slatehq/slate/internal/index"
	"github.com/slatehq/slate/internal/models"
	"github.com/slatehq/slate/internal/refs"
	"github.com/slatehq/slate/internal/segmenter"
)

const (
	// A hub keeps at least this many linked atomic notes; unlinking below
	// the floor is refused.
	hubMinLinks = 2
	// Analysis suggestions need this many supporting notes and at least
	// this confidence to be surfaced.
	minHubSupport = 2
	minConfidence = 0.7
)

// Saver persists the collection. Structural mutations flush immediately;
// content edits go through the debounced trigger.
type Saver interface {
	Trigger()
	Flush() error
}

// EventCallback is invoked after a collection mutation.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, id string)

// Service coordinates the collection store, the search index, and the
// text-generation capability. gen may be nil, in which case every
// capability-backed operation uses its deterministic local fallback.
type Service struct {
	store  *collection.Store
	idx    index.NoteIndex
	gen    ai.Generator
	saver  Saver
	logger *slog.Logger
	events EventCallback
}

// NewService creates a new note service.
func NewService(store *collection.Store, idx index.NoteIndex, gen ai.Generator, saver Saver, logger *slog.Logger) *Service {
	return &Service{store: store, idx: idx, gen: gen, saver: saver, logger: logger}
}

// SetEventCallback registers cb for mutation events.
func (s *Service) SetEventCallback(cb EventCallback) { s.events = cb }

// GetNote resolves a note id.
func (s *Service) GetNote(_ context.Context, id string) (*models.Note, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &n, nil
}

// ListNotes returns the kind-filtered view in insertion order with
// pagination. An empty kind returns the full collection.
func (s *Service) ListNotes(_ context.Context, kind string, limit, offset int) ([]models.Note, int, error) {
	var view []models.Note
	if kind == "" {
		view = s.store.All()
	} else {
		k := models.Kind(kind)
		if !k.Valid() {
			return nil, 0, apperr.ErrInvalidKind
		}
		view = s.store.ByKind(k)
	}
	total := len(view)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	view = view[offset:]
	if limit > 0 && limit < len(view) {
		view = view[:limit]
	}
	return view, total, nil
}

// CreateSourceNote creates a top-level user-authored note.
func (s *Service) CreateSourceNote(_ context.Context, title, content string) (*models.Note, error) {
	n := models.Note{
		ID:        uuid.NewString(),
		Kind:      models.KindSource,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.store.Insert(n)
	s.indexNote(n)
	s.persist()
	s.emit("created", n.ID)
	return &n, nil
}

// CreateAtomicNote creates a stand-alone or derived atomic note. Its global
// number is assigned from the current collection state on insertion.
func (s *Service) CreateAtomicNote(_ context.Context, title, content, sourceNoteID string) (*models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("noteservice: atomic note content is empty")
	}
	n := s.createAtomic(title, content, sourceNoteID)
	s.persist()
	s.emit("created", n.ID)
	return &n, nil
}

// UpdateNote replaces a note's title and content. The save is debounced:
// rapid successive edits produce a single write.
func (s *Service) UpdateNote(_ context.Context, id, title, content string) (*models.Note, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	n.Title = title
	n.Content = content
	s.store.Update(n)
	s.indexNote(n)
	s.saver.Trigger()
	s.emit("updated", n.ID)
	return &n, nil
}

// DeleteNote removes a note and returns the id to focus next within the
// view the deletion occurred in (empty string when the view emptied).
// Links pointing at the deleted id are left dangling by design.
func (s *Service) DeleteNote(_ context.Context, id string, view models.Kind) (string, error) {
	if view != "" && !view.Valid() {
		return "", apperr.ErrInvalidKind
	}

	before := s.viewNotes(view)
	pos := -1
	for i, n := range before {
		if n.ID == id {
			pos = i
			break
		}
	}

	if !s.store.Delete(id) {
		return "", apperr.ErrNotFound
	}
	if err := s.idx.DeleteNote(id); err != nil {
		s.logger.Warn("index delete failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	s.persist()
	s.emit("deleted", id)

	after := s.viewNotes(view)
	if pos < 0 || len(after) == 0 {
		return "", nil
	}
	return after[NextFocus(pos, len(after))].ID, nil
}

// NextFocus returns the index to select after deleting position i from a
// list that now has n entries, or -1 when the list is empty.
func NextFocus(i, n int) int {
	if n <= 0 {
		return -1
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Decompose proposes atomic-note candidates for a note's content. The
// capability is tried first; on any failure the local segmenter supplies
// the identical contract, so the fallback is a drop-in substitute.
// Candidates are not notes: nothing is persisted here.
func (s *Service) Decompose(ctx context.Context, id string) ([]models.Candidate, error) {
	n, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if s.gen != nil {
		cands, err := s.gen.GenerateAtomicNotes(ctx, n.Content)
		if err == nil {
			return cands, nil
		}
		s.logger.Warn("atomic note generation failed, using segmenter",
			slog.String("id", id), slog.String("error", err.Error()))
	}
	return segmenter.Segment(n.Content), nil
}

// ApproveCandidates converts the selected candidates into persisted atomic
// notes linked to the source. Numbers are assigned in candidate order, so
// siblings from one decomposition are consecutive. Unselected candidates
// were never notes and leave no trace.
func (s *Service) ApproveCandidates(_ context.Context, sourceID string, cands []models.Candidate) ([]models.Note, error) {
	if _, ok := s.store.Get(sourceID); !ok {
		return nil, apperr.ErrNotFound
	}
	var out []models.Note
	for _, c := range cands {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		n := s.createAtomic(c.Title, c.Content, sourceID)
		out = append(out, n)
	}
	if len(out) > 0 {
		s.persist()
		for _, n := range out {
			s.emit("created", n.ID)
		}
	}
	return nonNilSlice(out), nil
}

// CreateHub aggregates atomic notes under a generated title/description.
// Title generation never fails the operation: on any capability error a
// dated fallback title is used.
func (s *Service) CreateHub(ctx context.Context, atomicIDs []string) (*models.Note, error) {
	linked := s.resolveAtomic(atomicIDs)
	if len(linked) == 0 {
		return nil, apperr.ErrNoAtomic
	}
	hc := s.hubContent(ctx, contents(linked), len(linked))
	n := models.Note{
		ID:                  uuid.NewString(),
		Kind:                models.KindHub,
		Title:               hc.Title,
		Content:             hc.Description,
		CreatedAt:           time.Now(),
		LinkedAtomicNoteIDs: ids(linked),
	}
	s.store.Insert(n)
	s.indexNote(n)
	s.persist()
	s.emit("created", n.ID)
	return &n, nil
}

// AppendToHub adds atomic notes to an existing hub, skipping ids already
// present. The hub's title and description are preserved.
func (s *Service) AppendToHub(_ context.Context, hubID string, atomicIDs []string) (*models.Note, error) {
	hub, ok := s.store.Get(hubID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if hub.Kind != models.KindHub {
		return nil, apperr.ErrInvalidKind
	}
	changed := false
	for _, an := range s.resolveAtomic(atomicIDs) {
		if !containsID(hub.LinkedAtomicNoteIDs, an.ID) {
			hub.LinkedAtomicNoteIDs = append(hub.LinkedAtomicNoteIDs, an.ID)
			changed = true
		}
	}
	if changed {
		s.store.Update(hub)
		s.indexNote(hub)
		s.persist()
		s.emit("updated", hub.ID)
	}
	return &hub, nil
}

// UnlinkFromHub removes an atomic note from a hub. Removal that would drop
// the hub below its minimum of two links is silently refused: the hub is
// returned unchanged.
func (s *Service) UnlinkFromHub(_ context.Context, hubID, atomicID string) (*models.Note, error) {
	hub, ok := s.store.Get(hubID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if hub.Kind != models.KindHub {
		return nil, apperr.ErrInvalidKind
	}
	pos := indexOfID(hub.LinkedAtomicNoteIDs, atomicID)
	if pos < 0 || len(hub.LinkedAtomicNoteIDs) <= hubMinLinks {
		return &hub, nil
	}
	hub.LinkedAtomicNoteIDs = append(hub.LinkedAtomicNoteIDs[:pos], hub.LinkedAtomicNoteIDs[pos+1:]...)
	s.store.Update(hub)
	s.indexNote(hub)
	s.persist()
	s.emit("updated", hub.ID)
	return &hub, nil
}

// CreateStructure synthesizes a long-form document from atomic notes.
// Single-source structure notes are valid.
func (s *Service) CreateStructure(ctx context.Context, atomicIDs []string) (*models.Note, error) {
	linked := s.resolveAtomic(atomicIDs)
	if len(linked) == 0 {
		return nil, apperr.ErrNoAtomic
	}
	n := models.Note{
		ID:                  uuid.NewString(),
		Kind:                models.KindStructured,
		Title:               s.structureTitle(ctx, contents(linked)),
		Content:             synthesizeStructure(linked),
		CreatedAt:           time.Now(),
		LinkedAtomicNoteIDs: ids(linked),
	}
	s.store.Insert(n)
	s.indexNote(n)
	s.persist()
	s.emit("created", n.ID)
	return &n, nil
}

// AppendToStructure concatenates a reference block for one atomic note to
// the end of a structure note. This is literal text appending, left for
// the user to integrate manually.
func (s *Service) AppendToStructure(_ context.Context, structID, atomicID string) (*models.Note, error) {
	st, ok := s.store.Get(structID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if st.Kind != models.KindStructured {
		return nil, apperr.ErrInvalidKind
	}
	an, ok := s.store.Get(atomicID)
	if !ok || an.Kind != models.KindAtomic {
		return nil, apperr.ErrNotFound
	}

	st.Content += "\n\n" + referenceBlock(an)
	if !containsID(st.LinkedAtomicNoteIDs, an.ID) {
		st.LinkedAtomicNoteIDs = append(st.LinkedAtomicNoteIDs, an.ID)
	}
	s.store.Update(st)
	s.indexNote(st)
	s.persist()
	s.emit("updated", st.ID)
	return &st, nil
}

// UnlinkFromStructure removes an atomic note from a structure note.
// Structure notes have no minimum, so removal always succeeds.
func (s *Service) UnlinkFromStructure(_ context.Context, structID, atomicID string) (*models.Note, error) {
	st, ok := s.store.Get(structID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if st.Kind != models.KindStructured {
		return nil, apperr.ErrInvalidKind
	}
	pos := indexOfID(st.LinkedAtomicNoteIDs, atomicID)
	if pos < 0 {
		return &st, nil
	}
	st.LinkedAtomicNoteIDs = append(st.LinkedAtomicNoteIDs[:pos], st.LinkedAtomicNoteIDs[pos+1:]...)
	s.store.Update(st)
	s.indexNote(st)
	s.persist()
	s.emit("updated", st.ID)
	return &st, nil
}

// Ask answers a question over the numbered atomic notes. A nil result
// means "no answer" and is rendered by the caller as a message, never an
// error. Sourced notes are exactly those whose AN-n token appears
// literally in the answer text.
func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" || s.gen == nil {
		return nil, nil
	}

	atomic := s.store.ByKind(models.KindAtomic)
	var qa []ai.QANote
	for _, n := range atomic {
		if n.GlobalNumber > 0 {
			qa = append(qa, ai.QANote{ID: n.ID, Content: n.Content, GlobalNumber: n.GlobalNumber})
		}
	}
	if len(qa) == 0 {
		return nil, nil
	}

	answer, err := s.gen.AnswerQuestion(ctx, question, qa)
	if err != nil {
		s.logger.Warn("question answering failed", slog.String("error", err.Error()))
		return nil, nil
	}
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}

	sourced := []models.Note{}
	for _, n := range atomic {
		if refs.Cited(answer, n.GlobalNumber) {
			sourced = append(sourced, n)
		}
	}
	return &models.Answer{Answer: answer, SourcedNotes: sourced}, nil
}

// Define produces a term definition, or nil when the term is empty, the
// capability is unavailable, or it declines.
func (s *Service) Define(ctx context.Context, term, termContext string) (*models.Definition, error) {
	term = strings.TrimSpace(term)
	if term == "" || s.gen == nil {
		return nil, nil
	}
	def, err := s.gen.GenerateTermDefinition(ctx, term, termContext)
	if err != nil {
		s.logger.Warn("term definition failed", slog.String("term", term), slog.String("error", err.Error()))
		return nil, nil
	}
	return def, nil
}

// Analyze asks the capability for thematic clusters over the atomic notes.
// Only actionable suggestions are returned: at least two supporting notes
// and confidence of 0.7 or higher. A nil result means "no suggestions".
func (s *Service) Analyze(ctx context.Context) (*models.HubAnalysis, error) {
	if s.gen == nil {
		return nil, nil
	}
	var qa []ai.QANote
	for _, n := range s.store.ByKind(models.KindAtomic) {
		qa = append(qa, ai.QANote{ID: n.ID, Content: n.Content, GlobalNumber: n.GlobalNumber})
	}
	if len(qa) < minHubSupport {
		return nil, nil
	}
	var hubs []ai.HubSummary
	for _, h := range s.store.ByKind(models.KindHub) {
		hubs = append(hubs, ai.HubSummary{ID: h.ID, Title: h.Title, Description: h.Content})
	}

	res, err := s.gen.AnalyzeForHubs(ctx, qa, hubs)
	if err != nil {
		s.logger.Warn("hub analysis failed", slog.String("error", err.Error()))
		return nil, nil
	}
	if res == nil {
		return nil, nil
	}
	return &models.HubAnalysis{
		TrainsOfThought:      actionable(res.TrainsOfThought),
		NewThemes:            actionable(res.NewThemes),
		ExistingThemeUpdates: actionable(res.ExistingThemeUpdates),
	}, nil
}

// ResolveReference finds the atomic note carrying the given global number.
// Numbers of deleted notes stay retired, so this can legitimately miss.
func (s *Service) ResolveReference(_ context.Context, number int) (*models.Note, error) {
	if number <= 0 {
		return nil, apperr.ErrNotFound
	}
	for _, n := range s.store.ByKind(models.KindAtomic) {
		if n.GlobalNumber == number {
			return &n, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.idx.Search(query, limit)
}

// Graph returns all nodes and links of the note graph.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.idx.Graph()
}

// Backlinks returns the ids of all notes linking to the target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.idx.Backlinks(target)
}

// SaveNow flushes any pending debounced save synchronously.
func (s *Service) SaveNow(_ context.Context) error {
	return s.saver.Flush()
}

// RebuildIndex reconciles the search index with the collection: every
// note is re-indexed and rows for notes no longer in the collection are
// pruned. Called at startup and after an external reload of the
// collection file.
func (s *Service) RebuildIndex() error {
	stale, err := s.idx.AllIDs()
	if err != nil {
		return err
	}
	for _, n := range s.store.All() {
		delete(stale, n.ID)
		s.indexNote(n)
	}
	for id := range stale {
		if err := s.idx.DeleteNote(id); err != nil {
			return err
		}
	}
	return nil
}

// createAtomic inserts one atomic note, assigning the next global number
// from the current collection state.
func (s *Service) createAtomic(title, content, sourceNoteID string) models.Note {
	n := models.Note{
		ID:           uuid.NewString(),
		Kind:         models.KindAtomic,
		Title:        title,
		Content:      content,
		CreatedAt:    time.Now(),
		SourceNoteID: sourceNoteID,
		GlobalNumber: refs.NextNumber(s.store.All()),
	}
	s.store.Insert(n)
	s.indexNote(n)
	return n
}

// hubContent asks the capability for a title/description and falls back to
// a deterministic dated title so hub creation never fails.
func (s *Service) hubContent(ctx context.Context, noteContents []string, count int) models.HubContent {
	if s.gen != nil {
		hc, err := s.gen.GenerateHubNoteContent(ctx, noteContents)
		if err == nil {
			return hc
		}
		s.logger.Warn("hub content generation failed, using fallback", slog.String("error", err.Error()))
	}
	return models.HubContent{
		Title:       "Note cluster " + time.Now().Format("2006-01-02"),
		Description: fmt.Sprintf("A cluster of %d related atomic notes.", count),
	}
}

func (s *Service) structureTitle(ctx context.Context, noteContents []string) string {
	if s.gen != nil {
		title, err := s.gen.GenerateStructureNoteTitle(ctx, noteContents)
		if err == nil {
			return title
		}
		s.logger.Warn("structure title generation failed, using fallback", slog.String("error", err.Error()))
	}
	return "Structure note " + time.Now().Format("2006-01-02")
}

// resolveAtomic maps ids to existing atomic notes, deduplicated in input
// order. Unknown ids and non-atomic kinds are dropped.
func (s *Service) resolveAtomic(atomicIDs []string) []models.Note {
	seen := make(map[string]struct{}, len(atomicIDs))
	var out []models.Note
	for _, id := range atomicIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		n, ok := s.store.Get(id)
		if !ok || n.Kind != models.KindAtomic {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (s *Service) viewNotes(view models.Kind) []models.Note {
	if view == "" {
		return s.store.All()
	}
	return s.store.ByKind(view)
}

func (s *Service) indexNote(n models.Note) {
	row := index.NoteRow{
		ID:           n.ID,
		Kind:         string(n.Kind),
		Title:        n.Title,
		GlobalNumber: n.GlobalNumber,
		UpdatedAt:    time.Now(),
	}
	if err := s.idx.UpsertNote(row, n.Content, noteLinks(n)); err != nil {
		s.logger.Warn("index upsert failed", slog.String("id", n.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) persist() {
	// Persistence is fire-and-forget with respect to the operation: a
	// failed write is logged, never surfaced.
	if err := s.saver.Flush(); err != nil {
		s.logger.Error("collection save failed", slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind, id string) {
	if s.events != nil {
		s.events(kind, id)
	}
}

// noteLinks derives the index edges a note owns.
func noteLinks(n models.Note) []index.GraphLink {
	var out []index.GraphLink
	if n.Kind == models.KindAtomic && n.SourceNoteID != "" {
		out = append(out, index.GraphLink{Source: n.ID, Target: n.SourceNoteID, Type: "source"})
	}
	for _, target := range n.LinkedAtomicNoteIDs {
		out = append(out, index.GraphLink{Source: n.ID, Target: target, Type: "aggregate"})
	}
	return out
}

// referenceBlock renders the text appended to a structure note for one
// atomic note: its citation token (or a placeholder when unnumbered), its
// content, and an editorial marker for the user.
func referenceBlock(n models.Note) string {
	label := "AN-?"
	if n.GlobalNumber > 0 {
		label = refs.FormatReference(n.GlobalNumber)
	}
	return fmt.Sprintf("%s %s\n_Integrate this note into the document above._", label, n.Content)
}

// synthesizeStructure builds the initial structure-note document: each
// note's content followed by an inline reference to it.
func synthesizeStructure(notes []models.Note) string {
	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := "AN-?"
		if n.GlobalNumber > 0 {
			label = refs.FormatReference(n.GlobalNumber)
		}
		fmt.Fprintf(&b, "%s\n\n[%s](atomic-note:%s)", n.Content, label, n.ID)
	}
	return b.String()
}

func actionable(suggestions []models.HubSuggestion) []models.HubSuggestion {
	var out []models.HubSuggestion
	for _, sg := range suggestions {
		if len(sg.AtomicNoteIDs) >= minHubSupport && sg.Confidence >= minConfidence {
			out = append(out, sg)
		}
	}
	return out
}

func contents(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Content
	}
	return out
}

func ids(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func containsID(list []string, id string) bool {
	return indexOfID(list, id) >= 0
}

func indexOfID(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
