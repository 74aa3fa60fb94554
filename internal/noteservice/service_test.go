package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/slatehq/slate/internal/ai"
	"github.com/slatehq/slate/internal/apperr"
	"github.com/slatehq/slate/internal/autosave"
	"github.com/slatehq/slate/internal/collection"
	"github.com/slatehq/slate/internal/index"
	"github.com/slatehq/slate/internal/models"
	"github.com/slatehq/slate/internal/segmenter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testService builds a service over a temp collection file and index DB.
// gen may be nil to exercise the local fallbacks.
func testService(t *testing.T, gen ai.Generator) (*Service, *collection.Store) {
	t.Helper()
	logger := testLogger()

	store, err := collection.Open(filepath.Join(t.TempDir(), "notes.json"), logger)
	if err != nil {
		t.Fatalf("collection.Open: %v", err)
	}

	dbFile, err := os.CreateTemp("", "slate-svc-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	saver := autosave.New(10*time.Millisecond, store.Save, logger)
	t.Cleanup(saver.Close)

	return NewService(store, db, gen, saver, logger), store
}

// errGen fails every capability call.
type errGen struct{}

var errUnavailable = errors.New("capability unavailable")

func (errGen) GenerateAtomicNotes(context.Context, string) ([]models.Candidate, error) {
	return nil, errUnavailable
}
func (errGen) GenerateHubNoteContent(context.Context, []string) (models.HubContent, error) {
	return models.HubContent{}, errUnavailable
}
func (errGen) GenerateStructureNoteTitle(context.Context, []string) (string, error) {
	return "", errUnavailable
}
func (errGen) GenerateTermDefinition(context.Context, string, string) (*models.Definition, error) {
	return nil, errUnavailable
}
func (errGen) AnswerQuestion(context.Context, string, []ai.QANote) (string, error) {
	return "", errUnavailable
}
func (errGen) AnalyzeForHubs(context.Context, []ai.QANote, []ai.HubSummary) (*models.HubAnalysis, error) {
	return nil, errUnavailable
}

// answerGen answers every question with a fixed string.
type answerGen struct {
	errGen
	answer string
}

func (g answerGen) AnswerQuestion(context.Context, string, []ai.QANote) (string, error) {
	return g.answer, nil
}

// analyzeGen returns a fixed analysis.
type analyzeGen struct {
	errGen
	res *models.HubAnalysis
}

func (g analyzeGen) AnalyzeForHubs(context.Context, []ai.QANote, []ai.HubSummary) (*models.HubAnalysis, error) {
	return g.res, nil
}

func mustAtomic(t *testing.T, svc *Service, content string) models.Note {
	t.Helper()
	n, err := svc.CreateAtomicNote(context.Background(), "", content, "")
	if err != nil {
		t.Fatalf("CreateAtomicNote: %v", err)
	}
	return *n
}

func TestCreateSourceAndGet(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	n, err := svc.CreateSourceNote(ctx, "Reading", "raw text")
	if err != nil {
		t.Fatalf("CreateSourceNote: %v", err)
	}
	if n.Kind != models.KindSource || n.GlobalNumber != 0 {
		t.Errorf("note = %+v", n)
	}

	got, err := svc.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Reading" {
		t.Errorf("title = %q, want Reading", got.Title)
	}

	if _, err := svc.GetNote(ctx, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v, want ErrNotFound", err)
	}
}

func TestListNotesKindFilterAndPagination(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	_, _ = svc.CreateSourceNote(ctx, "", "source text")
	mustAtomic(t, svc, "atomic one")
	mustAtomic(t, svc, "atomic two")

	all, total, err := svc.ListNotes(ctx, "", 0, 0)
	if err != nil || len(all) != 3 || total != 3 {
		t.Fatalf("list all = %d/%d, err %v", len(all), total, err)
	}

	atomic, total, err := svc.ListNotes(ctx, "atomic", 0, 0)
	if err != nil || len(atomic) != 2 || total != 2 {
		t.Fatalf("list atomic = %d/%d, err %v", len(atomic), total, err)
	}

	page, total, err := svc.ListNotes(ctx, "atomic", 1, 1)
	if err != nil || total != 2 || len(page) != 1 {
		t.Fatalf("page = %d/%d, err %v", len(page), total, err)
	}
	if page[0].Content != "atomic two" {
		t.Errorf("page content = %q", page[0].Content)
	}

	if _, _, err := svc.ListNotes(ctx, "banana", 0, 0); !errors.Is(err, apperr.ErrInvalidKind) {
		t.Errorf("invalid kind err = %v", err)
	}
}

func TestListNotesClampsOutOfRangePagination(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	_, _ = svc.CreateSourceNote(ctx, "", "only note")

	neg, total, err := svc.ListNotes(ctx, "", -5, -1)
	if err != nil || total != 1 || len(neg) != 1 {
		t.Fatalf("negative limit/offset = %d/%d, err %v", len(neg), total, err)
	}

	past, total, err := svc.ListNotes(ctx, "", 0, 10)
	if err != nil || total != 1 || len(past) != 0 {
		t.Fatalf("offset past end = %d/%d, err %v", len(past), total, err)
	}
}

func TestDecomposeFallbackMatchesSegmenter(t *testing.T) {
	content := "# Title\n\nFirst idea here.\n\nSecond idea here."
	ctx := context.Background()

	for name, gen := range map[string]ai.Generator{"nil": nil, "failing": errGen{}} {
		svc, _ := testService(t, gen)
		src, _ := svc.CreateSourceNote(ctx, "", content)

		got, err := svc.Decompose(ctx, src.ID)
		if err != nil {
			t.Fatalf("%s: Decompose: %v", name, err)
		}
		if want := segmenter.Segment(content); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: fallback diverged from segmenter:\ngot  %v\nwant %v", name, got, want)
		}
	}
}

func TestDecomposeLeavesNoTrace(t *testing.T) {
	svc, store := testService(t, nil)
	ctx := context.Background()
	src, _ := svc.CreateSourceNote(ctx, "", "First idea here.\n\nSecond idea here.")

	before := store.Len()
	cands, err := svc.Decompose(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 {
		t.Fatalf("candidates = %d, want 2", len(cands))
	}
	if store.Len() != before {
		t.Errorf("decomposition persisted notes: %d -> %d", before, store.Len())
	}
}

func TestApproveCandidatesConsecutiveNumbers(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	src, _ := svc.CreateSourceNote(ctx, "", "text")

	first, err := svc.ApproveCandidates(ctx, src.ID, []models.Candidate{
		{Content: "one"}, {Content: "  "}, {Content: "two"}, {Content: "three"},
	})
	if err != nil {
		t.Fatalf("ApproveCandidates: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("approved = %d, want 3 (blank skipped)", len(first))
	}
	for i, n := range first {
		if n.GlobalNumber != i+1 {
			t.Errorf("note %d number = %d, want %d", i, n.GlobalNumber, i+1)
		}
		if n.SourceNoteID != src.ID {
			t.Errorf("note %d source = %q", i, n.SourceNoteID)
		}
	}

	second, err := svc.ApproveCandidates(ctx, src.ID, []models.Candidate{{Content: "four"}})
	if err != nil {
		t.Fatal(err)
	}
	if second[0].GlobalNumber != 4 {
		t.Errorf("later approval number = %d, want 4", second[0].GlobalNumber)
	}
}

func TestApproveCandidatesUnknownSource(t *testing.T) {
	svc, _ := testService(t, nil)
	if _, err := svc.ApproveCandidates(context.Background(), "ghost", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNumbersNotReusedAfterDeletion(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	c := mustAtomic(t, svc, "c")
	if c.GlobalNumber != 3 {
		t.Fatalf("third number = %d, want 3", c.GlobalNumber)
	}

	if _, err := svc.DeleteNote(ctx, a.ID, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DeleteNote(ctx, b.ID, ""); err != nil {
		t.Fatal(err)
	}

	d := mustAtomic(t, svc, "d")
	if d.GlobalNumber != 4 {
		t.Errorf("number after deletions = %d, want 4", d.GlobalNumber)
	}
}

func TestCreateHubFallbackContent(t *testing.T) {
	svc, _ := testService(t, errGen{})
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")

	hub, err := svc.CreateHub(ctx, []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("CreateHub: %v", err)
	}
	if hub.Kind != models.KindHub {
		t.Errorf("kind = %q", hub.Kind)
	}
	if !strings.HasPrefix(hub.Title, "Note cluster ") {
		t.Errorf("fallback title = %q", hub.Title)
	}
	if hub.Content != "A cluster of 2 related atomic notes." {
		t.Errorf("fallback description = %q", hub.Content)
	}
	if len(hub.LinkedAtomicNoteIDs) != 2 {
		t.Errorf("links = %v", hub.LinkedAtomicNoteIDs)
	}
}

func TestCreateHubDedupAndUnknownIDs(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	src, _ := svc.CreateSourceNote(ctx, "", "not atomic")

	hub, err := svc.CreateHub(ctx, []string{a.ID, a.ID, b.ID, "ghost", src.ID})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{a.ID, b.ID}; !reflect.DeepEqual(hub.LinkedAtomicNoteIDs, want) {
		t.Errorf("links = %v, want %v", hub.LinkedAtomicNoteIDs, want)
	}
}

func TestCreateHubNoAtomic(t *testing.T) {
	svc, _ := testService(t, nil)
	if _, err := svc.CreateHub(context.Background(), []string{"ghost"}); !errors.Is(err, apperr.ErrNoAtomic) {
		t.Errorf("err = %v, want ErrNoAtomic", err)
	}
}

func TestAppendToHubSkipsExisting(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	c := mustAtomic(t, svc, "c")

	hub, _ := svc.CreateHub(ctx, []string{a.ID, b.ID})
	title := hub.Title

	got, err := svc.AppendToHub(ctx, hub.ID, []string{b.ID, c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{a.ID, b.ID, c.ID}; !reflect.DeepEqual(got.LinkedAtomicNoteIDs, want) {
		t.Errorf("links = %v, want %v", got.LinkedAtomicNoteIDs, want)
	}
	if got.Title != title {
		t.Errorf("append must preserve title: %q -> %q", title, got.Title)
	}

	if _, err := svc.AppendToHub(ctx, a.ID, []string{b.ID}); !errors.Is(err, apperr.ErrInvalidKind) {
		t.Errorf("append to non-hub err = %v", err)
	}
}

func TestUnlinkFromHubMinimumInvariant(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	c := mustAtomic(t, svc, "c")

	hub, _ := svc.CreateHub(ctx, []string{a.ID, b.ID, c.ID})

	got, err := svc.UnlinkFromHub(ctx, hub.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LinkedAtomicNoteIDs) != 2 {
		t.Fatalf("links after unlink = %d, want 2", len(got.LinkedAtomicNoteIDs))
	}

	// At the floor of two the unlink is silently refused.
	got, err = svc.UnlinkFromHub(ctx, hub.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LinkedAtomicNoteIDs) != 2 {
		t.Errorf("unlink at minimum changed links: %v", got.LinkedAtomicNoteIDs)
	}

	// Unlinking an id that is not a member is also a no-op.
	got, err = svc.UnlinkFromHub(ctx, hub.ID, "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LinkedAtomicNoteIDs) != 2 {
		t.Errorf("unlink of non-member changed links: %v", got.LinkedAtomicNoteIDs)
	}
}

func TestCreateStructureSynthesis(t *testing.T) {
	svc, _ := testService(t, errGen{})
	ctx := context.Background()
	a := mustAtomic(t, svc, "alpha content")

	st, err := svc.CreateStructure(ctx, []string{a.ID})
	if err != nil {
		t.Fatalf("CreateStructure: %v", err)
	}
	if st.Kind != models.KindStructured {
		t.Errorf("kind = %q", st.Kind)
	}
	if !strings.HasPrefix(st.Title, "Structure note ") {
		t.Errorf("fallback title = %q", st.Title)
	}
	if !strings.Contains(st.Content, "alpha content") {
		t.Errorf("content missing note text: %q", st.Content)
	}
	if !strings.Contains(st.Content, "[AN-1](atomic-note:"+a.ID+")") {
		t.Errorf("content missing inline reference: %q", st.Content)
	}
}

func TestAppendToStructure(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "alpha")
	b := mustAtomic(t, svc, "beta")

	st, _ := svc.CreateStructure(ctx, []string{a.ID})
	got, err := svc.AppendToStructure(ctx, st.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got.Content, "AN-2 beta") {
		t.Errorf("appended block missing: %q", got.Content)
	}
	if !strings.Contains(got.Content, "_Integrate this note into the document above._") {
		t.Errorf("editorial marker missing: %q", got.Content)
	}
	if want := []string{a.ID, b.ID}; !reflect.DeepEqual(got.LinkedAtomicNoteIDs, want) {
		t.Errorf("links = %v, want %v", got.LinkedAtomicNoteIDs, want)
	}

	if _, err := svc.AppendToStructure(ctx, st.ID, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("append unknown atomic err = %v", err)
	}
}

func TestUnlinkFromStructureAlwaysSucceeds(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "alpha")

	st, _ := svc.CreateStructure(ctx, []string{a.ID})
	got, err := svc.UnlinkFromStructure(ctx, st.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LinkedAtomicNoteIDs) != 0 {
		t.Errorf("links = %v, want empty", got.LinkedAtomicNoteIDs)
	}
}

func TestDeleteNoteRefocus(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	c := mustAtomic(t, svc, "c")

	// Deleting the middle note focuses its successor.
	next, err := svc.DeleteNote(ctx, b.ID, models.KindAtomic)
	if err != nil {
		t.Fatal(err)
	}
	if next != c.ID {
		t.Errorf("next = %q, want %q", next, c.ID)
	}

	// Deleting the last note in the view clamps to the new last.
	next, err = svc.DeleteNote(ctx, c.ID, models.KindAtomic)
	if err != nil {
		t.Fatal(err)
	}
	if next != a.ID {
		t.Errorf("next = %q, want %q", next, a.ID)
	}

	// Emptying the view yields no focus target.
	next, err = svc.DeleteNote(ctx, a.ID, models.KindAtomic)
	if err != nil {
		t.Fatal(err)
	}
	if next != "" {
		t.Errorf("next = %q, want empty", next)
	}

	if _, err := svc.DeleteNote(ctx, "ghost", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete missing err = %v", err)
	}
}

func TestDeleteLeavesLinksDangling(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")
	c := mustAtomic(t, svc, "c")
	hub, _ := svc.CreateHub(ctx, []string{a.ID, b.ID, c.ID})

	if _, err := svc.DeleteNote(ctx, a.ID, ""); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetNote(ctx, hub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LinkedAtomicNoteIDs) != 3 {
		t.Errorf("hub links = %v, want the dangling id kept", got.LinkedAtomicNoteIDs)
	}
}

func TestNextFocus(t *testing.T) {
	for _, tc := range []struct {
		i, n, want int
	}{
		{0, 0, -1},
		{0, 2, 0},
		{1, 2, 1},
		{2, 2, 1},
		{5, 3, 2},
	} {
		if got := NextFocus(tc.i, tc.n); got != tc.want {
			t.Errorf("NextFocus(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestAskUnavailable(t *testing.T) {
	ctx := context.Background()

	svc, _ := testService(t, nil)
	mustAtomic(t, svc, "a")
	if ans, err := svc.Ask(ctx, "why?"); err != nil || ans != nil {
		t.Errorf("nil generator: ans = %v, err = %v, want nil/nil", ans, err)
	}

	svc, _ = testService(t, errGen{})
	mustAtomic(t, svc, "a")
	if ans, err := svc.Ask(ctx, "why?"); err != nil || ans != nil {
		t.Errorf("failing generator: ans = %v, err = %v, want nil/nil", ans, err)
	}

	svc, _ = testService(t, answerGen{answer: "something"})
	if ans, err := svc.Ask(ctx, "why?"); err != nil || ans != nil {
		t.Errorf("no numbered notes: ans = %v, err = %v, want nil/nil", ans, err)
	}

	if ans, err := svc.Ask(ctx, "   "); err != nil || ans != nil {
		t.Errorf("blank question: ans = %v, err = %v, want nil/nil", ans, err)
	}
}

func TestAskEmptyAnswerIsNoAnswer(t *testing.T) {
	svc, _ := testService(t, answerGen{answer: "  "})
	mustAtomic(t, svc, "a")
	if ans, err := svc.Ask(context.Background(), "why?"); err != nil || ans != nil {
		t.Errorf("ans = %v, err = %v, want nil/nil", ans, err)
	}
}

func TestAskSourcedNotesByCitation(t *testing.T) {
	svc, _ := testService(t, answerGen{answer: "It follows from (AN-2) and AN-7."})
	ctx := context.Background()

	var notes []models.Note
	for _, c := range []string{"n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8", "n9", "n10"} {
		notes = append(notes, mustAtomic(t, svc, c))
	}

	ans, err := svc.Ask(ctx, "why?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans == nil {
		t.Fatal("expected an answer")
	}
	if len(ans.SourcedNotes) != 2 {
		t.Fatalf("sourced = %d, want 2", len(ans.SourcedNotes))
	}
	if ans.SourcedNotes[0].ID != notes[1].ID || ans.SourcedNotes[1].ID != notes[6].ID {
		t.Errorf("sourced notes = %v, want AN-2 and AN-7", ans.SourcedNotes)
	}
}

func TestDefineUnavailable(t *testing.T) {
	ctx := context.Background()
	for name, gen := range map[string]ai.Generator{"nil": nil, "failing": errGen{}} {
		svc, _ := testService(t, gen)
		if def, err := svc.Define(ctx, "term", ""); err != nil || def != nil {
			t.Errorf("%s: def = %v, err = %v, want nil/nil", name, def, err)
		}
	}
	svc, _ := testService(t, answerGen{})
	if def, err := svc.Define(ctx, "  ", ""); err != nil || def != nil {
		t.Errorf("blank term: def = %v, err = %v, want nil/nil", def, err)
	}
}

func TestAnalyzeFiltersSuggestions(t *testing.T) {
	res := &models.HubAnalysis{
		NewThemes: []models.HubSuggestion{
			{Title: "keep", AtomicNoteIDs: []string{"a", "b"}, Confidence: 0.9},
			{Title: "weak", AtomicNoteIDs: []string{"a", "b"}, Confidence: 0.5},
			{Title: "thin", AtomicNoteIDs: []string{"a"}, Confidence: 0.95},
		},
	}
	svc, _ := testService(t, analyzeGen{res: res})
	mustAtomic(t, svc, "a")
	mustAtomic(t, svc, "b")

	got, err := svc.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got == nil {
		t.Fatal("expected analysis")
	}
	if len(got.NewThemes) != 1 || got.NewThemes[0].Title != "keep" {
		t.Errorf("new themes = %+v, want only the confident, supported one", got.NewThemes)
	}
}

func TestAnalyzeNeedsTwoAtomicNotes(t *testing.T) {
	svc, _ := testService(t, analyzeGen{res: &models.HubAnalysis{}})
	mustAtomic(t, svc, "only one")
	if got, err := svc.Analyze(context.Background()); err != nil || got != nil {
		t.Errorf("analysis = %v, err = %v, want nil/nil", got, err)
	}
}

func TestResolveReference(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	a := mustAtomic(t, svc, "a")
	b := mustAtomic(t, svc, "b")

	got, err := svc.ResolveReference(ctx, b.GlobalNumber)
	if err != nil {
		t.Fatalf("ResolveReference: %v", err)
	}
	if got.ID != b.ID {
		t.Errorf("resolved %q, want %q", got.ID, b.ID)
	}

	if _, err := svc.DeleteNote(ctx, a.ID, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ResolveReference(ctx, a.GlobalNumber); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("retired number err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ResolveReference(ctx, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("zero err = %v, want ErrNotFound", err)
	}
}

func TestMutationsEmitEvents(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	var events []string
	svc.SetEventCallback(func(kind, id string) {
		events = append(events, kind)
	})

	n, _ := svc.CreateSourceNote(ctx, "", "x")
	_, _ = svc.UpdateNote(ctx, n.ID, "", "y")
	_, _ = svc.DeleteNote(ctx, n.ID, "")

	if want := []string{"created", "updated", "deleted"}; !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRebuildIndexFromCollection(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	mustAtomic(t, svc, "a distinctive phrase")

	if err := svc.RebuildIndex(); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	results, err := svc.Search(ctx, "distinctive", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestRebuildIndexPrunesStaleRows(t *testing.T) {
	svc, store := testService(t, nil)
	ctx := context.Background()

	kept := mustAtomic(t, svc, "a distinctive phrase")
	gone := mustAtomic(t, svc, "an obsolete remark")

	// Remove the note behind the service's back, the way an external edit
	// of the collection file would.
	store.Delete(gone.ID)

	if err := svc.RebuildIndex(); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}

	if results, _ := svc.Search(ctx, "obsolete", 10); len(results) != 0 {
		t.Errorf("stale note still indexed: %v", results)
	}
	results, err := svc.Search(ctx, "distinctive", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != kept.ID {
		t.Errorf("results = %v, want only %s", results, kept.ID)
	}
}

func TestGraphEdges(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	src, _ := svc.CreateSourceNote(ctx, "", "text")
	approved, _ := svc.ApproveCandidates(ctx, src.ID, []models.Candidate{{Content: "a"}, {Content: "b"}})
	hub, _ := svc.CreateHub(ctx, []string{approved[0].ID, approved[1].ID})

	nodes, links, err := svc.Graph(ctx)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(nodes))
	}
	var sourceEdges, aggregateEdges int
	for _, l := range links {
		switch l.Type {
		case "source":
			sourceEdges++
		case "aggregate":
			aggregateEdges++
		}
	}
	if sourceEdges != 2 {
		t.Errorf("source edges = %d, want 2", sourceEdges)
	}
	if aggregateEdges != 2 {
		t.Errorf("aggregate edges = %d, want 2", aggregateEdges)
	}

	back, err := svc.Backlinks(ctx, approved[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0] != hub.ID {
		t.Errorf("backlinks = %v, want the hub", back)
	}
}
