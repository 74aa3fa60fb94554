package mcpserver

// NoteModelContract describes the canonical Slate note model that LLM
// consumers should follow when reading or creating notes.
const NoteModelContract = `# Slate Note Model Contract

Every note in Slate is one entity with a ` + "`kind`" + ` discriminant.

## Kinds

- **source** — a top-level, user-authored note. Free-form text; may later be
  decomposed into atomic notes.
- **atomic** — exactly one self-contained idea. Carries a collection-wide
  citation number rendered as ` + "`AN-<n>`" + ` and optionally a
  ` + "`source_note_id`" + ` back-reference to the note it came from.
- **hub** — aggregates at least 2 atomic notes sharing a theme, via
  ` + "`linked_atomic_note_ids`" + `. Title and description summarize the theme.
- **structured** — a long-form document synthesized from one or more atomic
  notes, also linked via ` + "`linked_atomic_note_ids`" + `.

## Rules

1. **Kinds are canonical.** There are no boolean flags; ` + "`kind`" + ` alone decides
   what a note is.
2. **AN-n numbers are stable.** They are assigned in creation order, are
   never reused, and survive the deletion of other notes. Cite atomic notes
   by their token, e.g. ` + "`(AN-7)`" + `.
3. **Links may dangle.** A link to a deleted note means "reference not
   found", never an error. Do not treat a failed resolve_reference call as
   fatal.
4. **Candidates are not notes.** decompose_note returns proposals with no id
   and no number; they only become notes when the user approves them.
5. **Structured content may embed inline references** of the form
   ` + "`[AN-7](atomic-note:<id>)`" + `.

## Workflow

1. Create a source note with free-form content.
2. Decompose it; review the candidates.
3. Approved candidates become atomic notes with consecutive AN-n numbers.
4. Cluster related atomic notes into hubs; synthesize structure notes.
5. Ask questions; answers cite atomic notes by AN-n token.
`
