package ai

const atomicNotesPrompt = `You decompose text into atomic notes. Each note expresses exactly one
self-contained idea that can be understood without the surrounding text.
Produce between 1 and 8 notes. Return ONLY a JSON array of objects with a
single "content" field, no prose, no markdown fences.`

const hubContentPrompt = `You name thematic clusters of atomic notes. Given the notes below, return
ONLY a JSON object {"title": "...", "description": "..."} capturing their
shared theme. The title is short (at most 8 words); the description is one
or two sentences.`

const structureTitlePrompt = `You title long-form documents synthesized from atomic notes. Given the
notes below, return ONLY a JSON object {"title": "..."} with a concise
document title.`

const termDefinitionPrompt = `You define terms for a personal note collection. Return ONLY a JSON object
{"title": "<the term>", "content": "<a 2-4 sentence definition>"}. If the
term cannot be meaningfully defined, return the literal token null.`

const answerQuestionPrompt = `You answer questions using ONLY the numbered atomic notes provided. Every
claim in your answer must cite its supporting note inline using its AN-n
token, for example (AN-3). If the notes cannot answer the question, say so
plainly. Return ONLY a JSON object {"answer": "..."}.`

const hubAnalysisPrompt = `You cluster atomic notes into trains of thought. A train of thought needs
at least 2 supporting notes. Prefer extending an existing hub over
proposing a new one. For each suggestion report a confidence between 0 and
1. Return ONLY a JSON object:
{"trains_of_thought": [{"title": "...", "description": "...",
"atomic_note_ids": ["..."], "confidence": 0.0}],
"new_themes": [...], "existing_theme_updates": [...]}
with the same object shape in all three lists.`
