// Package segmenter splits raw note text into atomic-note candidates using
// heading, paragraph, list, and sentence heuristics.
package segmenter

import (
	"regexp"
	"strings"

	"github.com/slatehq/slate/internal/models"
)

const (
	// Paragraphs longer than this are broken into sentences.
	longParagraph = 300
	// Sentence fragments at or below this length are discarded.
	shortFragment = 20
)

var (
	headingRe     = regexp.MustCompile(`^#{1,6}\s`)
	listMarkerRe  = regexp.MustCompile(`^\s*(?:\d+\.|[*\-•])\s`)
	blankRunRe    = regexp.MustCompile(`\n\s*\n`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)
)

// Segment splits text into an ordered list of atomic-note candidates.
// It is pure and deterministic: the same input always yields the same
// sequence. Heading lines are boundaries only and are never emitted.
func Segment(text string) []models.Candidate {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var out []models.Candidate
	emit := func(content string) {
		c := strings.TrimSpace(content)
		if c == "" {
			return
		}
		out = append(out, models.Candidate{Content: c})
	}

	for _, block := range headingBlocks(trimmed) {
		for _, para := range paragraphs(block) {
			switch {
			case listMarkerRe.MatchString(para):
				for _, item := range listItems(para) {
					emit(item)
				}
			case len(para) > longParagraph:
				frags := sentenceFragments(para)
				if len(frags) >= 2 {
					for _, f := range frags {
						emit(ensureTerminal(f))
					}
				} else {
					emit(para)
				}
			default:
				emit(para)
			}
		}
	}

	// No headings or paragraph breaks produced anything: sentence-split the
	// whole input, and failing that emit it as a single note.
	if len(out) == 0 {
		if frags := sentenceFragments(trimmed); len(frags) >= 2 {
			for _, f := range frags {
				emit(ensureTerminal(f))
			}
		}
		if len(out) == 0 {
			emit(trimmed)
		}
	}

	return out
}

// headingBlocks splits text on heading lines. The heading line itself is
// dropped; text before the first heading forms its own block.
func headingBlocks(text string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if headingRe.MatchString(line) {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

// paragraphs splits a block on blank-line runs, dropping empty results.
func paragraphs(block string) []string {
	var out []string
	for _, p := range blankRunRe.Split(block, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// listItems splits a list paragraph on newlines that begin a new list
// marker. Marker text stays inside the emitted content.
func listItems(para string) []string {
	var items []string
	var cur []string
	for _, line := range strings.Split(para, "\n") {
		if listMarkerRe.MatchString(line) && len(cur) > 0 {
			items = append(items, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		items = append(items, strings.Join(cur, "\n"))
	}
	return items
}

// sentenceFragments splits text on end-punctuation-plus-whitespace
// boundaries, keeping the punctuation attached to the preceding word and
// discarding fragments at or below the minimum length.
func sentenceFragments(text string) []string {
	var frags []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		frag := strings.TrimSpace(text[last:loc[1]])
		last = loc[1]
		if len(frag) > shortFragment {
			frags = append(frags, frag)
		}
	}
	if rest := strings.TrimSpace(text[last:]); len(rest) > shortFragment {
		frags = append(frags, rest)
	}
	return frags
}

// ensureTerminal appends a period when the fragment lacks terminal
// punctuation.
func ensureTerminal(frag string) string {
	switch {
	case strings.HasSuffix(frag, "."), strings.HasSuffix(frag, "!"), strings.HasSuffix(frag, "?"):
		return frag
	}
	return frag + "."
}
