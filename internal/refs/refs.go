// Package refs implements the AN-n citation scheme for atomic notes.
package refs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/slatehq/slate/internal/models"
)

var referenceRe = regexp.MustCompile(`\(?AN-(\d+)\)?`)

// NextNumber returns one more than the highest global number assigned to
// any atomic note in the collection (1 when none is assigned). It is
// recomputed from the collection each call, so numbers stay monotone even
// after deletions: a freed number is never handed out again.
func NextNumber(notes []models.Note) int {
	max := 0
	for _, n := range notes {
		if n.Kind == models.KindAtomic && n.GlobalNumber > max {
			max = n.GlobalNumber
		}
	}
	return max + 1
}

// FormatReference renders a global number as its citation token.
func FormatReference(n int) string {
	return "AN-" + strconv.Itoa(n)
}

// ParseReference extracts every AN-n number from arbitrary prose,
// deduplicated in order of first occurrence. Enclosing parentheses around
// a token are tolerated.
func ParseReference(text string) []int {
	matches := referenceRe.FindAllStringSubmatch(text, -1)
	seen := make(map[int]struct{}, len(matches))
	var out []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Cited reports whether the citation token for n appears literally in
// text. This is a plain substring check: a note counts as sourced only
// when its formatted reference shows up verbatim.
func Cited(text string, n int) bool {
	return n > 0 && strings.Contains(text, FormatReference(n))
}
