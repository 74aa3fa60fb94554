package segmenter

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegmentHeadingWithParagraphs(t *testing.T) {
	got := Segment("# Title\n\nFirst idea here.\n\nSecond idea here.")
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].Content != "First idea here." {
		t.Errorf("first = %q", got[0].Content)
	}
	if got[1].Content != "Second idea here." {
		t.Errorf("second = %q", got[1].Content)
	}
}

func TestSegmentDropsHeadingLines(t *testing.T) {
	got := Segment("# One\n\nBody under one.\n\n## Two\n\nBody under two.")
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	for _, c := range got {
		if strings.Contains(c.Content, "#") {
			t.Errorf("heading leaked into candidate %q", c.Content)
		}
	}
}

func TestSegmentListItems(t *testing.T) {
	got := Segment("- first item to keep\n- second item to keep\n1. numbered item here")
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}
	if got[0].Content != "- first item to keep" {
		t.Errorf("marker not preserved: %q", got[0].Content)
	}
	if got[2].Content != "1. numbered item here" {
		t.Errorf("numbered item = %q", got[2].Content)
	}
}

func TestSegmentLongParagraphSplitsIntoSentences(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog near the river."
	para := strings.Repeat(sentence+" ", 6)
	got := Segment(para)
	if len(got) != 6 {
		t.Fatalf("candidates = %d, want 6", len(got))
	}
	for _, c := range got {
		if !strings.HasSuffix(c.Content, ".") {
			t.Errorf("missing terminal punctuation: %q", c.Content)
		}
	}
}

func TestSegmentDiscardsShortFragments(t *testing.T) {
	sentence := "This sentence is comfortably long enough to survive the filter."
	para := "Go. " + strings.Repeat(sentence+" ", 5)
	if len(para) <= 300 {
		t.Fatalf("test input too short: %d", len(para))
	}
	got := Segment(para)
	for _, c := range got {
		if c.Content == "Go." {
			t.Errorf("short fragment survived: %q", c.Content)
		}
	}
	if len(got) != 5 {
		t.Errorf("candidates = %d, want 5", len(got))
	}
}

func TestSegmentShortTextSingleCandidate(t *testing.T) {
	got := Segment("just one small thought")
	if len(got) != 1 || got[0].Content != "just one small thought" {
		t.Fatalf("got %+v, want the input as a single candidate", got)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if got := Segment("   \n\t  "); len(got) != 0 {
		t.Errorf("whitespace input produced %d candidates", len(got))
	}
	if got := Segment(""); len(got) != 0 {
		t.Errorf("empty input produced %d candidates", len(got))
	}
}

func TestSegmentDeterministic(t *testing.T) {
	text := "# Notes\n\nA first paragraph with substance.\n\n- list entry one here\n- list entry two here\n\nA closing paragraph."
	a := Segment(text)
	b := Segment(text)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("segmentation not deterministic:\n%v\n%v", a, b)
	}
}
