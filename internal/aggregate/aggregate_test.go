package aggregate

import (
	"strings"
	"testing"

	"github.com/hyperifyio/gosearch/internal/search"
)

func TestMergeAndNormalize_Dedup_TrimUTM(t *testing.T) {
	groups := [][]search.Result{
		{
			{Title: "A", URL: "https://example.com/page?utm_source=x&utm_medium=y", Snippet: "one"},
		},
		{
			{Title: "A dup", URL: "https://EXAMPLE.com/page", Snippet: "two"},
		},
	}
	out := MergeAndNormalize(groups)
	if len(out) != 1 {
		t.Fatalf("expected 1 after dedup, got %d", len(out))
	}
	if out[0].URL != "https://example.com/page" {
		t.Fatalf("unexpected normalized url: %q", out[0].URL)
	}
}

func TestMergeAndNormalize_KeepsAnswerDocuments(t *testing.T) {
	groups := [][]search.Result{
		{
			{Title: "What is Go?", Snippet: "An answer.", Source: "jina"},
			{Title: "what is go?", Snippet: "Same answer again.", Source: "jina"},
		},
		{
			{Title: "Other", URL: "https://example.com/other", Snippet: "linked"},
		},
	}
	out := MergeAndNormalize(groups)
	if len(out) != 2 {
		t.Fatalf("expected answer doc + linked doc, got %d: %+v", len(out), out)
	}
	if out[0].Title != "What is Go?" || out[0].URL != "" {
		t.Fatalf("answer document mangled: %+v", out[0])
	}
}

func TestMergeAndNormalize_DropsEmptyAndUnparseable(t *testing.T) {
	groups := [][]search.Result{
		{
			{Title: "", URL: "", Snippet: ""},
			{Title: "bad", URL: "https://example.com/%zz"},
			{Title: "kept", URL: "https://example.com/ok#frag"},
		},
	}
	out := MergeAndNormalize(groups)
	if len(out) != 1 {
		t.Fatalf("expected 1, got %d: %+v", len(out), out)
	}
	if out[0].URL != "https://example.com/ok" {
		t.Fatalf("fragment not stripped: %q", out[0].URL)
	}
}

func TestTruncateSnippets(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := TruncateSnippets([]search.Result{
		{Title: "long", Snippet: long},
		{Title: "short", Snippet: "fits"},
	}, 40)
	if got := len([]rune(out[0].Snippet)); got > 40 {
		t.Fatalf("snippet not truncated: %d runes", got)
	}
	if out[1].Snippet != "fits" {
		t.Fatalf("short snippet altered: %q", out[1].Snippet)
	}

	same := TruncateSnippets([]search.Result{{Snippet: long}}, 0)
	if same[0].Snippet != long {
		t.Fatalf("non-positive cap must be a no-op")
	}
}
