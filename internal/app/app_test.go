package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/gosearch/internal/search"
)

// deadServer returns a base URL nothing listens on.
func deadServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	return srv.URL
}

func serpStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestNew_ProviderStatusReflectsCredentials(t *testing.T) {
	a, err := New(context.Background(), Config{SerpAPIKey: "k"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	status := a.ProviderStatus()
	want := map[string]bool{
		"gemini_grounding": false,
		"gemini_normal":    false,
		"jina":             false,
		"serp":             true,
		"duckduckgo":       true,
	}
	if len(status) != len(want) {
		t.Fatalf("status has %d providers, want %d: %v", len(status), len(want), status)
	}
	for name, avail := range want {
		if status[name] != avail {
			t.Errorf("provider %s availability %t, want %t", name, status[name], avail)
		}
	}
}

func TestSearchAll_MergesAndDeduplicates(t *testing.T) {
	srv := serpStub(t, `{"organic_results": [
		{"title": "Shared", "link": "https://example.com/shared?utm_source=serp", "snippet": "seen twice"},
		{"title": "Solo", "link": "https://example.com/solo", "snippet": "seen once"}
	]}`)
	defer srv.Close()

	a, err := New(context.Background(), Config{
		SerpAPIKey:  "k",
		SerpBaseURL: srv.URL,
		DDGBaseURL:  deadServer(t),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	results, err := a.SearchAll(context.Background(), []string{"first query", "second query"})
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 merged documents, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if strings.Contains(r.URL, "utm_source") {
			t.Fatalf("tracking params not stripped: %q", r.URL)
		}
		if r.Source != "serp" {
			t.Fatalf("unexpected provenance %q", r.Source)
		}
	}
}

func TestSearchAll_TruncatesSnippets(t *testing.T) {
	srv := serpStub(t, `{"organic_results": [
		{"title": "Long", "link": "https://example.com/long", "snippet": "`+strings.Repeat("abcd ", 100)+`"}
	]}`)
	defer srv.Close()

	a, err := New(context.Background(), Config{
		SerpAPIKey:      "k",
		SerpBaseURL:     srv.URL,
		DDGBaseURL:      deadServer(t),
		MaxSnippetChars: 32,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := a.SearchAll(context.Background(), []string{"q"})
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(res) != 1 || len([]rune(res[0].Snippet)) > 33 {
		t.Fatalf("snippet not truncated: %+v", res)
	}
}

func TestSearchAll_AllQueriesFailing(t *testing.T) {
	dead := deadServer(t)
	a, err := New(context.Background(), Config{
		SerpAPIKey:  "k",
		SerpBaseURL: dead,
		DDGBaseURL:  dead,
		RetryBase:   time.Millisecond,
		RetryCap:    2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = a.SearchAll(context.Background(), []string{"doomed"})
	if err == nil {
		t.Fatalf("expected terminal error")
	}
	if !errors.Is(err, search.ErrAllProvidersExhausted) {
		t.Fatalf("error does not unwrap to exhaustion: %v", err)
	}
	var ue *search.UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *search.UnavailableError in chain, got %v", err)
	}
}

func TestRun_WritesJSONOutputFile(t *testing.T) {
	srv := serpStub(t, `{"organic_results": [
		{"title": "Doc", "link": "https://example.com/doc", "snippet": "body"}
	]}`)
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "results.json")
	a, err := New(context.Background(), Config{
		SerpAPIKey:  "k",
		SerpBaseURL: srv.URL,
		DDGBaseURL:  deadServer(t),
		OutputPath:  outPath,
		JSONOutput:  true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background(), []string{"docs"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var results []search.Result
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	if len(results) != 1 || results[0].Title != "Doc" {
		t.Fatalf("unexpected output: %+v", results)
	}
}

func TestRun_StatusReport(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "status.txt")
	a, err := New(context.Background(), Config{OutputPath: outPath, ShowStatus: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "duckduckgo") || !strings.Contains(text, "available") {
		t.Fatalf("status report missing providers:\n%s", text)
	}
	if !strings.Contains(text, "gemini_grounding") {
		t.Fatalf("status report missing keyed providers:\n%s", text)
	}
}

func TestRun_NoQueriesIsAnError(t *testing.T) {
	a, err := New(context.Background(), Config{OutputPath: filepath.Join(t.TempDir(), "out.txt")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background(), nil); !errors.Is(err, ErrNoQuery) {
		t.Fatalf("expected ErrNoQuery, got %v", err)
	}
}
