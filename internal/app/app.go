package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/gosearch/internal/aggregate"
	"github.com/hyperifyio/gosearch/internal/llm"
	"github.com/hyperifyio/gosearch/internal/search"
)

// App wires the provider adapters, the two cascades and the bulkhead into a
// search orchestrator and exposes the operations the CLI layer needs.
type App struct {
	cfg  Config
	orch *search.Orchestrator
}

// ErrNoQuery is returned by Run when no query was given and no status report
// was requested.
var ErrNoQuery = errors.New("no query given")

func New(ctx context.Context, cfg Config) (*App, error) {
	httpClient := newSearchHTTPClient()

	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = search.WebSearchTimeout
	}
	groundingTimeout := cfg.GroundingTimeout
	if groundingTimeout <= 0 {
		groundingTimeout = search.GroundingTimeout
	}

	// One Jina transport is shared by both cascade instances; the
	// availability latch lives on each adapter, not on the client.
	var jinaClient llm.Client
	if strings.TrimSpace(cfg.JinaAPIKey) != "" {
		tc := openai.DefaultConfig(cfg.JinaAPIKey)
		tc.BaseURL = cfg.JinaBaseURL
		if tc.BaseURL == "" {
			tc.BaseURL = search.JinaDefaultBaseURL
		}
		tc.HTTPClient = httpClient
		jinaClient = &llm.OpenAIClient{Inner: openai.NewClientWithConfig(tc)}
	}

	// DuckDuckGo throttles by source address, so every instance shares one
	// pacing limiter.
	ddgLimiter := rate.NewLimiter(rate.Every(time.Second), 1)

	newJina := func() *search.Jina {
		return &search.Jina{Client: jinaClient, Model: cfg.JinaModel}
	}
	newSerp := func() *search.Serp {
		return &search.Serp{APIKey: cfg.SerpAPIKey, BaseURL: cfg.SerpBaseURL, HTTPClient: httpClient, MaxResults: cfg.MaxResults}
	}
	newDDG := func() *search.DuckDuckGo {
		return &search.DuckDuckGo{BaseURL: cfg.DDGBaseURL, HTTPClient: httpClient, MaxResults: cfg.MaxResults, Limiter: ddgLimiter}
	}

	grounding := search.NewGeminiGrounding(ctx, search.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiGroundingModel,
		BaseURL:    cfg.GeminiBaseURL,
		MaxResults: cfg.MaxResults,
	})
	normal := search.NewGeminiNormal(ctx, search.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiNormalModel,
		BaseURL:    cfg.GeminiBaseURL,
		MaxResults: cfg.MaxResults,
	})

	// The retry policy wraps only the primary SerpAPI instance; the legacy
	// chain runs each adapter bare, in line with its last-resort role.
	primary := &search.Registry{}
	for _, p := range []search.Provider{
		search.WithTimeout(grounding, groundingTimeout),
		search.WithTimeout(normal, groundingTimeout),
		search.WithTimeout(newJina(), searchTimeout),
		search.WithRetry(search.WithTimeout(newSerp(), searchTimeout), cfg.RetryAttempts, cfg.RetryBase, cfg.RetryCap),
		search.WithTimeout(newDDG(), searchTimeout),
	} {
		if err := primary.Register(p); err != nil {
			return nil, fmt.Errorf("register primary provider: %w", err)
		}
	}

	// Legacy instances are fresh so that, for example, an auth latch tripped
	// in the primary cascade does not disable the legacy attempt.
	legacy := &search.Registry{}
	for _, p := range []search.Provider{
		search.WithTimeout(newJina(), searchTimeout),
		search.WithTimeout(newSerp(), searchTimeout),
		search.WithTimeout(newDDG(), searchTimeout),
	} {
		if err := legacy.Register(p); err != nil {
			return nil, fmt.Errorf("register legacy provider: %w", err)
		}
	}

	size := cfg.BulkheadSize
	if size <= 0 {
		size = search.DefaultBulkheadSize
	}

	a := &App{cfg: cfg}
	a.orch = &search.Orchestrator{
		Primary:  search.NewCascade("primary", primary),
		Legacy:   search.NewCascade("legacy", legacy),
		Bulkhead: search.NewBulkhead(size),
	}
	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// Search runs one query through the full provider cascade.
func (a *App) Search(ctx context.Context, query string) ([]search.Result, error) {
	return a.orch.ExecuteSearch(ctx, search.Query{Text: query})
}

// SearchAll fans queries out concurrently, one search operation each, and
// merges the result sets. The bulkhead bounds how many run at once. A failed
// query is logged and skipped as long as any other query produced results;
// only a fully empty outcome surfaces the collected errors.
func (a *App) SearchAll(ctx context.Context, queries []string) ([]search.Result, error) {
	groups := make([][]search.Result, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			res, err := a.orch.ExecuteSearch(ctx, search.Query{Text: q})
			if err != nil {
				log.Warn().Err(err).Str("query", q).Msg("search failed")
				errs[i] = fmt.Errorf("%q: %w", q, err)
				return
			}
			groups[i] = res
		}(i, q)
	}
	wg.Wait()

	merged := aggregate.MergeAndNormalize(groups)
	merged = aggregate.TruncateSnippets(merged, a.cfg.MaxSnippetChars)
	if len(merged) == 0 {
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// ProviderStatus reports current availability by provider name.
func (a *App) ProviderStatus() map[string]bool {
	return a.orch.ProviderStatus()
}

// Run executes the CLI behavior: a status report when requested, otherwise
// the given queries, writing to cfg.OutputPath or stdout.
func (a *App) Run(ctx context.Context, queries []string) error {
	out := io.Writer(os.Stdout)
	if a.cfg.OutputPath != "" {
		f, err := os.Create(a.cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if a.cfg.ShowStatus {
		return a.writeStatus(out)
	}
	if len(queries) == 0 {
		return ErrNoQuery
	}

	results, err := a.SearchAll(ctx, queries)
	if err != nil {
		return err
	}
	if a.cfg.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	} else if err := writeResults(out, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if a.cfg.OutputPath != "" {
		log.Info().Str("out", a.cfg.OutputPath).Int("results", len(results)).Msg("wrote output")
	}
	return nil
}

func (a *App) writeStatus(out io.Writer) error {
	status := a.ProviderStatus()
	if a.cfg.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "unavailable"
		if status[name] {
			state = "available"
		}
		if _, err := fmt.Fprintf(out, "%-20s %s\n", name, state); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(out io.Writer, results []search.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No results.")
		return err
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(out, "%d. %s\n", i+1, r.Title); err != nil {
			return err
		}
		if r.URL != "" {
			if _, err := fmt.Fprintf(out, "   %s\n", r.URL); err != nil {
				return err
			}
		}
		if r.Snippet != "" {
			if _, err := fmt.Fprintf(out, "   %s\n", r.Snippet); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(out, "   source: %s\n", r.Source); err != nil {
			return err
		}
	}
	return nil
}
