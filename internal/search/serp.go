package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// SerpDefaultBaseURL is the SerpAPI endpoint root.
const SerpDefaultBaseURL = "https://serpapi.com"

// Serp implements Provider against the SerpAPI /search endpoint. It is the
// secondary HTTP-search provider, so production wiring decorates the primary
// instance with the retry policy.
type Serp struct {
	APIKey     string
	BaseURL    string // defaults to SerpDefaultBaseURL
	HTTPClient *http.Client
	MaxResults int

	down atomic.Bool
}

func (s *Serp) Name() string    { return "serp" }
func (s *Serp) Priority() int   { return 4 }
func (s *Serp) Available() bool { return s.APIKey != "" && !s.down.Load() }

func (s *Serp) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := s.MaxResults
	if limit <= 0 {
		limit = 10
	}
	base := s.BaseURL
	if base == "" {
		base = SerpDefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Kind: KindConnection, Err: err}
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	qq := u.Query()
	qq.Set("api_key", s.APIKey)
	qq.Set("q", q.Text)
	qq.Set("num", strconv.Itoa(limit))
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Kind: KindConnection, Err: err}
	}
	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := classifyStatus(resp.StatusCode)
		if kind == KindAuth {
			s.down.Store(true)
		}
		return nil, &ProviderError{Provider: s.Name(), Kind: kind, Err: fmt.Errorf("serpapi status: %d", resp.StatusCode)}
	}
	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &ProviderError{Provider: s.Name(), Kind: KindParse, Err: err}
	}
	out := make([]Result, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		if r.Link == "" || r.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.Link),
			Snippet: strings.TrimSpace(r.Snippet),
			Source:  s.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}
