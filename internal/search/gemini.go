package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Default Gemini models. Grounding needs a tool-capable model; the normal
// provider answers from model knowledge alone.
const (
	DefaultGeminiGroundingModel = "gemini-2.0-flash-exp"
	DefaultGeminiNormalModel    = "gemini-1.5-flash"
)

// GeminiConfig carries what both Gemini adapters need to reach the API.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // optional endpoint override for tests and the provider stub
	MaxResults int
}

func (c GeminiConfig) maxResults() int {
	if c.MaxResults <= 0 {
		return 10
	}
	return c.MaxResults
}

// newGeminiClient returns nil when no key is configured or the client cannot
// be built; the owning adapter then reports itself unavailable instead of
// failing startup.
func newGeminiClient(ctx context.Context, cfg GeminiConfig) *genai.Client {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil
	}
	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		log.Warn().Err(err).Msg("gemini client construction failed, provider unavailable")
		return nil
	}
	return client
}

// GeminiGrounding is the grounded Gemini provider: the model performs a
// Google Search tool call and the supporting citations become the result
// documents.
type GeminiGrounding struct {
	client *genai.Client
	model  string
	max    int
	down   atomic.Bool
}

// NewGeminiGrounding builds the adapter. A missing credential yields an
// unavailable adapter, never an error.
func NewGeminiGrounding(ctx context.Context, cfg GeminiConfig) *GeminiGrounding {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiGroundingModel
	}
	return &GeminiGrounding{
		client: newGeminiClient(ctx, cfg),
		model:  model,
		max:    cfg.maxResults(),
	}
}

func (g *GeminiGrounding) Name() string    { return "gemini_grounding" }
func (g *GeminiGrounding) Priority() int   { return 1 }
func (g *GeminiGrounding) Available() bool { return g.client != nil && !g.down.Load() }

func (g *GeminiGrounding) Search(ctx context.Context, q Query) ([]Result, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(q.Text),
		&genai.GenerateContentConfig{
			Tools:          []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			CandidateCount: 1,
			Temperature:    genai.Ptr[float32](0.7),
			TopK:           genai.Ptr[float32](40),
			TopP:           genai.Ptr[float32](0.95),
		},
	)
	if err != nil {
		pe := classifyGenai(g.Name(), err)
		if pe.Kind == KindAuth {
			g.down.Store(true)
		}
		return nil, pe
	}
	return groundedResults(resp, g.Name(), q.Text, g.max), nil
}

// groundedResults turns grounding citations into documents. Each chunk's
// snippet is assembled from the answer segments citing it. An answer with no
// citations at all still yields a single document holding the answer text.
func groundedResults(resp *genai.GenerateContentResponse, source, query string, limit int) []Result {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil || len(gm.GroundingChunks) == 0 {
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return nil
		}
		return []Result{{Title: query, Snippet: text, Source: source}}
	}

	snippets := make([][]string, len(gm.GroundingChunks))
	for _, sup := range gm.GroundingSupports {
		if sup == nil || sup.Segment == nil {
			continue
		}
		text := strings.TrimSpace(sup.Segment.Text)
		if text == "" {
			continue
		}
		for _, idx := range sup.GroundingChunkIndices {
			if int(idx) >= 0 && int(idx) < len(snippets) {
				snippets[idx] = append(snippets[idx], text)
			}
		}
	}

	out := make([]Result, 0, len(gm.GroundingChunks))
	for i, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || strings.TrimSpace(chunk.Web.URI) == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(chunk.Web.Title),
			URL:     strings.TrimSpace(chunk.Web.URI),
			Snippet: strings.Join(snippets[i], " "),
			Source:  source,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// GeminiNormal is the ungrounded Gemini provider. It asks the model for a
// JSON array of sources from its own knowledge via a response schema, so the
// output parses into documents instead of prose.
type GeminiNormal struct {
	client *genai.Client
	model  string
	max    int
	down   atomic.Bool
}

// NewGeminiNormal builds the adapter. A missing credential yields an
// unavailable adapter, never an error.
func NewGeminiNormal(ctx context.Context, cfg GeminiConfig) *GeminiNormal {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiNormalModel
	}
	return &GeminiNormal{
		client: newGeminiClient(ctx, cfg),
		model:  model,
		max:    cfg.maxResults(),
	}
}

func (g *GeminiNormal) Name() string    { return "gemini_normal" }
func (g *GeminiNormal) Priority() int   { return 2 }
func (g *GeminiNormal) Available() bool { return g.client != nil && !g.down.Load() }

type geminiDoc struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

var geminiDocSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   {Type: genai.TypeString},
			"url":     {Type: genai.TypeString},
			"snippet": {Type: genai.TypeString},
		},
		Required: []string{"title", "url", "snippet"},
	},
}

func (g *GeminiNormal) Search(ctx context.Context, q Query) ([]Result, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(normalPrompt(q.Text, g.max)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiDocSchema,
		},
	)
	if err != nil {
		pe := classifyGenai(g.Name(), err)
		if pe.Kind == KindAuth {
			g.down.Store(true)
		}
		return nil, pe
	}

	var docs []geminiDoc
	if err := json.Unmarshal([]byte(resp.Text()), &docs); err != nil {
		return nil, &ProviderError{Provider: g.Name(), Kind: KindParse, Err: fmt.Errorf("structured answer: %w", err)}
	}
	out := make([]Result, 0, len(docs))
	for _, d := range docs {
		title := strings.TrimSpace(d.Title)
		snippet := strings.TrimSpace(d.Snippet)
		if title == "" && snippet == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     strings.TrimSpace(d.URL),
			Snippet: snippet,
			Source:  g.Name(),
		})
		if len(out) >= g.max {
			break
		}
	}
	return out, nil
}

func normalPrompt(query string, limit int) string {
	return fmt.Sprintf(`You are a web search assistant. From your own knowledge, list up to %d sources relevant to the query below.

Return ONLY a JSON array of objects with keys "title", "url" and "snippet".
Use an empty string for any url you are not certain of. No extra keys.

Query: %s`, limit, query)
}

// classifyGenai maps a Gemini SDK error to the failure taxonomy.
func classifyGenai(provider string, err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return &ProviderError{Provider: provider, Kind: KindAuth, Err: err}
		case apiErr.Code == 429:
			return &ProviderError{Provider: provider, Kind: KindRateLimit, Err: err}
		}
		return &ProviderError{Provider: provider, Kind: KindConnection, Err: err}
	}
	return &ProviderError{Provider: provider, Kind: classifyTransport(err), Err: err}
}
