package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/gosearch/internal/app"
	"github.com/hyperifyio/gosearch/internal/llm"
	"github.com/hyperifyio/gosearch/internal/search"
)

// debugsearch probes one named provider directly, bypassing the cascades,
// retries and the bulkhead, for diagnosing a single backend.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var (
		name    string
		query   string
		timeout time.Duration
	)
	flag.StringVar(&name, "provider", "duckduckgo", "Provider to probe: gemini_grounding, gemini_normal, jina, serp or duckduckgo")
	flag.StringVar(&query, "q", "What is love?", "Query to send")
	flag.DurationVar(&timeout, "timeout", 25*time.Second, "Overall deadline")
	flag.Parse()

	// Credentials and endpoints come from an optional config file with the
	// environment always winning; there are no per-setting flags here.
	var cfg app.Config
	if path := os.Getenv("GOSEARCH_CONFIG"); path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("load config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prov, err := buildProvider(ctx, name, cfg)
	if err != nil {
		log.Error().Err(err).Msg("build provider")
		os.Exit(2)
	}
	if !prov.Available() {
		fmt.Printf("%s is unavailable, check its credential\n", prov.Name())
		os.Exit(1)
	}

	res, err := prov.Search(ctx, search.Query{Text: query})
	fmt.Println("err:", err)
	for i, r := range res {
		fmt.Printf("%d. %s - %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
	}
}

func buildProvider(ctx context.Context, name string, cfg app.Config) (search.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini_grounding":
		return search.NewGeminiGrounding(ctx, search.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiGroundingModel,
			BaseURL:    cfg.GeminiBaseURL,
			MaxResults: cfg.MaxResults,
		}), nil
	case "gemini_normal":
		return search.NewGeminiNormal(ctx, search.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiNormalModel,
			BaseURL:    cfg.GeminiBaseURL,
			MaxResults: cfg.MaxResults,
		}), nil
	case "jina":
		var client llm.Client
		if cfg.JinaAPIKey != "" {
			tc := openai.DefaultConfig(cfg.JinaAPIKey)
			tc.BaseURL = cfg.JinaBaseURL
			if tc.BaseURL == "" {
				tc.BaseURL = search.JinaDefaultBaseURL
			}
			client = &llm.OpenAIClient{Inner: openai.NewClientWithConfig(tc)}
		}
		return &search.Jina{Client: client, Model: cfg.JinaModel}, nil
	case "serp":
		return &search.Serp{APIKey: cfg.SerpAPIKey, BaseURL: cfg.SerpBaseURL, MaxResults: cfg.MaxResults}, nil
	case "duckduckgo", "ddg":
		return &search.DuckDuckGo{BaseURL: cfg.DDGBaseURL, MaxResults: cfg.MaxResults, Limiter: rate.NewLimiter(rate.Every(time.Second), 1)}, nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
