package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hyperifyio/gosearch/internal/app"
	"github.com/hyperifyio/gosearch/internal/search"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Dotenv files feed the env-backed flag defaults below.
	if err := app.LoadEnvFiles(".env", ".env.local"); err != nil {
		log.Warn().Err(err).Msg("loading dotenv files")
	}

	var (
		geminiKey       string
		groundingModel  string
		normalModel     string
		geminiBase      string
		jinaKey         string
		jinaBase        string
		jinaModel       string
		serpKey         string
		serpBase        string
		ddgBase         string
		bulkhead        int
		searchTimeout   time.Duration
		groundTimeout   time.Duration
		retries         int
		retryBase       time.Duration
		retryCap        time.Duration
		maxResults      int
		maxSnippetChars int
		outputPath      string
		jsonOut         bool
		status          bool
		verbose         bool
		logFile         string
		configPath      string
		envFile         string
		queriesFile     string
	)

	flag.StringVar(&geminiKey, "gemini.key", os.Getenv("GEMINI_API_KEY"), "Gemini API key (GOOGLE_API_KEY also accepted)")
	flag.StringVar(&groundingModel, "gemini.groundingModel", os.Getenv("GEMINI_GROUNDING_MODEL"), "Model for search-grounded generation")
	flag.StringVar(&normalModel, "gemini.normalModel", os.Getenv("GEMINI_NORMAL_MODEL"), "Model for ungrounded generation")
	flag.StringVar(&geminiBase, "gemini.base", os.Getenv("GEMINI_BASE_URL"), "Gemini API base URL override")
	flag.StringVar(&jinaKey, "jina.key", os.Getenv("JINA_API_KEY"), "Jina DeepSearch API key")
	flag.StringVar(&jinaBase, "jina.base", os.Getenv("JINA_BASE_URL"), "Jina DeepSearch base URL")
	flag.StringVar(&jinaModel, "jina.model", os.Getenv("JINA_MODEL"), "Jina DeepSearch model name")
	flag.StringVar(&serpKey, "serp.key", os.Getenv("SERPAPI_API_KEY"), "SerpAPI key (SERP_API_KEY also accepted)")
	flag.StringVar(&serpBase, "serp.base", os.Getenv("SERP_BASE_URL"), "SerpAPI base URL")
	flag.StringVar(&ddgBase, "ddg.base", os.Getenv("DDG_BASE_URL"), "DuckDuckGo Lite base URL")
	flag.IntVar(&bulkhead, "search.bulkhead", 0, "Concurrent search operations; 0 uses the built-in limit of 3")
	flag.DurationVar(&searchTimeout, "search.timeout", 0, "Per-attempt timeout for web search providers; 0 uses the built-in 30s")
	flag.DurationVar(&groundTimeout, "search.groundingTimeout", 0, "Per-attempt timeout for Gemini providers; 0 uses the built-in 20s")
	flag.IntVar(&retries, "search.retries", 0, "Total SerpAPI attempts on transient failure; 0 uses the built-in 3")
	flag.DurationVar(&retryBase, "search.retryBase", 0, "Initial retry backoff; 0 uses the built-in 1s")
	flag.DurationVar(&retryCap, "search.retryCap", 0, "Maximum retry backoff; 0 uses the built-in 10s")
	flag.IntVar(&maxResults, "max.results", 0, "Maximum results requested per provider; 0 uses the built-in 10")
	flag.IntVar(&maxSnippetChars, "max.snippetChars", 0, "Truncate snippets to this many characters (0 disables)")
	flag.StringVar(&outputPath, "o", "", "Write results to a file instead of stdout")
	flag.BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	flag.BoolVar(&status, "status", false, "Print provider availability and exit")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&logFile, "log.file", os.Getenv("LOG_FILE"), "Also write JSON logs to this file, size-rotated")
	flag.StringVar(&configPath, "config", os.Getenv("GOSEARCH_CONFIG"), "Optional YAML or JSON config file")
	flag.StringVar(&envFile, "env-file", "", "Additional dotenv file to load")
	flag.StringVar(&queriesFile, "queries", "", "File with one query per line, searched concurrently")
	flag.Parse()

	if strings.TrimSpace(envFile) != "" {
		if err := app.LoadEnvFiles(envFile); err != nil {
			log.Error().Err(err).Str("path", envFile).Msg("load env file")
			os.Exit(2)
		}
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if strings.TrimSpace(logFile) != "" {
		rotated := &lumberjack.Logger{Filename: logFile, MaxSize: 20, MaxBackups: 3, MaxAge: 14}
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log.Logger = log.Output(zerolog.MultiLevelWriter(console, rotated))
	}

	cfg := app.Config{
		GeminiAPIKey:         geminiKey,
		GeminiGroundingModel: groundingModel,
		GeminiNormalModel:    normalModel,
		GeminiBaseURL:        geminiBase,
		JinaAPIKey:           jinaKey,
		JinaBaseURL:          jinaBase,
		JinaModel:            jinaModel,
		SerpAPIKey:           serpKey,
		SerpBaseURL:          serpBase,
		DDGBaseURL:           ddgBase,
		BulkheadSize:         bulkhead,
		SearchTimeout:        searchTimeout,
		GroundingTimeout:     groundTimeout,
		RetryAttempts:        retries,
		RetryBase:            retryBase,
		RetryCap:             retryCap,
		MaxResults:           maxResults,
		MaxSnippetChars:      maxSnippetChars,
		OutputPath:           outputPath,
		JSONOutput:           jsonOut,
		ShowStatus:           status,
		Verbose:              verbose,
		LogFile:              logFile,
	}

	// Fields the flags left empty fall back to the environment, then to the
	// optional config file.
	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	queries, err := collectQueries(queriesFile, flag.Args())
	if err != nil {
		log.Error().Err(err).Msg("collect queries")
		os.Exit(2)
	}

	if err := run(cfg, queries); err != nil {
		if errors.Is(err, app.ErrNoQuery) {
			fmt.Fprintln(os.Stderr, "usage: gosearch [flags] query terms...")
			os.Exit(2)
		}
		var ue *search.UnavailableError
		if errors.As(err, &ue) {
			log.Error().Int("attempts", len(ue.Attempts)).Str("query", ue.Query).Msg("all providers exhausted")
		} else {
			log.Error().Err(err).Msg("run failed")
		}
		os.Exit(1)
	}
}

// collectQueries builds the query list: one query per non-blank line of the
// queries file plus, when present, the positional arguments joined into one
// query.
func collectQueries(path string, args []string) ([]string, error) {
	var queries []string
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read queries file: %w", err)
		}
		for _, line := range strings.Split(string(b), "\n") {
			if s := strings.TrimSpace(line); s != "" {
				queries = append(queries, s)
			}
		}
	}
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		queries = append(queries, q)
	}
	return queries, nil
}

func run(cfg app.Config, queries []string) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx, queries)
}
