package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.GeminiAPIKey == "" {
		// Support both GEMINI_API_KEY and GOOGLE_API_KEY; prefer the former
		v := os.Getenv("GEMINI_API_KEY")
		if v == "" {
			v = os.Getenv("GOOGLE_API_KEY")
		}
		cfg.GeminiAPIKey = v
	}
	if cfg.GeminiGroundingModel == "" {
		cfg.GeminiGroundingModel = os.Getenv("GEMINI_GROUNDING_MODEL")
	}
	if cfg.GeminiNormalModel == "" {
		cfg.GeminiNormalModel = os.Getenv("GEMINI_NORMAL_MODEL")
	}
	if cfg.GeminiBaseURL == "" {
		cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	}

	if cfg.JinaAPIKey == "" {
		cfg.JinaAPIKey = os.Getenv("JINA_API_KEY")
	}
	if cfg.JinaBaseURL == "" {
		cfg.JinaBaseURL = os.Getenv("JINA_BASE_URL")
	}
	if cfg.JinaModel == "" {
		cfg.JinaModel = os.Getenv("JINA_MODEL")
	}

	if cfg.SerpAPIKey == "" {
		v := os.Getenv("SERPAPI_API_KEY")
		if v == "" {
			v = os.Getenv("SERP_API_KEY")
		}
		cfg.SerpAPIKey = v
	}
	if cfg.SerpBaseURL == "" {
		cfg.SerpBaseURL = os.Getenv("SERP_BASE_URL")
	}

	if cfg.DDGBaseURL == "" {
		cfg.DDGBaseURL = os.Getenv("DDG_BASE_URL")
	}

	if cfg.BulkheadSize == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SEARCH_BULKHEAD"))); err == nil && n > 0 {
			cfg.BulkheadSize = n
		}
	}
	if cfg.RetryAttempts == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SEARCH_RETRIES"))); err == nil && n > 0 {
			cfg.RetryAttempts = n
		}
	}
	if cfg.MaxResults == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_RESULTS"))); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if cfg.MaxSnippetChars == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_SNIPPET_CHARS"))); err == nil && n > 0 {
			cfg.MaxSnippetChars = n
		}
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if *dst != 0 {
			return
		}
		if s := os.Getenv(envKey); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.SearchTimeout, "SEARCH_TIMEOUT")
	setDuration(&cfg.GroundingTimeout, "GROUNDING_TIMEOUT")

	if cfg.LogFile == "" {
		cfg.LogFile = os.Getenv("LOG_FILE")
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.JSONOutput, "JSON_OUTPUT")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && os.Getenv("GEMINI_API_KEY") == "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_GROUNDING_MODEL"); v != "" {
		cfg.GeminiGroundingModel = v
	}
	if v := os.Getenv("GEMINI_NORMAL_MODEL"); v != "" {
		cfg.GeminiNormalModel = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = v
	}

	if v := os.Getenv("JINA_API_KEY"); v != "" {
		cfg.JinaAPIKey = v
	}
	if v := os.Getenv("JINA_BASE_URL"); v != "" {
		cfg.JinaBaseURL = v
	}
	if v := os.Getenv("JINA_MODEL"); v != "" {
		cfg.JinaModel = v
	}

	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.SerpAPIKey = v
	}
	if v := os.Getenv("SERP_API_KEY"); v != "" && os.Getenv("SERPAPI_API_KEY") == "" {
		cfg.SerpAPIKey = v
	}
	if v := os.Getenv("SERP_BASE_URL"); v != "" {
		cfg.SerpBaseURL = v
	}

	if v := os.Getenv("DDG_BASE_URL"); v != "" {
		cfg.DDGBaseURL = v
	}

	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SEARCH_BULKHEAD"))); err == nil && n > 0 {
		cfg.BulkheadSize = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SEARCH_RETRIES"))); err == nil && n > 0 {
		cfg.RetryAttempts = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_RESULTS"))); err == nil && n > 0 {
		cfg.MaxResults = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_SNIPPET_CHARS"))); err == nil && n > 0 {
		cfg.MaxSnippetChars = n
	}

	if s := os.Getenv("SEARCH_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.SearchTimeout = d
		}
	}
	if s := os.Getenv("GROUNDING_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.GroundingTimeout = d
		}
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.JSONOutput, "JSON_OUTPUT")
}
