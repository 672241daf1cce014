package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// fileDuration accepts both "30s" strings and integer nanoseconds in YAML or
// JSON config files.
type fileDuration time.Duration

func (d *fileDuration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := parseFileDuration(value.Value)
	if err != nil {
		return err
	}
	*d = fileDuration(parsed)
	return nil
}

func (d *fileDuration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = fileDuration(time.Duration(v))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = fileDuration(parsed)
		return nil
	}
	return fmt.Errorf("invalid duration %s", b)
}

func parseFileDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n), nil
	}
	return time.ParseDuration(s)
}

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
	Gemini struct {
		Key            string `yaml:"key" json:"key"`
		GroundingModel string `yaml:"groundingModel" json:"groundingModel"`
		NormalModel    string `yaml:"normalModel" json:"normalModel"`
		Base           string `yaml:"base" json:"base"`
	} `yaml:"gemini" json:"gemini"`

	Jina struct {
		Key   string `yaml:"key" json:"key"`
		Base  string `yaml:"base" json:"base"`
		Model string `yaml:"model" json:"model"`
	} `yaml:"jina" json:"jina"`

	Serp struct {
		Key  string `yaml:"key" json:"key"`
		Base string `yaml:"base" json:"base"`
	} `yaml:"serp" json:"serp"`

	DuckDuckGo struct {
		Base string `yaml:"base" json:"base"`
	} `yaml:"duckduckgo" json:"duckduckgo"`

	Search struct {
		Bulkhead         int          `yaml:"bulkhead" json:"bulkhead"`
		Timeout          fileDuration `yaml:"timeout" json:"timeout"`
		GroundingTimeout fileDuration `yaml:"groundingTimeout" json:"groundingTimeout"`
		Retries          int          `yaml:"retries" json:"retries"`
		RetryBase        fileDuration `yaml:"retryBase" json:"retryBase"`
		RetryCap         fileDuration `yaml:"retryCap" json:"retryCap"`
	} `yaml:"search" json:"search"`

	Max struct {
		Results      int `yaml:"results" json:"results"`
		SnippetChars int `yaml:"snippetChars" json:"snippetChars"`
	} `yaml:"max" json:"max"`

	Output  string `yaml:"output" json:"output"`
	JSON    bool   `yaml:"json" json:"json"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
	LogFile string `yaml:"logFile" json:"logFile"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// function lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.GeminiAPIKey == "" && fc.Gemini.Key != "" {
		cfg.GeminiAPIKey = fc.Gemini.Key
	}
	if cfg.GeminiGroundingModel == "" && fc.Gemini.GroundingModel != "" {
		cfg.GeminiGroundingModel = fc.Gemini.GroundingModel
	}
	if cfg.GeminiNormalModel == "" && fc.Gemini.NormalModel != "" {
		cfg.GeminiNormalModel = fc.Gemini.NormalModel
	}
	if cfg.GeminiBaseURL == "" && fc.Gemini.Base != "" {
		cfg.GeminiBaseURL = fc.Gemini.Base
	}

	if cfg.JinaAPIKey == "" && fc.Jina.Key != "" {
		cfg.JinaAPIKey = fc.Jina.Key
	}
	if cfg.JinaBaseURL == "" && fc.Jina.Base != "" {
		cfg.JinaBaseURL = fc.Jina.Base
	}
	if cfg.JinaModel == "" && fc.Jina.Model != "" {
		cfg.JinaModel = fc.Jina.Model
	}

	if cfg.SerpAPIKey == "" && fc.Serp.Key != "" {
		cfg.SerpAPIKey = fc.Serp.Key
	}
	if cfg.SerpBaseURL == "" && fc.Serp.Base != "" {
		cfg.SerpBaseURL = fc.Serp.Base
	}

	if cfg.DDGBaseURL == "" && fc.DuckDuckGo.Base != "" {
		cfg.DDGBaseURL = fc.DuckDuckGo.Base
	}

	if cfg.BulkheadSize == 0 && fc.Search.Bulkhead > 0 {
		cfg.BulkheadSize = fc.Search.Bulkhead
	}
	if cfg.SearchTimeout == 0 && fc.Search.Timeout > 0 {
		cfg.SearchTimeout = time.Duration(fc.Search.Timeout)
	}
	if cfg.GroundingTimeout == 0 && fc.Search.GroundingTimeout > 0 {
		cfg.GroundingTimeout = time.Duration(fc.Search.GroundingTimeout)
	}
	if cfg.RetryAttempts == 0 && fc.Search.Retries > 0 {
		cfg.RetryAttempts = fc.Search.Retries
	}
	if cfg.RetryBase == 0 && fc.Search.RetryBase > 0 {
		cfg.RetryBase = time.Duration(fc.Search.RetryBase)
	}
	if cfg.RetryCap == 0 && fc.Search.RetryCap > 0 {
		cfg.RetryCap = time.Duration(fc.Search.RetryCap)
	}

	if cfg.MaxResults == 0 && fc.Max.Results > 0 {
		cfg.MaxResults = fc.Max.Results
	}
	if cfg.MaxSnippetChars == 0 && fc.Max.SnippetChars > 0 {
		cfg.MaxSnippetChars = fc.Max.SnippetChars
	}

	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if !cfg.JSONOutput && fc.JSON {
		cfg.JSONOutput = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if cfg.LogFile == "" && fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
}

// ValidateConfig performs minimal schema validation. Missing credentials are
// not an error here: a provider without its key simply reports itself
// unavailable at runtime.
func ValidateConfig(cfg Config) error {
	if cfg.BulkheadSize < 0 {
		return errors.New("config: search.bulkhead must not be negative")
	}
	if cfg.SearchTimeout < 0 || cfg.GroundingTimeout < 0 {
		return errors.New("config: timeouts must not be negative")
	}
	if cfg.RetryAttempts < 0 {
		return errors.New("config: search.retries must not be negative")
	}
	if cfg.RetryBase < 0 || cfg.RetryCap < 0 {
		return errors.New("config: retry backoff must not be negative")
	}
	if cfg.MaxResults < 0 || cfg.MaxSnippetChars < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
