package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Gemini
	GeminiAPIKey         string
	GeminiGroundingModel string
	GeminiNormalModel    string
	GeminiBaseURL        string

	// Jina DeepSearch
	JinaAPIKey  string
	JinaBaseURL string
	JinaModel   string

	// SerpAPI
	SerpAPIKey  string
	SerpBaseURL string

	// DuckDuckGo
	DDGBaseURL string

	// Concurrency and resilience
	BulkheadSize     int
	SearchTimeout    time.Duration
	GroundingTimeout time.Duration
	RetryAttempts    int
	RetryBase        time.Duration
	RetryCap         time.Duration

	// Result shaping
	MaxResults      int
	MaxSnippetChars int

	// Output
	OutputPath string // empty means stdout
	JSONOutput bool
	ShowStatus bool

	// Behavior
	Verbose bool
	LogFile string
}
