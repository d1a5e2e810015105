package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the discovery stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Query is a raw arXiv search_query. When set it overrides Terms and
	// Categories.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Terms are OR-ed free-text search terms; multi-word terms are quoted.
	Terms []string `json:"terms" yaml:"terms"`

	// Categories are OR-ed arXiv category facets (e.g. "cs.LG").
	Categories []string `json:"categories" yaml:"categories"`

	// PageSize is the number of results requested per page (default 20).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxNew caps the number of new papers returned by one discovery call (default 10).
	MaxNew int `json:"max_new" yaml:"max_new"`

	// PolitenessDelay is the pause between consecutive page requests (default 1s).
	PolitenessDelay time.Duration `json:"politeness_delay" yaml:"politeness_delay"`

	// MaxStalePages is the number of consecutive pages without a new paper
	// after which discovery gives up (default 3).
	MaxStalePages int `json:"max_stale_pages" yaml:"max_stale_pages"`
}

// Provider names a text-generation backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the text-generation backend: anthropic or gemini.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-opus-4-20250514").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts after the first failed call (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SummarizeConfig holds settings for the summarization stage.
type SummarizeConfig struct {
	AIConfig `yaml:",inline"`

	// WorkerBudget is the maximum number of in-flight summarization calls (default 3).
	WorkerBudget int `json:"worker_budget" yaml:"worker_budget"`

	// MaxOutputTokens bounds the length of each generated summary (default 5000).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`

	// BackoffUnit is the base of the 2^attempt retry backoff (default 1s).
	BackoffUnit time.Duration `json:"backoff_unit" yaml:"backoff_unit"`
}

// StoreBackend identifies the persistent key-value store implementation.
type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
	StoreGCS    StoreBackend = "gcs"
	StoreMemory StoreBackend = "memory"
)

// StoreConfig holds settings for the seen-set and result-cache backing store.
type StoreConfig struct {
	// Backend selects the store: file, sqlite, gcs, or memory.
	Backend StoreBackend `json:"backend" yaml:"backend"`

	// Dir is the local state directory for the file and sqlite backends.
	Dir string `json:"dir" yaml:"dir"`

	// Bucket is the Cloud Storage bucket for the gcs backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to object names in the gcs backend.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// DigestConfig holds settings for digest rendering.
type DigestConfig struct {
	// Dir is the directory digests are written to. Empty disables digest output.
	Dir string `json:"dir" yaml:"dir"`
}

// ScheduleConfig holds settings for the daily scheduler.
type ScheduleConfig struct {
	// RunTime is the local wall-clock time of the daily run, as HH:MM.
	RunTime string `json:"run_time" yaml:"run_time"`

	// Weekends enables runs on Saturday and Sunday.
	Weekends bool `json:"weekends" yaml:"weekends"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	Summarize SummarizeConfig `json:"summarize" yaml:"summarize"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Digest    DigestConfig    `json:"digest" yaml:"digest"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
}
