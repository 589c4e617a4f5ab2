package model

// Config holds the ambient engine configuration. Scoring thresholds live in
// a separate, mandatory scoring file (see internal/score); this struct only
// carries wiring: providers, cache, taxonomy snapshot, concurrency.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy" mapstructure:"taxonomy"`
	Workers   int             `yaml:"workers" mapstructure:"workers"` // Concurrent requirement scoring
	Verbose   bool            `yaml:"verbose" mapstructure:"verbose"`
	LogJSON   bool            `yaml:"log_json" mapstructure:"log_json"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "openai" or "hashing"
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig selects and tunes the adjudication model. An empty Provider
// disables adjudication entirely; the deterministic matrix is the result.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai" or ""
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig tunes the embedding cache layers.
type CacheConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`           // SQLite store location; empty = memory only
	Disabled bool   `yaml:"disabled" mapstructure:"disabled"` // Skip caching entirely (testing)
}

// TaxonomyConfig points at the immutable taxonomy snapshot.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the ambient defaults. Scoring thresholds have no
// defaults: the scoring file is required.
func DefaultConfig() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:          "hashing",
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		LLM: LLMConfig{
			Provider:       "",
			TimeoutSeconds: 20,
			MaxTokens:      900,
		},
		Workers: 8,
	}
}
