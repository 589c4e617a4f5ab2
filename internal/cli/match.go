package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/resumatch/resumatch/internal/cache"
	"github.com/resumatch/resumatch/internal/embed"
	"github.com/resumatch/resumatch/internal/engine"
	"github.com/resumatch/resumatch/internal/llm"
	"github.com/resumatch/resumatch/internal/logger"
	"github.com/resumatch/resumatch/internal/model"
	"github.com/resumatch/resumatch/internal/score"
	"github.com/resumatch/resumatch/internal/taxonomy"
)

var (
	resumePath   string
	jdPath       string
	scoringPath  string
	taxonomyPath string
	outPath      string
	cacheDir     string
	embProvider  string
	embModel     string
	llmProvider  string
	llmModel     string
	workers      int
	logJSON      bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one normalized resume against one normalized JD",
	Long: `Match reads a normalized resume and a normalized job description (JSON),
canonicalizes skill mentions against the taxonomy snapshot, embeds every
text unit, builds the deterministic MatchMatrix and emits the tool-output
envelope as JSON.

Example:
  resumatch match --resume resume.json --jd jd.json \
    --scoring config/scoring.yaml --taxonomy config/taxonomy.yaml
  resumatch match --resume resume.json --jd jd.json \
    --scoring config/scoring.yaml --taxonomy config/taxonomy.yaml \
    --embedding openai --llm openai --out report.json`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&resumePath, "resume", "", "normalized resume JSON (required)")
	matchCmd.Flags().StringVar(&jdPath, "jd", "", "normalized JD JSON (required)")
	matchCmd.Flags().StringVar(&scoringPath, "scoring", "", "scoring configuration YAML (required)")
	matchCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy snapshot YAML (default: taxonomy.path from config)")
	matchCmd.Flags().StringVar(&outPath, "out", "", "write the report to this file instead of stdout")
	matchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "embedding cache directory (default: memory only)")
	matchCmd.Flags().StringVar(&embProvider, "embedding", "", "embedding provider: openai, hashing")
	matchCmd.Flags().StringVar(&embModel, "embedding-model", "", "embedding model name")
	matchCmd.Flags().StringVar(&llmProvider, "llm", "", "adjudication LLM provider: openai (empty disables)")
	matchCmd.Flags().StringVar(&llmModel, "model", "", "adjudication model name")
	matchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent workers (default 8)")
	matchCmd.Flags().BoolVar(&logJSON, "log-json", false, "log in JSON format")

	_ = matchCmd.MarkFlagRequired("resume")
	_ = matchCmd.MarkFlagRequired("jd")
	_ = matchCmd.MarkFlagRequired("scoring")
}

func runMatch(cmd *cobra.Command, args []string) error {
	log, err := logger.New(logJSON, verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg := buildConfig()

	// Missing or malformed scoring config is fatal: the engine never runs
	// with implicit defaults for fairness-affecting thresholds.
	scoringCfg, err := score.LoadConfig(scoringPath)
	if err != nil {
		return err
	}

	if cfg.Taxonomy.Path == "" {
		return fmt.Errorf("no taxonomy snapshot: pass --taxonomy or set taxonomy.path in the config file")
	}
	tax, err := taxonomy.LoadLocal(cfg.Taxonomy.Path)
	if err != nil {
		return err
	}

	var jd model.NormalizedJD
	if err := readJSON(jdPath, &jd); err != nil {
		return fmt.Errorf("load normalized JD: %w", err)
	}
	var resume model.NormalizedResume
	if err := readJSON(resumePath, &resume); err != nil {
		return fmt.Errorf("load normalized resume: %w", err)
	}

	provider, err := embed.NewProvider(cfg.Embedding)
	if err != nil {
		return err
	}
	embedder, closeCache, err := wrapWithCache(provider, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	adjudicator, err := llm.NewAdjudicator(cfg.LLM)
	if err != nil {
		return err
	}

	eng := engine.New(tax, embedder, scoringCfg, adjudicator, cfg.Workers, log)
	out := eng.Match(cmd.Context(), jd, resume)

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath != "" {
		if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
	_, err = os.Stdout.Write(encoded)
	return err
}

// buildConfig merges defaults, the viper config file/env and CLI flags.
func buildConfig() model.Config {
	cfg := model.DefaultConfig()
	_ = viper.Unmarshal(&cfg)

	if embProvider != "" {
		cfg.Embedding.Provider = embProvider
	}
	if embModel != "" {
		cfg.Embedding.Model = embModel
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if taxonomyPath != "" {
		cfg.Taxonomy.Path = taxonomyPath
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	cfg.Verbose = verbose
	cfg.LogJSON = logJSON
	return cfg
}

// wrapWithCache layers the embedding cache according to configuration.
func wrapWithCache(provider embed.Provider, cfg model.CacheConfig) (embed.Provider, func(), error) {
	noop := func() {}
	if cfg.Disabled {
		return provider, noop, nil
	}
	if cfg.Dir == "" {
		return embed.NewCachedProvider(provider, cache.NewMemoryCache()), noop, nil
	}

	store, err := cache.NewSQLiteCache(cfg.Dir)
	if err != nil {
		return nil, noop, err
	}
	cached := embed.NewCachedProvider(provider, cache.NewLayeredCache(store))
	return cached, func() { _ = store.Close() }, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
