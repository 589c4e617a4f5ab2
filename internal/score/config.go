package score

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the scoring configuration, loaded once per run from an external
// YAML file. There are deliberately no built-in defaults: thresholds affect
// scoring fairness, so running without an explicit config is a startup error.
type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Evidence EvidenceConfig `yaml:"evidence"`
	LLM      LLMRules       `yaml:"llm"`
}

// MatchingConfig holds similarity thresholds and matrix shape.
type MatchingConfig struct {
	// SimilarityFloor is the cosine floor below which a pair is missing.
	SimilarityFloor float64 `yaml:"similarity_floor"`
	// CrossDomainFloor is the stricter threshold applied when requirement
	// and claim share no canonical skill id.
	CrossDomainFloor float64 `yaml:"cross_domain_floor"`
	// SkillBoost is added to similarity when a canonical skill id is
	// shared, capped at 1.
	SkillBoost float64 `yaml:"skill_boost"`
	// TopK is the number of entries kept per requirement.
	TopK int `yaml:"top_k"`
}

// EvidenceConfig maps signal counts to evidence-strength levels.
type EvidenceConfig struct {
	// EvidencedMinSignals is the minimum metric/scope/ownership count for
	// strength 2.
	EvidencedMinSignals int `yaml:"evidenced_min_signals"`
	// StrongMinSignals is the minimum count for strength 3.
	StrongMinSignals int `yaml:"strong_min_signals"`
}

// LLMRules bounds the adjudication wrapper.
type LLMRules struct {
	// AcceptConfidence is the minimum self-reported confidence for an
	// adjudication to be accepted.
	AcceptConfidence float64 `yaml:"accept_confidence"`
	// MaxRetries bounds retries on malformed payloads.
	MaxRetries int `yaml:"max_retries"`
	// TimeoutSeconds bounds one adjudication call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the adjudication timeout as a duration.
func (r LLMRules) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoadConfig reads and validates the scoring configuration. A missing or
// malformed file is fatal to the caller; the engine never runs on implicit
// threshold defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scoring config is required: %w", err)
	}
	return ParseConfig(raw, path)
}

// ParseConfig parses and validates raw YAML scoring configuration.
func ParseConfig(raw []byte, path string) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse scoring config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	m := c.Matching
	if m.SimilarityFloor <= 0 || m.SimilarityFloor >= 1 {
		return fmt.Errorf("matching.similarity_floor must be in (0,1), got %v", m.SimilarityFloor)
	}
	if m.CrossDomainFloor < m.SimilarityFloor || m.CrossDomainFloor >= 1 {
		return fmt.Errorf("matching.cross_domain_floor must be in [similarity_floor,1), got %v", m.CrossDomainFloor)
	}
	if m.SkillBoost < 0 || m.SkillBoost >= 1 {
		return fmt.Errorf("matching.skill_boost must be in [0,1), got %v", m.SkillBoost)
	}
	if m.TopK < 1 {
		return fmt.Errorf("matching.top_k must be at least 1, got %d", m.TopK)
	}

	e := c.Evidence
	if e.EvidencedMinSignals < 1 || e.EvidencedMinSignals > 3 {
		return fmt.Errorf("evidence.evidenced_min_signals must be in 1..3, got %d", e.EvidencedMinSignals)
	}
	if e.StrongMinSignals < e.EvidencedMinSignals || e.StrongMinSignals > 3 {
		return fmt.Errorf("evidence.strong_min_signals must be in %d..3, got %d", e.EvidencedMinSignals, e.StrongMinSignals)
	}

	l := c.LLM
	if l.AcceptConfidence < 0 || l.AcceptConfidence > 1 {
		return fmt.Errorf("llm.accept_confidence must be in [0,1], got %v", l.AcceptConfidence)
	}
	if l.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", l.MaxRetries)
	}
	if l.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds must be positive, got %d", l.TimeoutSeconds)
	}

	return nil
}
