package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/resumatch/resumatch/internal/model"
)

func testConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			SimilarityFloor:  0.35,
			CrossDomainFloor: 0.55,
			SkillBoost:       0.2,
			TopK:             3,
		},
		Evidence: EvidenceConfig{
			EvidencedMinSignals: 1,
			StrongMinSignals:    3,
		},
		LLM: LLMRules{
			AcceptConfidence: 0.5,
			MaxRetries:       1,
			TimeoutSeconds:   20,
		},
	}
}

func TestScorer_StrengthLevels(t *testing.T) {
	scorer := NewScorer(testConfig())

	req := model.Requirement{
		ReqID:             "R1",
		Text:              "5 years of distributed systems experience",
		CanonicalSkillIDs: []string{"S.DIST"},
	}

	tests := []struct {
		name       string
		claim      model.Claim
		similarity float64
		want       int
	}{
		{
			name: "strong evidence with all three signals",
			claim: model.Claim{
				ClaimID:           "C7",
				CanonicalSkillIDs: []string{"S.DIST"},
				MetricPresent:     true,
				ScopePresent:      true,
				OwnershipPresent:  true,
			},
			similarity: 0.6,
			want:       model.StrengthStrong,
		},
		{
			name: "mention without support",
			claim: model.Claim{
				ClaimID:           "C2",
				CanonicalSkillIDs: []string{"S.DIST"},
			},
			similarity: 0.6,
			want:       model.StrengthMentioned,
		},
		{
			name: "one supporting signal",
			claim: model.Claim{
				ClaimID:           "C3",
				CanonicalSkillIDs: []string{"S.DIST"},
				MetricPresent:     true,
			},
			similarity: 0.6,
			want:       model.StrengthEvidenced,
		},
		{
			name: "two supporting signals stay at evidenced",
			claim: model.Claim{
				ClaimID:           "C4",
				CanonicalSkillIDs: []string{"S.DIST"},
				MetricPresent:     true,
				ScopePresent:      true,
			},
			similarity: 0.6,
			want:       model.StrengthEvidenced,
		},
		{
			name: "below floor is missing even with shared skill",
			claim: model.Claim{
				ClaimID:           "C5",
				CanonicalSkillIDs: []string{"S.DIST"},
				MetricPresent:     true,
			},
			similarity: 0.2,
			want:       model.StrengthMissing,
		},
		{
			name: "no shared skill below cross-domain floor is missing",
			claim: model.Claim{
				ClaimID:       "C6",
				MetricPresent: true,
			},
			similarity: 0.45,
			want:       model.StrengthMissing,
		},
		{
			name: "no shared skill above cross-domain floor survives",
			claim: model.Claim{
				ClaimID: "C8",
			},
			similarity: 0.6,
			want:       model.StrengthMentioned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(req, tt.claim, tt.similarity)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Adding a previously absent signal never decreases evidence strength.
func TestScorer_SignalMonotonicity(t *testing.T) {
	scorer := NewScorer(testConfig())
	req := model.Requirement{ReqID: "R1", CanonicalSkillIDs: []string{"S.GO"}}

	base := model.Claim{ClaimID: "C1", CanonicalSkillIDs: []string{"S.GO"}}
	for _, similarity := range []float64{0.2, 0.4, 0.6, 0.9} {
		prev := scorer.Score(req, base, similarity)

		withMetric := base
		withMetric.MetricPresent = true
		next := scorer.Score(req, withMetric, similarity)
		if next < prev {
			t.Errorf("adding metric lowered strength at sim=%v: %d -> %d", similarity, prev, next)
		}

		withAll := withMetric
		withAll.ScopePresent = true
		withAll.OwnershipPresent = true
		final := scorer.Score(req, withAll, similarity)
		if final < next {
			t.Errorf("adding more signals lowered strength at sim=%v: %d -> %d", similarity, next, final)
		}
	}
}

// Two claims with identical signal profiles receive the same strength for a
// skill-matched requirement regardless of any other claim content.
func TestScorer_DomainFairness(t *testing.T) {
	scorer := NewScorer(testConfig())
	req := model.Requirement{ReqID: "R1", CanonicalSkillIDs: []string{"S.SQL"}}

	finance := model.Claim{
		ClaimID:           "C-fin",
		Text:              "Optimized SQL reporting for a trading desk",
		CanonicalSkillIDs: []string{"S.SQL"},
		MetricPresent:     true,
	}
	health := model.Claim{
		ClaimID:           "C-med",
		Text:              "Optimized SQL reporting for a hospital network",
		CanonicalSkillIDs: []string{"S.SQL"},
		MetricPresent:     true,
	}

	if a, b := scorer.Score(req, finance, 0.6), scorer.Score(req, health, 0.6); a != b {
		t.Errorf("identical signal profiles scored differently: %d vs %d", a, b)
	}
}

func TestMatchEntry_TieBreakOrdering(t *testing.T) {
	// Higher strength first, then higher similarity, then smaller claim id.
	entries := []model.MatchEntry{
		{ClaimID: "C3", Similarity: 0.9, EvidenceStrength: 1},
		{ClaimID: "C2", Similarity: 0.5, EvidenceStrength: 2},
		{ClaimID: "C9", Similarity: 0.5, EvidenceStrength: 2},
		{ClaimID: "C1", Similarity: 0.4, EvidenceStrength: 2},
	}

	if !entries[1].Less(entries[0]) {
		t.Error("strength 2 must rank above strength 1 despite lower similarity")
	}
	if !entries[1].Less(entries[2]) {
		t.Error("equal strength and similarity must fall back to claim id order")
	}
	if !entries[2].Less(entries[3]) {
		t.Error("equal strength must rank by similarity")
	}
}

func TestLoadConfig_MissingFileIsFatal(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing scoring config")
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := `matching:
  similarity_floor: 0.35
  cross_domain_floor: 0.55
  skill_boost: 0.2
  top_k: 3
evidence:
  evidenced_min_signals: 1
  strong_min_signals: 3
llm:
  accept_confidence: 0.5
  max_retries: 1
  timeout_seconds: 20
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Matching.TopK != 3 || cfg.Matching.SimilarityFloor != 0.35 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseConfig_RejectsBadValues(t *testing.T) {
	bad := []string{
		// Floor out of range.
		"matching:\n  similarity_floor: 1.5\n  cross_domain_floor: 0.6\n  top_k: 3\nevidence:\n  evidenced_min_signals: 1\n  strong_min_signals: 3\nllm:\n  accept_confidence: 0.5\n  max_retries: 1\n  timeout_seconds: 20\n",
		// Cross-domain below the floor.
		"matching:\n  similarity_floor: 0.5\n  cross_domain_floor: 0.3\n  top_k: 3\nevidence:\n  evidenced_min_signals: 1\n  strong_min_signals: 3\nllm:\n  accept_confidence: 0.5\n  max_retries: 1\n  timeout_seconds: 20\n",
		// Zero top_k.
		"matching:\n  similarity_floor: 0.35\n  cross_domain_floor: 0.55\n  top_k: 0\nevidence:\n  evidenced_min_signals: 1\n  strong_min_signals: 3\nllm:\n  accept_confidence: 0.5\n  max_retries: 1\n  timeout_seconds: 20\n",
		// Unknown field.
		"matching:\n  similarity_floor: 0.35\n  cross_domain_floor: 0.55\n  top_k: 3\n  mystery_knob: 7\nevidence:\n  evidenced_min_signals: 1\n  strong_min_signals: 3\nllm:\n  accept_confidence: 0.5\n  max_retries: 1\n  timeout_seconds: 20\n",
		// Not YAML at all.
		"{{{",
	}

	for i, content := range bad {
		if _, err := ParseConfig([]byte(content), "inline"); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
