// Package score derives evidence-strength levels for requirement/claim pairs.
// Scoring is deterministic and rule based; the language model never assigns
// strength.
package score

import "github.com/resumatch/resumatch/internal/model"

// Scorer assigns evidence strength to (requirement, claim) pairs under an
// immutable configuration. One process can hold multiple scorers with
// different configurations side by side.
type Scorer struct {
	cfg *Config
}

// NewScorer creates a scorer over the given configuration.
func NewScorer(cfg *Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score returns the evidence strength for one pair given its similarity:
//
//	0  below the floor, or no shared skill id and below the cross-domain floor
//	1  skill signal present, no metric/scope/ownership support
//	2  skill signal plus some supporting signals
//	3  skill signal plus enough signals for the configured strong level
//
// Only the claim's own signal profile and the shared canonical skill ids feed
// the decision; domain tags never act as a penalty.
func (s *Scorer) Score(req model.Requirement, claim model.Claim, similarity float64) int {
	if similarity < s.cfg.Matching.SimilarityFloor {
		return model.StrengthMissing
	}
	if !req.SharedSkill(claim) && similarity < s.cfg.Matching.CrossDomainFloor {
		return model.StrengthMissing
	}

	signals := claim.SignalCount()
	switch {
	case signals >= s.cfg.Evidence.StrongMinSignals:
		return model.StrengthStrong
	case signals >= s.cfg.Evidence.EvidencedMinSignals:
		return model.StrengthEvidenced
	default:
		return model.StrengthMentioned
	}
}

// Admissible reports whether a pair clears the similarity thresholds at all.
// The matrix builder uses this to filter entries before ranking.
func (s *Scorer) Admissible(req model.Requirement, claim model.Claim, similarity float64) bool {
	return s.Score(req, claim, similarity) > model.StrengthMissing
}
