package model

// Priority classifies how hard a requirement is.
type Priority string

const (
	PriorityMust Priority = "must" // Mandatory: an empty match row needs user attention
	PriorityNice Priority = "nice" // Optional: an empty match row is just a gap
)

// Requirement represents a normalized statement extracted from a job description.
// Immutable once created.
type Requirement struct {
	ReqID             string       `json:"req_id"`                        // Stable, unique within a JD
	Text              string       `json:"text"`                          // The requirement text itself
	ExtractedSkills   []string     `json:"extracted_skills,omitempty"`    // Raw skill mentions awaiting canonicalization
	CanonicalSkillIDs []string     `json:"canonical_skill_ids,omitempty"` // Taxonomy-resolved skill ids
	Priority          Priority     `json:"priority,omitempty"`            // must or nice (empty treated as nice)
	SenioritySignal   string       `json:"seniority_signal,omitempty"`    // e.g. "senior", "lead"
	Evidence          EvidenceSpan `json:"evidence,omitempty"`
}

// Mandatory reports whether an unmatched requirement must be surfaced to the user.
func (r Requirement) Mandatory() bool {
	return r.Priority == PriorityMust
}

// HasSkill reports whether the requirement resolved to the given canonical skill id.
func (r Requirement) HasSkill(id string) bool {
	for _, s := range r.CanonicalSkillIDs {
		if s == id {
			return true
		}
	}
	return false
}

// SharedSkill returns true when the requirement and claim resolved to at
// least one common canonical skill id.
func (r Requirement) SharedSkill(c Claim) bool {
	for _, s := range r.CanonicalSkillIDs {
		if c.HasSkill(s) {
			return true
		}
	}
	return false
}

// NormalizedJD is the requirement container produced by upstream normalization.
type NormalizedJD struct {
	SourceLanguage string        `json:"source_language,omitempty"`
	Title          string        `json:"title,omitempty"`
	Domain         string        `json:"domain,omitempty"` // Classifier output, used as taxonomy hint
	Requirements   []Requirement `json:"requirements"`
}
