package model

// Claim represents a normalized, evidence-anchored statement extracted from a resume.
// Claims are created during normalization (out of scope here) and are immutable.
type Claim struct {
	ClaimID           string       `json:"claim_id"`                      // Stable, unique within a resume
	Text              string       `json:"text"`                          // The claim text itself
	ExtractedSkills   []string     `json:"extracted_skills,omitempty"`    // Raw skill mentions awaiting canonicalization
	CanonicalSkillIDs []string     `json:"canonical_skill_ids,omitempty"` // Taxonomy-resolved skill ids (possibly empty)
	MetricPresent     bool         `json:"metric_present"`                // Claim carries a quantified outcome
	ScopePresent      bool         `json:"scope_present"`                 // Claim names team/system scope
	OwnershipPresent  bool         `json:"ownership_present"`             // Claim asserts ownership ("led", "designed")
	Evidence          EvidenceSpan `json:"evidence"`                      // Where in the source document the claim lives
}

// SignalCount returns how many of the metric/scope/ownership signals the claim carries.
func (c Claim) SignalCount() int {
	n := 0
	if c.MetricPresent {
		n++
	}
	if c.ScopePresent {
		n++
	}
	if c.OwnershipPresent {
		n++
	}
	return n
}

// HasSkill reports whether the claim resolved to the given canonical skill id.
func (c Claim) HasSkill(id string) bool {
	for _, s := range c.CanonicalSkillIDs {
		if s == id {
			return true
		}
	}
	return false
}

// NormalizedResume is the claim container produced by upstream normalization.
type NormalizedResume struct {
	SourceLanguage string  `json:"source_language,omitempty"`
	Domain         string  `json:"domain,omitempty"` // Classifier output, used as taxonomy hint
	Claims         []Claim `json:"claims"`
}
