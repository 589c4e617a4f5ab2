package model

// MappingSource records how a canonical mapping was derived.
type MappingSource string

const (
	MappingExact      MappingSource = "exact"      // Direct hit in the taxonomy table
	MappingSynonym    MappingSource = "synonym"    // Resolved through the synonym table
	MappingUnresolved MappingSource = "unresolved" // No taxonomy entry; raw text carried verbatim
)

// Provenance records how a canonical mapping was derived and with what confidence.
type Provenance struct {
	Source     MappingSource `json:"source"`
	Confidence float64       `json:"confidence"` // 0 for unresolved mappings
}

// CanonicalMapping is the result of canonicalizing one raw skill mention.
// Unresolved mentions never disappear: SkillID carries the original mention
// verbatim and Unresolved is set so the caller can surface it.
type CanonicalMapping struct {
	RawMention string     `json:"raw_mention"`
	SkillID    string     `json:"skill_id"`
	Unresolved bool       `json:"unresolved"`
	Provenance Provenance `json:"provenance"`
}
