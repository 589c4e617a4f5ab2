package model

import "time"

// Finding annotates one observation with its originating ids so every
// assertion in the output stays traceable to a source statement.
type Finding struct {
	ReqID    string        `json:"req_id,omitempty"`
	ClaimID  string        `json:"claim_id,omitempty"`
	Evidence *EvidenceSpan `json:"evidence_span,omitempty"`
	Note     string        `json:"note"`
}

// ToolOutput is the only object exposed past the engine boundary. Every
// response carries the confidence envelope regardless of outcome.
type ToolOutput struct {
	RunID             string       `json:"run_id"`
	GeneratedAt       time.Time    `json:"generated_at"`
	Confidence        float64      `json:"confidence"` // 0..1
	ConfidenceReasons []string     `json:"confidence_reasons"`
	NeedsUserInput    bool         `json:"needs_user_input"`
	Errors            []string     `json:"errors"` // Empty when ok
	Findings          []Finding    `json:"findings,omitempty"`
	Matrix            *MatchMatrix `json:"matrix,omitempty"`
	TaxonomyVersion   string       `json:"taxonomy_version,omitempty"`
	EmbeddingVersion  string       `json:"embedding_version,omitempty"`
}

// AddReason appends a confidence reason, preserving insertion order.
func (t *ToolOutput) AddReason(reason string) {
	t.ConfidenceReasons = append(t.ConfidenceReasons, reason)
}

// AddError records an error string. Errors never panic the engine; they
// lower confidence and surface in the envelope.
func (t *ToolOutput) AddError(msg string) {
	t.Errors = append(t.Errors, msg)
}
