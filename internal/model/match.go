package model

// MatchEntry records how well one claim substantiates one requirement.
// Similarity is in [0,1], EvidenceStrength in {0,1,2,3}. For a given req_id
// there is at most one entry per claim_id.
type MatchEntry struct {
	ReqID            string   `json:"req_id"`
	ClaimID          string   `json:"claim_id"`
	Similarity       float64  `json:"similarity"`
	EvidenceStrength int      `json:"evidence_strength"`
	Confidence       *float64 `json:"confidence,omitempty"` // Set only by accepted LLM adjudication
	Notes            []string `json:"notes,omitempty"`      // Annotations from accepted adjudication
}

// EvidenceStrength levels. Derived deterministically by the scorer, never by
// the language model.
const (
	StrengthMissing   = 0 // Below floor, or no shared skill and below the cross-domain threshold
	StrengthMentioned = 1 // Skill signal present but no metric/scope/ownership
	StrengthEvidenced = 2 // Skill signal plus some supporting signals
	StrengthStrong    = 3 // Skill signal plus metric, scope and ownership
)

// Less orders entries for a single requirement: higher evidence strength
// first, then higher similarity, then lexicographically smaller claim_id.
// The ordering is total, which keeps matrix output reproducible.
func (e MatchEntry) Less(other MatchEntry) bool {
	if e.EvidenceStrength != other.EvidenceStrength {
		return e.EvidenceStrength > other.EvidenceStrength
	}
	if e.Similarity != other.Similarity {
		return e.Similarity > other.Similarity
	}
	return e.ClaimID < other.ClaimID
}

// MatchMatrix is the full set of requirement-to-claim match entries for one
// resume/JD pair. Built fresh per pair and never mutated after construction;
// the SafeLLM wrapper works on a copy.
type MatchMatrix struct {
	Matches    map[string][]MatchEntry `json:"matches"`                // req_id -> ordered entries (empty slice = missing)
	MustReqIDs []string                `json:"must_req_ids,omitempty"` // Mandatory requirements, input order
	NiceReqIDs []string                `json:"nice_req_ids,omitempty"` // Optional requirements, input order
	Incomplete bool                    `json:"incomplete,omitempty"`   // Set when a build was cancelled mid-run
}

// Clone returns a deep copy safe for adjudication to annotate.
func (m *MatchMatrix) Clone() *MatchMatrix {
	out := &MatchMatrix{
		Matches:    make(map[string][]MatchEntry, len(m.Matches)),
		MustReqIDs: append([]string(nil), m.MustReqIDs...),
		NiceReqIDs: append([]string(nil), m.NiceReqIDs...),
		Incomplete: m.Incomplete,
	}
	for reqID, entries := range m.Matches {
		copied := make([]MatchEntry, len(entries))
		for i, e := range entries {
			copied[i] = e
			if e.Confidence != nil {
				v := *e.Confidence
				copied[i].Confidence = &v
			}
			copied[i].Notes = append([]string(nil), e.Notes...)
		}
		out.Matches[reqID] = copied
	}
	return out
}

// Entry returns a pointer to the entry for (reqID, claimID), or nil.
func (m *MatchMatrix) Entry(reqID, claimID string) *MatchEntry {
	entries, ok := m.Matches[reqID]
	if !ok {
		return nil
	}
	for i := range entries {
		if entries[i].ClaimID == claimID {
			return &entries[i]
		}
	}
	return nil
}
