package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resumatch/resumatch/internal/model"
	"github.com/resumatch/resumatch/internal/score"
)

// State of one adjudication pass.
type State string

const (
	StateIdle       State = "idle"
	StateRequested  State = "requested"
	StateValidating State = "validating"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

// Outcome reports how an adjudication ended. Rejection is a recoverable,
// expected result: the deterministic entries stand and Reasons explain why.
type Outcome struct {
	State   State
	Reasons []string
}

// payload is the only shape the wrapper accepts from the model.
type payload struct {
	Confidence  float64      `json:"confidence"`
	Adjustments []adjustment `json:"adjustments"`
}

type adjustment struct {
	ReqID            string   `json:"req_id"`
	ClaimID          string   `json:"claim_id"`
	Confidence       *float64 `json:"confidence"`
	EvidenceStrength *int     `json:"evidence_strength"`
	Rationale        string   `json:"rationale"`
	Citations        []string `json:"citations"`
}

// SafeWrapper runs the Idle -> Requested -> Validating -> {Accepted,
// Rejected} machine around an Adjudicator. Accepted output can only narrow
// or annotate entries that already exist in the deterministic matrix; there
// is no path through which model output becomes a new identifier or a new
// claim.
type SafeWrapper struct {
	adjudicator Adjudicator
	rules       score.LLMRules
	logger      *zap.Logger
}

// NewSafeWrapper creates a wrapper with the given bounds.
func NewSafeWrapper(adjudicator Adjudicator, rules score.LLMRules, logger *zap.Logger) *SafeWrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafeWrapper{
		adjudicator: adjudicator,
		rules:       rules,
		logger:      logger,
	}
}

// AdjudicateRow adjudicates one requirement's entries. On any validation
// failure or timeout the input entries come back unchanged; no error ever
// propagates past this boundary.
func (w *SafeWrapper) AdjudicateRow(ctx context.Context, req model.Requirement, entries []model.MatchEntry, claimTexts map[string]string) ([]model.MatchEntry, Outcome) {
	if w.adjudicator == nil || len(entries) == 0 {
		return entries, Outcome{State: StateIdle}
	}

	request := Request{
		Requirement: req,
		Entries:     entries,
		ClaimTexts:  boundedTexts(entries, claimTexts),
	}

	var reasons []string

	// Bounded retries: malformed payloads get one more chance, then the
	// deterministic result stands. A timed-out or cancelled call is not
	// retried at all; the model already had its full time budget.
	attempts := w.rules.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		raw, err := w.request(ctx, request)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("adjudication %s: request failed: %v", req.ReqID, err))
			w.logger.Warn("adjudication request failed",
				zap.String("req_id", req.ReqID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			continue
		}

		adjusted, err := w.validate(req, entries, raw)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("adjudication %s: rejected: %v", req.ReqID, err))
			w.logger.Warn("adjudication payload rejected",
				zap.String("req_id", req.ReqID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		return adjusted, Outcome{State: StateAccepted, Reasons: reasons}
	}

	reasons = append(reasons, fmt.Sprintf("adjudication %s: falling back to deterministic result", req.ReqID))
	return entries, Outcome{State: StateRejected, Reasons: reasons}
}

// request performs the Requested state: one bounded model call.
func (w *SafeWrapper) request(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.rules.Timeout())
	defer cancel()

	return w.adjudicator.Adjudicate(callCtx, req)
}

// validate performs the Validating state: strict schema parse, id citation
// checks and the narrow-or-annotate rules. Any failure rejects the whole
// payload; nothing is partially trusted.
func (w *SafeWrapper) validate(req model.Requirement, entries []model.MatchEntry, raw string) ([]model.MatchEntry, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}

	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", p.Confidence)
	}
	if p.Confidence < w.rules.AcceptConfidence {
		return nil, fmt.Errorf("confidence %v below acceptance threshold %v", p.Confidence, w.rules.AcceptConfidence)
	}

	known := make(map[string]int, len(entries))
	for i, e := range entries {
		known[e.ClaimID] = i
	}

	adjusted := make([]model.MatchEntry, len(entries))
	copy(adjusted, entries)
	for i := range adjusted {
		adjusted[i].Notes = append([]string(nil), entries[i].Notes...)
	}

	for _, adj := range p.Adjustments {
		if adj.ReqID != req.ReqID {
			return nil, fmt.Errorf("unknown req_id %q", adj.ReqID)
		}
		idx, ok := known[adj.ClaimID]
		if !ok {
			return nil, fmt.Errorf("unknown claim_id %q", adj.ClaimID)
		}

		if adj.Confidence != nil {
			if *adj.Confidence < 0 || *adj.Confidence > 1 {
				return nil, fmt.Errorf("entry confidence %v out of range", *adj.Confidence)
			}
			v := *adj.Confidence
			adjusted[idx].Confidence = &v
		}

		if adj.EvidenceStrength != nil {
			next := *adj.EvidenceStrength
			current := adjusted[idx].EvidenceStrength
			if next > current {
				return nil, fmt.Errorf("raising evidence_strength %d -> %d is forbidden", current, next)
			}
			if next < current {
				// Lowering the deterministic score demands an
				// explicit, citation-backed rationale.
				if strings.TrimSpace(adj.Rationale) == "" {
					return nil, fmt.Errorf("lowering evidence_strength requires a rationale")
				}
				if len(adj.Citations) == 0 {
					return nil, fmt.Errorf("lowering evidence_strength requires citations")
				}
				for _, cited := range adj.Citations {
					if _, ok := known[cited]; !ok {
						return nil, fmt.Errorf("citation references unknown claim_id %q", cited)
					}
				}
				if next < 0 {
					return nil, fmt.Errorf("evidence_strength %d out of range", next)
				}
				adjusted[idx].EvidenceStrength = next
				adjusted[idx].Notes = append(adjusted[idx].Notes,
					fmt.Sprintf("strength lowered %d -> %d: %s (citing %s)",
						current, next, adj.Rationale, strings.Join(adj.Citations, ", ")))
			}
		}

		if adj.Rationale != "" && adjusted[idx].EvidenceStrength == entries[idx].EvidenceStrength {
			adjusted[idx].Notes = append(adjusted[idx].Notes, adj.Rationale)
		}
	}

	return adjusted, nil
}

// boundedTexts restricts the prompt to the candidate claims only.
func boundedTexts(entries []model.MatchEntry, claimTexts map[string]string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if text, ok := claimTexts[e.ClaimID]; ok {
			out[e.ClaimID] = text
		}
	}
	return out
}
