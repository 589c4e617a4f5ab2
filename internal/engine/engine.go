// Package engine orchestrates the matching run for one resume/JD pair:
// canonicalize skill mentions, embed text units, build the deterministic
// MatchMatrix, optionally adjudicate ambiguous rows, and emit the ToolOutput
// envelope. The envelope is the only object exposed past this boundary.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resumatch/resumatch/internal/embed"
	"github.com/resumatch/resumatch/internal/llm"
	"github.com/resumatch/resumatch/internal/match"
	"github.com/resumatch/resumatch/internal/model"
	"github.com/resumatch/resumatch/internal/score"
	"github.com/resumatch/resumatch/internal/taxonomy"
	"github.com/resumatch/resumatch/internal/worker"
)

// Confidence penalties applied while assembling the envelope. Tuned so a
// single soft issue leaves a usable result and hard failures dominate.
const (
	penaltyEmbedFailure   = 0.2
	penaltyEmptyMandatory = 0.15
	penaltyIncomplete     = 0.3
	penaltyUnresolved     = 0.05
)

// Engine wires the matching components for one configuration. Construct once
// and reuse; all state is immutable or internally synchronized, so one
// process can run several engines with different configurations.
type Engine struct {
	taxonomy taxonomy.Provider
	embedder embed.Provider
	builder  *match.Builder
	wrapper  *llm.SafeWrapper
	cfg      *score.Config
	workers  int
	logger   *zap.Logger
}

// New creates an engine. A nil adjudicator disables the LLM layer entirely;
// the deterministic matrix is then the final result.
func New(tax taxonomy.Provider, embedder embed.Provider, cfg *score.Config, adjudicator llm.Adjudicator, workers int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		taxonomy: tax,
		embedder: embedder,
		builder:  match.NewBuilder(cfg, workers),
		wrapper:  llm.NewSafeWrapper(adjudicator, cfg.LLM, logger),
		cfg:      cfg,
		workers:  workers,
		logger:   logger,
	}
}

// Match scores one resume against one JD and returns the envelope. It never
// returns an error: every failure mode is folded into the envelope's errors,
// confidence and needs_user_input fields.
func (e *Engine) Match(ctx context.Context, jd model.NormalizedJD, resume model.NormalizedResume) *model.ToolOutput {
	out := &model.ToolOutput{
		RunID:             uuid.NewString(),
		GeneratedAt:       time.Now().UTC(),
		Confidence:        1,
		ConfidenceReasons: []string{},
		Errors:            []string{},
		TaxonomyVersion:   e.taxonomy.Version(),
		EmbeddingVersion:  e.embedder.Version(),
	}
	penalty := 0.0

	reqs, claims := e.canonicalize(jd, resume, out, &penalty)

	vectors, failedUnits := e.embedUnits(ctx, reqs, claims)
	mandatory := make(map[string]bool, len(reqs))
	claimByID := make(map[string]model.Claim, len(claims))
	for _, r := range reqs {
		mandatory[r.ReqID] = r.Mandatory()
	}
	for _, c := range claims {
		claimByID[c.ClaimID] = c
	}
	for _, fail := range failedUnits {
		out.AddError(fmt.Sprintf("embedding unavailable for %s %s: %v", fail.Kind, fail.UnitID, fail.Err))
		penalty += penaltyEmbedFailure
		finding := model.Finding{Note: "text unit excluded from matrix: embedding provider unavailable"}
		if fail.Kind == worker.UnitRequirement {
			finding.ReqID = fail.UnitID
			if mandatory[fail.UnitID] {
				out.NeedsUserInput = true
			}
		} else {
			finding.ClaimID = fail.UnitID
			if c, ok := claimByID[fail.UnitID]; ok && !c.Evidence.Empty() {
				span := c.Evidence
				finding.Evidence = &span
			}
		}
		out.Findings = append(out.Findings, finding)
		e.logger.Error("embedding failed",
			zap.String("kind", string(fail.Kind)),
			zap.String("unit_id", fail.UnitID),
			zap.Error(fail.Err))
	}

	matrix := e.builder.Build(ctx, reqs, claims, vectors)
	if matrix.Incomplete {
		out.AddReason("matching run cancelled before completion; partial matrix returned")
		penalty += penaltyIncomplete
	}

	e.flagEmptyMandatoryRows(reqs, matrix, out, &penalty)

	matrix = e.adjudicate(ctx, reqs, claims, matrix, out)

	out.Matrix = matrix
	out.Confidence = clamp01(1 - penalty)
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// The envelope still goes out; the matrix is flagged above.
		e.logger.Warn("matching run interrupted", zap.String("run_id", out.RunID))
	}

	e.logger.Info("matching run complete",
		zap.String("run_id", out.RunID),
		zap.Int("requirements", len(reqs)),
		zap.Int("claims", len(claims)),
		zap.Float64("confidence", out.Confidence),
		zap.Bool("needs_user_input", out.NeedsUserInput))

	return out
}

// canonicalize resolves raw skill mentions on working copies of the inputs.
// Unresolved mentions stay evidence-bearing: they participate in embedding
// similarity, surface as confidence reasons and never block matching.
func (e *Engine) canonicalize(jd model.NormalizedJD, resume model.NormalizedResume, out *model.ToolOutput, penalty *float64) ([]model.Requirement, []model.Claim) {
	unresolvedSeen := map[string]bool{}
	var unresolved []string

	resolve := func(mentions, existing []string, hint string) []string {
		ids := append([]string(nil), existing...)
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}
		for _, mention := range mentions {
			mapping := e.taxonomy.Canonicalize(mention, hint)
			if mapping.Unresolved {
				if !unresolvedSeen[mapping.RawMention] {
					unresolvedSeen[mapping.RawMention] = true
					unresolved = append(unresolved, mapping.RawMention)
				}
				continue
			}
			if !seen[mapping.SkillID] {
				seen[mapping.SkillID] = true
				ids = append(ids, mapping.SkillID)
			}
		}
		return ids
	}

	reqs := make([]model.Requirement, len(jd.Requirements))
	for i, r := range jd.Requirements {
		reqs[i] = r
		reqs[i].CanonicalSkillIDs = resolve(r.ExtractedSkills, r.CanonicalSkillIDs, jd.Domain)
	}
	claims := make([]model.Claim, len(resume.Claims))
	for i, c := range resume.Claims {
		claims[i] = c
		claims[i].CanonicalSkillIDs = resolve(c.ExtractedSkills, c.CanonicalSkillIDs, resume.Domain)
	}

	sort.Strings(unresolved)
	for _, mention := range unresolved {
		out.AddReason(fmt.Sprintf("unresolved taxonomy mapping for %q; matched on text similarity only", mention))
		*penalty += penaltyUnresolved
	}

	return reqs, claims
}

// embedUnits embeds every requirement and claim concurrently through the
// shared cache-backed provider.
func (e *Engine) embedUnits(ctx context.Context, reqs []model.Requirement, claims []model.Claim) (map[string][]float32, []*worker.EmbedResult) {
	jobs := make([]worker.EmbedJob, 0, len(reqs)+len(claims))
	for _, r := range reqs {
		jobs = append(jobs, worker.EmbedJob{UnitID: r.ReqID, Kind: worker.UnitRequirement, Text: r.Text})
	}
	for _, c := range claims {
		jobs = append(jobs, worker.EmbedJob{UnitID: c.ClaimID, Kind: worker.UnitClaim, Text: c.Text})
	}

	vectors, failures := worker.EmbedAll(ctx, e.embedder, e.workers, jobs)

	// Deterministic ordering for reporting.
	sort.Slice(failures, func(i, j int) bool { return failures[i].UnitID < failures[j].UnitID })
	return vectors, failures
}

// flagEmptyMandatoryRows turns empty rows on mandatory requirements into
// needs_user_input plus a traceable finding.
func (e *Engine) flagEmptyMandatoryRows(reqs []model.Requirement, matrix *model.MatchMatrix, out *model.ToolOutput, penalty *float64) {
	for _, req := range reqs {
		entries, ok := matrix.Matches[req.ReqID]
		if !ok || len(entries) > 0 {
			continue
		}
		if req.Mandatory() {
			out.NeedsUserInput = true
			out.AddReason(fmt.Sprintf("mandatory requirement %s has no supporting claims", req.ReqID))
			*penalty += penaltyEmptyMandatory
		} else {
			out.AddReason(fmt.Sprintf("requirement %s has no supporting claims", req.ReqID))
		}
		out.Findings = append(out.Findings, model.Finding{
			ReqID: req.ReqID,
			Note:  "no claim above the similarity floor",
		})
	}
}

// adjudicate sends ambiguous rows through the SafeLLM wrapper. A row is
// ambiguous when its top entry sits inside [floor, cross-domain threshold):
// strong rows need no second opinion and empty rows offer nothing to refine.
// The deterministic matrix is never mutated; adjudication works on a clone.
func (e *Engine) adjudicate(ctx context.Context, reqs []model.Requirement, claims []model.Claim, matrix *model.MatchMatrix, out *model.ToolOutput) *model.MatchMatrix {
	if e.wrapper == nil {
		return matrix
	}

	claimTexts := make(map[string]string, len(claims))
	for _, c := range claims {
		claimTexts[c.ClaimID] = c.Text
	}

	adjudicated := matrix.Clone()
	touched := false
	for _, req := range reqs {
		entries := adjudicated.Matches[req.ReqID]
		if len(entries) == 0 {
			continue
		}
		top := entries[0].Similarity
		if top >= e.cfg.Matching.CrossDomainFloor || top < e.cfg.Matching.SimilarityFloor {
			continue
		}

		refined, outcome := e.wrapper.AdjudicateRow(ctx, req, entries, claimTexts)
		for _, reason := range outcome.Reasons {
			out.AddReason(reason)
		}
		switch outcome.State {
		case llm.StateAccepted:
			adjudicated.Matches[req.ReqID] = refined
			touched = true
			original := make(map[string]int, len(entries))
			for _, e := range entries {
				original[e.ClaimID] = e.EvidenceStrength
			}
			for _, entry := range refined {
				lowered := entry.EvidenceStrength < original[entry.ClaimID]
				for _, note := range entry.Notes {
					out.Findings = append(out.Findings, model.Finding{
						ReqID:   entry.ReqID,
						ClaimID: entry.ClaimID,
						Note:    note,
					})
					// A lowered deterministic score must be explainable
					// from the envelope alone.
					if lowered {
						out.AddReason(fmt.Sprintf("adjudication %s/%s: %s", entry.ReqID, entry.ClaimID, note))
					}
				}
			}
		case llm.StateRejected:
			// Deterministic entries stand; reasons already recorded.
		}
	}

	if !touched {
		return matrix
	}
	return adjudicated
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
