// Package match builds the requirement-to-claim MatchMatrix. The build is
// deterministic: fixed inputs, taxonomy version, provider version and
// configuration always produce byte-identical output.
package match

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/resumatch/resumatch/internal/embed"
	"github.com/resumatch/resumatch/internal/model"
	"github.com/resumatch/resumatch/internal/score"
)

// Builder computes the MatchMatrix for one resume/JD pair. Requirements are
// scored independently and concurrently against the shared read-only vector
// set; the configuration is immutable, so one process can run several
// builders with different configs side by side.
type Builder struct {
	cfg     *score.Config
	scorer  *score.Scorer
	workers int
}

// NewBuilder creates a builder over the given scoring configuration.
func NewBuilder(cfg *score.Config, workers int) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{
		cfg:     cfg,
		scorer:  score.NewScorer(cfg),
		workers: workers,
	}
}

// Build computes the matrix from pre-embedded text units. Vectors are keyed
// by unit id (req_id / claim_id); a unit absent from the map had a hard
// embedding failure upstream and is skipped here. Cancellation between
// requirements is safe: the returned matrix holds every fully scored row and
// is flagged Incomplete.
func (b *Builder) Build(ctx context.Context, reqs []model.Requirement, claims []model.Claim, vectors map[string][]float32) *model.MatchMatrix {
	matrix := &model.MatchMatrix{
		Matches: make(map[string][]model.MatchEntry, len(reqs)),
	}
	for _, req := range reqs {
		if req.Mandatory() {
			matrix.MustReqIDs = append(matrix.MustReqIDs, req.ReqID)
		} else {
			matrix.NiceReqIDs = append(matrix.NiceReqIDs, req.ReqID)
		}
	}

	type row struct {
		reqID   string
		entries []model.MatchEntry
	}

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		sem        = make(chan struct{}, b.workers)
		rows       = make([]*row, 0, len(reqs))
		incomplete bool
	)

	for _, req := range reqs {
		// Check between requirements so a cancelled run stops cleanly
		// with the rows scored so far. Workers may still be flagging the
		// same cancellation, so the write stays under the lock.
		if ctx.Err() != nil {
			mu.Lock()
			incomplete = true
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(req model.Requirement) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				mu.Lock()
				incomplete = true
				mu.Unlock()
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			entries := b.scoreRequirement(req, claims, vectors)
			mu.Lock()
			rows = append(rows, &row{reqID: req.ReqID, entries: entries})
			mu.Unlock()
		}(req)
	}
	wg.Wait()

	matrix.Incomplete = incomplete
	for _, r := range rows {
		matrix.Matches[r.reqID] = r.entries
	}
	// A requirement with no surviving entries gets an explicit empty row:
	// "missing" is a result, not an absence of data. Rows a cancelled run
	// never reached stay absent so partial results are distinguishable.
	if !matrix.Incomplete {
		for _, req := range reqs {
			if _, ok := matrix.Matches[req.ReqID]; !ok {
				matrix.Matches[req.ReqID] = []model.MatchEntry{}
			}
		}
	}

	return matrix
}

// scoreRequirement ranks all claims against one requirement.
func (b *Builder) scoreRequirement(req model.Requirement, claims []model.Claim, vectors map[string][]float32) []model.MatchEntry {
	reqVec, ok := vectors[req.ReqID]
	if !ok {
		// The requirement itself failed to embed; the engine reports it.
		return []model.MatchEntry{}
	}

	entries := make([]model.MatchEntry, 0, len(claims))
	for _, claim := range claims {
		claimVec, ok := vectors[claim.ClaimID]
		if !ok {
			continue
		}

		// Similarity always runs on raw text embeddings; canonical ids
		// only boost and gate, never replace the signal.
		similarity := embed.Cosine(reqVec, claimVec)
		if req.SharedSkill(claim) {
			similarity = math.Min(1, similarity+b.cfg.Matching.SkillBoost)
		}
		similarity = round4(similarity)

		if !b.scorer.Admissible(req, claim, similarity) {
			continue
		}

		entries = append(entries, model.MatchEntry{
			ReqID:            req.ReqID,
			ClaimID:          claim.ClaimID,
			Similarity:       similarity,
			EvidenceStrength: b.scorer.Score(req, claim, similarity),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})

	if len(entries) > b.cfg.Matching.TopK {
		entries = entries[:b.cfg.Matching.TopK]
	}
	return entries
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
