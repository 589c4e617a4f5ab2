package match

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/resumatch/resumatch/internal/embed"
	"github.com/resumatch/resumatch/internal/model"
	"github.com/resumatch/resumatch/internal/score"
)

func testConfig() *score.Config {
	return &score.Config{
		Matching: score.MatchingConfig{
			SimilarityFloor:  0.35,
			CrossDomainFloor: 0.55,
			SkillBoost:       0.2,
			TopK:             3,
		},
		Evidence: score.EvidenceConfig{
			EvidencedMinSignals: 1,
			StrongMinSignals:    3,
		},
		LLM: score.LLMRules{AcceptConfidence: 0.5, MaxRetries: 1, TimeoutSeconds: 20},
	}
}

func embedAll(t *testing.T, reqs []model.Requirement, claims []model.Claim) map[string][]float32 {
	t.Helper()
	provider := embed.NewHashingProvider(64)
	vectors := make(map[string][]float32)
	for _, r := range reqs {
		vec, err := provider.Embed(context.Background(), r.Text)
		if err != nil {
			t.Fatal(err)
		}
		vectors[r.ReqID] = vec
	}
	for _, c := range claims {
		vec, err := provider.Embed(context.Background(), c.Text)
		if err != nil {
			t.Fatal(err)
		}
		vectors[c.ClaimID] = vec
	}
	return vectors
}

func TestBuilder_StrongEvidenceTopEntry(t *testing.T) {
	reqs := []model.Requirement{{
		ReqID:             "R1",
		Text:              "5 years of distributed systems experience",
		CanonicalSkillIDs: []string{"S.DIST"},
		Priority:          model.PriorityMust,
	}}
	claims := []model.Claim{
		{
			ClaimID:           "C7",
			Text:              "Led a team of 4 to redesign the distributed order-processing pipeline, cutting P99 latency by 40%",
			CanonicalSkillIDs: []string{"S.DIST"},
			MetricPresent:     true,
			ScopePresent:      true,
			OwnershipPresent:  true,
		},
		{
			ClaimID: "C2",
			Text:    "Organized the annual office party",
		},
	}

	builder := NewBuilder(testConfig(), 4)
	matrix := builder.Build(context.Background(), reqs, claims, embedAll(t, reqs, claims))

	entries := matrix.Matches["R1"]
	if len(entries) == 0 {
		t.Fatal("expected R1 to match C7")
	}
	top := entries[0]
	if top.ClaimID != "C7" {
		t.Errorf("expected C7 as top entry, got %s", top.ClaimID)
	}
	if top.EvidenceStrength != model.StrengthStrong {
		t.Errorf("expected strength 3, got %d", top.EvidenceStrength)
	}
	if top.Similarity < 0.35 {
		t.Errorf("expected similarity above floor, got %v", top.Similarity)
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	reqs := []model.Requirement{
		{ReqID: "R1", Text: "Kubernetes administration", CanonicalSkillIDs: []string{"S.K8S"}, Priority: model.PriorityMust},
		{ReqID: "R2", Text: "Go backend development", CanonicalSkillIDs: []string{"S.GO"}},
		{ReqID: "R3", Text: "Incident management on call experience"},
	}
	claims := []model.Claim{
		{ClaimID: "C1", Text: "Administered Kubernetes clusters for 40 services", CanonicalSkillIDs: []string{"S.K8S"}, MetricPresent: true},
		{ClaimID: "C2", Text: "Built Go microservices", CanonicalSkillIDs: []string{"S.GO"}},
		{ClaimID: "C3", Text: "Ran on call incident management rotations", ScopePresent: true},
		{ClaimID: "C4", Text: "Maintained Kubernetes ingress and Go tooling", CanonicalSkillIDs: []string{"S.K8S", "S.GO"}},
	}
	vectors := embedAll(t, reqs, claims)

	builder := NewBuilder(testConfig(), 4)
	first := builder.Build(context.Background(), reqs, claims, vectors)

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		again := builder.Build(context.Background(), reqs, claims, vectors)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: matrix differs", i)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if string(firstJSON) != string(againJSON) {
			t.Fatalf("run %d: serialized matrix not byte-identical", i)
		}
	}
}

func TestBuilder_CitationValidity(t *testing.T) {
	reqs := []model.Requirement{
		{ReqID: "R1", Text: "Kubernetes administration", CanonicalSkillIDs: []string{"S.K8S"}},
		{ReqID: "R2", Text: "SQL tuning"},
	}
	claims := []model.Claim{
		{ClaimID: "C1", Text: "Kubernetes cluster administration", CanonicalSkillIDs: []string{"S.K8S"}},
		{ClaimID: "C2", Text: "Tuned SQL queries", MetricPresent: true},
	}

	matrix := NewBuilder(testConfig(), 2).Build(context.Background(), reqs, claims, embedAll(t, reqs, claims))

	knownReqs := map[string]bool{"R1": true, "R2": true}
	knownClaims := map[string]bool{"C1": true, "C2": true}

	for reqID, entries := range matrix.Matches {
		if !knownReqs[reqID] {
			t.Errorf("matrix references unknown req_id %q", reqID)
		}
		seen := map[string]bool{}
		for _, e := range entries {
			if !knownClaims[e.ClaimID] {
				t.Errorf("entry references unknown claim_id %q", e.ClaimID)
			}
			if e.ReqID != reqID {
				t.Errorf("entry req_id %q disagrees with row %q", e.ReqID, reqID)
			}
			if seen[e.ClaimID] {
				t.Errorf("duplicate claim_id %q for req %q", e.ClaimID, reqID)
			}
			seen[e.ClaimID] = true
		}
	}
}

func TestBuilder_EmptyRowForUnmatchedRequirement(t *testing.T) {
	reqs := []model.Requirement{{
		ReqID:    "R1",
		Text:     "Haskell compiler internals",
		Priority: model.PriorityMust,
	}}
	claims := []model.Claim{{
		ClaimID: "C1",
		Text:    "Organized the annual charity bake sale",
	}}

	matrix := NewBuilder(testConfig(), 2).Build(context.Background(), reqs, claims, embedAll(t, reqs, claims))

	entries, ok := matrix.Matches["R1"]
	if !ok {
		t.Fatal("unmatched requirement must yield an explicit empty row, not absence")
	}
	if len(entries) != 0 {
		t.Errorf("expected empty row, got %d entries", len(entries))
	}
	if len(matrix.MustReqIDs) != 1 || matrix.MustReqIDs[0] != "R1" {
		t.Errorf("mandatory requirement not tracked: %v", matrix.MustReqIDs)
	}
}

func TestBuilder_TopKLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Matching.TopK = 2

	reqs := []model.Requirement{{ReqID: "R1", Text: "Go development", CanonicalSkillIDs: []string{"S.GO"}}}
	var claims []model.Claim
	for _, id := range []string{"C1", "C2", "C3", "C4"} {
		claims = append(claims, model.Claim{
			ClaimID:           id,
			Text:              "Go development work on services " + id,
			CanonicalSkillIDs: []string{"S.GO"},
		})
	}

	matrix := NewBuilder(cfg, 2).Build(context.Background(), reqs, claims, embedAll(t, reqs, claims))
	if got := len(matrix.Matches["R1"]); got > 2 {
		t.Errorf("expected at most 2 entries, got %d", got)
	}
}

func TestBuilder_SkippedFailedEmbeddings(t *testing.T) {
	reqs := []model.Requirement{{ReqID: "R1", Text: "Go development", CanonicalSkillIDs: []string{"S.GO"}}}
	claims := []model.Claim{
		{ClaimID: "C1", Text: "Go development experience", CanonicalSkillIDs: []string{"S.GO"}},
		{ClaimID: "C2", Text: "More Go development", CanonicalSkillIDs: []string{"S.GO"}},
	}
	vectors := embedAll(t, reqs, claims)
	delete(vectors, "C2") // simulate a hard embedding failure upstream

	matrix := NewBuilder(testConfig(), 2).Build(context.Background(), reqs, claims, vectors)
	for _, e := range matrix.Matches["R1"] {
		if e.ClaimID == "C2" {
			t.Error("claim without a vector must be excluded, not scored 0")
		}
	}
}

func TestBuilder_MidRunCancellation(t *testing.T) {
	reqs := make([]model.Requirement, 2000)
	for i := range reqs {
		reqs[i] = model.Requirement{
			ReqID: fmt.Sprintf("R%04d", i),
			Text:  fmt.Sprintf("Go development on service %d", i),
		}
	}
	claims := []model.Claim{
		{ClaimID: "C1", Text: "Go development experience"},
		{ClaimID: "C2", Text: "Built Go microservices"},
	}
	vectors := embedAll(t, reqs, claims)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(time.Millisecond)
		cancel()
	}()

	matrix := NewBuilder(testConfig(), 1).Build(ctx, reqs, claims, vectors)

	// A run that was cut short must say so; a complete run must have every
	// row. Either way no row may be corrupt.
	if !matrix.Incomplete && len(matrix.Matches) != len(reqs) {
		t.Errorf("complete matrix missing rows: %d of %d", len(matrix.Matches), len(reqs))
	}
	for reqID, entries := range matrix.Matches {
		for _, e := range entries {
			if e.ReqID != reqID {
				t.Errorf("corrupt row: entry %q in row %q", e.ReqID, reqID)
			}
		}
	}
}

func TestBuilder_CancellationYieldsIncompletePartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reqs := []model.Requirement{
		{ReqID: "R1", Text: "Go development"},
		{ReqID: "R2", Text: "SQL tuning"},
	}
	claims := []model.Claim{{ClaimID: "C1", Text: "Go development"}}

	matrix := NewBuilder(testConfig(), 1).Build(ctx, reqs, claims, embedAll(t, reqs, claims))
	if !matrix.Incomplete {
		t.Error("cancelled build must be flagged incomplete")
	}
	// Whatever rows exist must still be structurally valid.
	for reqID, entries := range matrix.Matches {
		for _, e := range entries {
			if e.ReqID != reqID {
				t.Errorf("corrupt partial row: %q vs %q", e.ReqID, reqID)
			}
		}
	}
}
