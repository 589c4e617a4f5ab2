package worker

import (
	"context"

	"github.com/resumatch/resumatch/internal/embed"
)

// UnitKind distinguishes the two text-unit sources.
type UnitKind string

const (
	UnitClaim       UnitKind = "claim"
	UnitRequirement UnitKind = "requirement"
)

// EmbedJob embeds one text unit (a claim or a requirement).
type EmbedJob struct {
	UnitID   string
	Kind     UnitKind
	Text     string
	Provider embed.Provider
}

// Execute runs the embedding call.
func (j *EmbedJob) Execute(ctx context.Context) Result {
	vec, err := j.Provider.Embed(ctx, j.Text)
	return &EmbedResult{
		UnitID: j.UnitID,
		Kind:   j.Kind,
		Vector: vec,
		Err:    err,
	}
}

// EmbedResult carries the vector, or the hard failure, for one unit.
type EmbedResult struct {
	UnitID string
	Kind   UnitKind
	Vector []float32
	Err    error
}

// GetError returns the embedding error, if any.
func (r *EmbedResult) GetError() error {
	return r.Err
}

// EmbedAll embeds every unit concurrently and returns vectors keyed by unit
// id, plus the units that failed hard. A failed unit is simply absent from
// the vector map; callers exclude it from the matrix and report it.
func EmbedAll(ctx context.Context, provider embed.Provider, workers int, jobs []EmbedJob) (map[string][]float32, []*EmbedResult) {
	pool := NewPool(ctx, workers)
	pool.Start()

	for i := range jobs {
		job := jobs[i]
		job.Provider = provider
		pool.Submit(&job)
	}

	vectors := make(map[string][]float32, len(jobs))
	var failures []*EmbedResult
	for _, res := range pool.Wait() {
		er := res.(*EmbedResult)
		if er.Err != nil {
			failures = append(failures, er)
			continue
		}
		vectors[er.UnitID] = er.Vector
	}
	return vectors, failures
}
