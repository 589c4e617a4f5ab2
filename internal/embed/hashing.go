package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
)

const defaultHashingDim = 64

// Token pattern keeps tech spellings like c++, c# and node.js meaningful.
var tokenPattern = regexp.MustCompile(`[a-z0-9\+#\.]+`)

// HashingProvider is a deterministic, offline embedding backend using the
// hashing trick: each token increments one bucket chosen by its hash, and the
// vector is L2-normalized. No network, no state, same text always yields the
// same vector - which makes it the backend of choice for tests and for
// air-gapped runs.
type HashingProvider struct {
	dim int
}

// NewHashingProvider creates a hashing provider with the given dimension.
func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = defaultHashingDim
	}
	return &HashingProvider{dim: dim}
}

// Version identifies the hashing scheme and dimension.
func (p *HashingProvider) Version() string {
	return fmt.Sprintf("hashing:%d:v1", p.dim)
}

// Embed computes the hashed bag-of-tokens vector for text.
func (p *HashingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, p.dim)
	for _, token := range tokenPattern.FindAllString(NormalizeText(text), -1) {
		digest := sha256.Sum256([]byte(token))
		idx := int(binary.BigEndian.Uint32(digest[:4])) % p.dim
		if idx < 0 {
			idx += p.dim
		}
		vec[idx]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm <= 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
