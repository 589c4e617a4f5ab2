package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resumatch/resumatch/internal/model"
)

// ErrProviderUnavailable marks a hard embedding failure. Callers must exclude
// the affected text unit from the matrix and report it; a zero vector is
// never returned in its place.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// Provider turns a normalized text unit into a fixed-dimension vector.
type Provider interface {
	// Embed returns the vector for one text unit. A failing model call
	// surfaces as an error wrapping ErrProviderUnavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Version identifies the backing model; it is part of the cache key.
	Version() string
}

// NewProvider creates an embedding provider from configuration.
func NewProvider(cfg model.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "hashing", "":
		return NewHashingProvider(defaultHashingDim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, hashing)", cfg.Provider)
	}
}

// NormalizeText produces the canonical form of a text unit for cache keying:
// lowercased with runs of whitespace collapsed. Embedding inputs keep the
// original text; only the key is normalized.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
