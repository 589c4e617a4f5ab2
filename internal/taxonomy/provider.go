package taxonomy

import "github.com/resumatch/resumatch/internal/model"

// Provider maps a raw skill mention to a canonical skill identifier with
// provenance. Implementations (local snapshot, remote service) are
// interchangeable and must be pure: the same mention against the same
// taxonomy version always yields the same mapping.
type Provider interface {
	// Canonicalize resolves one raw mention. The domain hint may narrow
	// lookup for ambiguous mentions; implementations may ignore it.
	// Unresolved mentions come back with the raw text carried verbatim,
	// provenance source "unresolved" and confidence 0 - never a fabricated
	// identifier, never an error.
	Canonicalize(rawMention, domainHint string) model.CanonicalMapping

	// Version identifies the taxonomy snapshot backing this provider.
	Version() string
}
