package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/resumatch/resumatch/internal/model"
)

// Confidence assigned per mapping source. Exact hits are certain, synonym
// hits slightly less so; unresolved mentions always carry zero.
const (
	exactConfidence   = 1.0
	synonymConfidence = 0.9
)

// snapshotFile is the on-disk shape of a taxonomy snapshot.
type snapshotFile struct {
	Version string `yaml:"version"`
	// Skills maps canonical skill id -> preferred label. The lowercased
	// label is the exact-lookup key.
	Skills map[string]string `yaml:"skills"`
	// Synonyms maps alias -> canonical skill id.
	Synonyms map[string]string `yaml:"synonyms"`
	// Domains optionally scopes aliases to a domain hint, e.g.
	// "finance/ml" -> canonical id, consulted before the global tables.
	Domains map[string]map[string]string `yaml:"domains"`
}

// Local is an in-memory taxonomy snapshot loaded once from YAML and never
// mutated. Canonicalize is a pure function over it.
type Local struct {
	version  string
	exact    map[string]string            // lowercased label -> canonical id
	synonyms map[string]string            // lowercased alias -> canonical id
	domains  map[string]map[string]string // domain -> alias -> canonical id
}

// LoadLocal reads a taxonomy snapshot from path.
func LoadLocal(path string) (*Local, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy snapshot: %w", err)
	}

	var file snapshotFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy snapshot %s: %w", path, err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("taxonomy snapshot %s: missing version", path)
	}

	return newLocal(file), nil
}

// NewLocal builds a snapshot directly from tables (used by tests and by
// callers that embed a snapshot).
func NewLocal(version string, skills map[string]string, synonyms map[string]string) *Local {
	return newLocal(snapshotFile{Version: version, Skills: skills, Synonyms: synonyms})
}

func newLocal(file snapshotFile) *Local {
	t := &Local{
		version:  file.Version,
		exact:    make(map[string]string, len(file.Skills)),
		synonyms: make(map[string]string, len(file.Synonyms)),
		domains:  make(map[string]map[string]string, len(file.Domains)),
	}
	for id, label := range file.Skills {
		t.exact[normalizeMention(label)] = id
	}
	for alias, id := range file.Synonyms {
		t.synonyms[normalizeMention(alias)] = id
	}
	for domain, table := range file.Domains {
		scoped := make(map[string]string, len(table))
		for alias, id := range table {
			scoped[normalizeMention(alias)] = id
		}
		t.domains[strings.ToLower(strings.TrimSpace(domain))] = scoped
	}
	return t
}

// Version identifies the loaded snapshot.
func (t *Local) Version() string {
	return t.version
}

// Canonicalize resolves a raw mention: domain-scoped alias first when a hint
// is given, then the exact table, then the global synonym table. A miss
// returns the mention verbatim with zero-confidence provenance.
func (t *Local) Canonicalize(rawMention, domainHint string) model.CanonicalMapping {
	key := normalizeMention(rawMention)

	if domainHint != "" {
		if table, ok := t.domains[strings.ToLower(strings.TrimSpace(domainHint))]; ok {
			if id, ok := table[key]; ok {
				return model.CanonicalMapping{
					RawMention: rawMention,
					SkillID:    id,
					Provenance: model.Provenance{Source: model.MappingSynonym, Confidence: synonymConfidence},
				}
			}
		}
	}

	if id, ok := t.exact[key]; ok {
		return model.CanonicalMapping{
			RawMention: rawMention,
			SkillID:    id,
			Provenance: model.Provenance{Source: model.MappingExact, Confidence: exactConfidence},
		}
	}

	if id, ok := t.synonyms[key]; ok {
		return model.CanonicalMapping{
			RawMention: rawMention,
			SkillID:    id,
			Provenance: model.Provenance{Source: model.MappingSynonym, Confidence: synonymConfidence},
		}
	}

	// Unresolved: the original text survives verbatim so it still
	// participates in embedding similarity downstream.
	return model.CanonicalMapping{
		RawMention: rawMention,
		SkillID:    rawMention,
		Unresolved: true,
		Provenance: model.Provenance{Source: model.MappingUnresolved, Confidence: 0},
	}
}

func normalizeMention(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
