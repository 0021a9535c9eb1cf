// Package descriptor turns inbound repository descriptors into canonical
// project entries. Descriptors carry an explicit kind discriminator; the
// normalizer never guesses the shape from the keys present.
package descriptor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/minegate/minegate/internal/registry"
)

// Descriptor kinds.
const (
	KindRepository = "repository"
	KindRegistry   = "registry"
)

// DefaultProjectID is used when a repository descriptor has no usable title.
const DefaultProjectID = "default"

// DefaultBackend is the source-control backend assigned to single-repository
// registrations.
const DefaultBackend = "git"

// ErrInvalid marks a descriptor the normalizer refuses. Callers map it to a
// client error; nothing has been mutated when it is returned.
var ErrInvalid = errors.New("invalid repository descriptor")

// Repository is the single-repository descriptor shape: a display title and
// the clone URL.
type Repository struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Descriptor is the inbound registration payload. Exactly one of Repository
// or Registry must be set, selected by Kind.
type Descriptor struct {
	Kind       string                           `json:"kind"`
	Repository *Repository                      `json:"repository,omitempty"`
	Registry   map[string]registry.ProjectEntry `json:"registry,omitempty"`
}

// Defaults carries the environment-provided values the normalizer needs.
type Defaults struct {
	// ESURL is the search-index base URL written into every collection
	// config.
	ESURL string
}

// Normalize validates d and returns the canonical entries to merge, keyed by
// project identifier. It is a pure function of the descriptor and defaults.
func Normalize(d Descriptor, defaults Defaults) (map[registry.ProjectID]registry.ProjectEntry, error) {
	switch d.Kind {
	case KindRepository:
		if d.Registry != nil {
			return nil, fmt.Errorf("%w: kind %q must not carry a registry", ErrInvalid, d.Kind)
		}
		if d.Repository == nil {
			return nil, fmt.Errorf("%w: kind %q requires a repository", ErrInvalid, d.Kind)
		}
		return normalizeRepository(*d.Repository, defaults)
	case KindRegistry:
		if d.Repository != nil {
			return nil, fmt.Errorf("%w: kind %q must not carry a repository", ErrInvalid, d.Kind)
		}
		if len(d.Registry) == 0 {
			return nil, fmt.Errorf("%w: kind %q requires a non-empty registry", ErrInvalid, d.Kind)
		}
		return normalizeRegistry(d.Registry)
	case "":
		return nil, fmt.Errorf("%w: missing kind", ErrInvalid)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalid, d.Kind)
	}
}

func normalizeRepository(r Repository, defaults Defaults) (map[registry.ProjectID]registry.ProjectEntry, error) {
	if r.URL == "" {
		return nil, fmt.Errorf("%w: repository url is required", ErrInvalid)
	}

	id := Slug(r.Title)
	if id == "" {
		id = DefaultProjectID
	}

	entry := registry.ProjectEntry{
		Backends: []string{DefaultBackend},
		RepoURL:  r.URL,
		ESCollection: registry.CollectionConfig{
			URL:        defaults.ESURL,
			RawIndex:   id + "_raw",
			BulkSize:   100,
			ScrollSize: 100,
		},
		ESEnrichment: registry.EnrichmentConfig{
			EnrichedIndex: id + "_enriched",
		},
		General: registry.GeneralConfig{
			UpdateIndexPatterns: true,
		},
	}
	return map[registry.ProjectID]registry.ProjectEntry{id: entry}, nil
}

// normalizeRegistry validates a batch all-or-nothing: one bad entry rejects
// the whole descriptor.
func normalizeRegistry(batch map[string]registry.ProjectEntry) (map[registry.ProjectID]registry.ProjectEntry, error) {
	// Deterministic validation order so the first error is stable
	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[registry.ProjectID]registry.ProjectEntry, len(batch))
	for _, id := range ids {
		e := batch[id]
		if id == "" {
			return nil, fmt.Errorf("%w: empty project identifier", ErrInvalid)
		}
		if e.RepoURL == "" {
			return nil, fmt.Errorf("%w: project %q has no repo_url", ErrInvalid, id)
		}
		if len(e.Backends) == 0 {
			e.Backends = []string{DefaultBackend}
		}
		out[id] = e
	}
	return out, nil
}
