package registry

// ProjectID is the unique key under which a repository's configuration is
// stored in the projects document.
type ProjectID = string

// CollectionConfig targets the raw-data search index.
type CollectionConfig struct {
	URL        string `json:"url"`
	RawIndex   string `json:"raw_index"`
	BulkSize   int    `json:"bulk_size"`
	ScrollSize int    `json:"scroll_size"`
	Debug      bool   `json:"debug"`
}

// EnrichmentConfig targets the enriched-data search index.
type EnrichmentConfig struct {
	EnrichedIndex string `json:"enriched_index"`
}

// GeneralConfig holds flags consumed by the downstream dashboards.
type GeneralConfig struct {
	UpdateIndexPatterns bool `json:"update_index_patterns"`
}

// ProjectEntry is the canonical configuration record for one monitored
// repository. The downstream execution service reads these verbatim, so the
// JSON field names are part of the shared contract.
type ProjectEntry struct {
	Backends     []string         `json:"backends"`
	RepoURL      string           `json:"repo_url"`
	ESCollection CollectionConfig `json:"es_collection"`
	ESEnrichment EnrichmentConfig `json:"es_enrichment"`
	General      GeneralConfig    `json:"general"`
}

// Clone returns a deep copy of the entry.
func (e ProjectEntry) Clone() ProjectEntry {
	out := e
	if e.Backends != nil {
		out.Backends = append([]string(nil), e.Backends...)
	}
	return out
}

// Registry is the full content of the projects document.
type Registry map[ProjectID]ProjectEntry

// Clone returns a deep copy of the registry.
func (r Registry) Clone() Registry {
	if r == nil {
		return Registry{}
	}
	out := make(Registry, len(r))
	for id, e := range r {
		out[id] = e.Clone()
	}
	return out
}
