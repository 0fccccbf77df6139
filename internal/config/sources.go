package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source kinds. News sources get keyword categorization; flight and permit
// payloads carry no prose, so their kind doubles as the event category.
const (
	KindNews   = "news"
	KindFlight = "flight"
	KindPermit = "permit"
)

// Source declares one known feed in the sources file.
type Source struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
	URL  string `yaml:"url,omitempty"`
}

// Registry maps source identifiers to their declared kind. Items from
// undeclared sources are treated as news.
type Registry struct {
	sources map[string]Source
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources parses the YAML sources file at path. An empty path yields an
// empty registry.
func LoadSources(path string) (*Registry, error) {
	reg := &Registry{sources: make(map[string]Source)}
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	for _, s := range file.Sources {
		if s.ID == "" {
			return nil, fmt.Errorf("sources file: source with empty id")
		}
		if s.Kind == "" {
			s.Kind = KindNews
		}
		reg.sources[s.ID] = s
	}
	return reg, nil
}

// Kind returns the declared kind for a source id, defaulting to news.
func (r *Registry) Kind(sourceID string) string {
	if s, ok := r.sources[sourceID]; ok {
		return s.Kind
	}
	return KindNews
}

// Len reports the number of declared sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
