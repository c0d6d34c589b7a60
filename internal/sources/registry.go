// Package sources holds the built-in per-source adapters and the format
// detection that binds an input file to exactly one of them.
package sources

import (
	"fmt"

	"canoncli/internal/pipeline"
)

// Registry is the closed set of known source formats. Detection resolves a
// file to one tagged variant exactly once, replacing ad hoc per-column
// presence checks scattered through the transform.
type Registry struct {
	sources []pipeline.Source
	byName  map[string]pipeline.Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]pipeline.Source)}
}

// Register adds a source. Registration order is detection order.
func (r *Registry) Register(src pipeline.Source) error {
	if _, exists := r.byName[src.Name()]; exists {
		return fmt.Errorf("source %q already registered", src.Name())
	}
	r.sources = append(r.sources, src)
	r.byName[src.Name()] = src
	return nil
}

// Get returns a source by name.
func (r *Registry) Get(name string) (pipeline.Source, bool) {
	src, ok := r.byName[name]
	return src, ok
}

// Detect resolves which source a file's normalized headers belong to.
func (r *Registry) Detect(headers []string) (pipeline.Source, bool) {
	for _, src := range r.sources {
		if src.Matches(headers) {
			return src, true
		}
	}
	return nil, false
}

// Names lists the registered source names in detection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, src := range r.sources {
		names = append(names, src.Name())
	}
	return names
}

// Builtin returns a registry with the adapters that ship in this binary.
func Builtin() *Registry {
	r := NewRegistry()
	// Registration cannot collide here; names are distinct constants.
	_ = r.Register(NewAchievementSource())
	_ = r.Register(NewEnrollmentSource())
	return r
}
