// Package registry holds the descriptive layer/field namespace: which layer
// names exist and which field names each layer may carry. It is built once
// at startup and read-only thereafter, so it may be shared freely across
// concurrent resolutions.
package registry

import (
	"sort"
	"strings"
)

// Registry is the set of known layers and their field names.
type Registry struct {
	fields map[string]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{fields: make(map[string]map[string]struct{})}
}

// AddLayer registers a layer and its field names. Registering the same layer
// twice merges the field sets.
func (r *Registry) AddLayer(layer string, fields ...string) {
	set, ok := r.fields[layer]
	if !ok {
		set = make(map[string]struct{}, len(fields))
		r.fields[layer] = set
	}
	for _, f := range fields {
		set[f] = struct{}{}
	}
}

// HasLayer reports whether the layer is registered.
func (r *Registry) HasLayer(layer string) bool {
	_, ok := r.fields[layer]
	return ok
}

// HasField reports whether the field is registered for the layer.
func (r *Registry) HasField(layer, field string) bool {
	set, ok := r.fields[layer]
	if !ok {
		return false
	}
	_, ok = set[field]
	return ok
}

// Layers returns all registered layer names, sorted.
func (r *Registry) Layers() []string {
	names := make([]string, 0, len(r.fields))
	for n := range r.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fields returns the registered field names for a layer, sorted.
func (r *Registry) Fields(layer string) []string {
	set := r.fields[layer]
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveField maps a sequence of attribute segments (the part of a
// reference after "plan") onto a registered field for the layer. The longest
// dotted join of leading segments that names a registered field wins; any
// trailing segments are read-only derivations on the field's value and are
// returned as the remainder. When no join is registered the first segment is
// taken as the field name, leaving validation to later stages.
func (r *Registry) ResolveField(layer string, segments []string) (field string, rest []string) {
	if len(segments) == 0 {
		return "", nil
	}
	for i := len(segments); i > 0; i-- {
		candidate := strings.Join(segments[:i], ".")
		if r.HasField(layer, candidate) {
			return candidate, segments[i:]
		}
	}
	return segments[0], segments[1:]
}
