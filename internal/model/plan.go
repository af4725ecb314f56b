package model

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// LayerSet is a set of active layer names.
type LayerSet map[string]struct{}

// NewLayerSet builds a LayerSet from the given names.
func NewLayerSet(names ...string) LayerSet {
	s := make(LayerSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether the named layer is in the set.
func (s LayerSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the layer names in sorted order.
func (s LayerSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Plan is one caller's resolution request: the layers that participate and
// the field values the caller has fixed up front. A Plan is never mutated
// after construction.
type Plan struct {
	ActiveLayers LayerSet
	Explicit     map[Path]cty.Value
}

// ResolvedPlan is the immutable output of a successful resolution: a final
// value for every field in the requested set's transitive closure.
type ResolvedPlan struct {
	values map[Path]cty.Value
}

// NewResolvedPlan copies the given field map into a ResolvedPlan.
func NewResolvedPlan(values map[Path]cty.Value) *ResolvedPlan {
	copied := make(map[Path]cty.Value, len(values))
	for p, v := range values {
		copied[p] = v
	}
	return &ResolvedPlan{values: copied}
}

// Value returns the resolved value for a path.
func (rp *ResolvedPlan) Value(p Path) (cty.Value, bool) {
	v, ok := rp.values[p]
	return v, ok
}

// Paths returns every resolved path in sorted order, for deterministic
// iteration.
func (rp *ResolvedPlan) Paths() []Path {
	paths := make([]Path, 0, len(rp.values))
	for p := range rp.values {
		paths = append(paths, p)
	}
	SortPaths(paths)
	return paths
}

// Len returns the number of resolved fields.
func (rp *ResolvedPlan) Len() int {
	return len(rp.values)
}
