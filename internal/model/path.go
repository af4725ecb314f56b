// Package model defines the transport-agnostic data model shared by the
// planlayer engine: field paths, candidate values, plans, and resolved plans.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Path identifies a single field within a layer, e.g. {Layer: "tls",
// Field: "port"}. Field names may themselves be dotted for nested
// attributes (e.g. "headers.Host").
type Path struct {
	Layer string
	Field string
}

// ParsePath parses a "layer.field" string into a Path. The field portion
// keeps any further dots.
func ParsePath(s string) (Path, error) {
	layer, field, ok := strings.Cut(s, ".")
	if !ok || layer == "" || field == "" {
		return Path{}, fmt.Errorf("invalid field path %q: expected \"layer.field\"", s)
	}
	return Path{Layer: layer, Field: field}, nil
}

// String returns the canonical "layer.field" form.
func (p Path) String() string {
	return p.Layer + "." + p.Field
}

// SortPaths orders paths by their canonical string form, in place.
func SortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].String() < paths[j].String()
	})
}
