// Package expr bridges the engine and the expression language: it extracts
// the static (layer, field) references an expression reads, and it evaluates
// expressions against the set of already-resolved fields. The engine never
// interprets expression semantics itself; everything past reference
// extraction is delegated to the Evaluator.
package expr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
)

// RootName is the namespace root under which expressions read other layers'
// resolved fields: current.<layer>.plan.<field-path>.
const RootName = "current"

// traversalKey generates a stable, canonical string representation for an
// hcl.Traversal, suitable for use as a map key.
func traversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// References extracts the set of (layer, field) paths an expression reads.
// Only traversals rooted at "current" count; the shape must be
// current.<layer>.plan.<field-path>. Attribute segments past the registered
// field are read-only derivations on the value and introduce no further
// dependencies. The result is deduplicated and sorted so callers observe a
// deterministic order regardless of map iteration.
func References(reg *registry.Registry, e hcl.Expression) ([]model.Path, error) {
	seen := make(map[model.Path]struct{})
	for _, traversal := range e.Variables() {
		if traversal.RootName() != RootName {
			continue
		}
		path, err := parsePlanTraversal(reg, traversal)
		if err != nil {
			return nil, err
		}
		seen[path] = struct{}{}
	}
	paths := make([]model.Path, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].String() < paths[j].String()
	})
	return paths, nil
}

// parsePlanTraversal analyzes a current.* traversal and extracts the field
// path it references.
func parsePlanTraversal(reg *registry.Registry, traversal hcl.Traversal) (model.Path, error) {
	if len(traversal) < 4 {
		return model.Path{}, fmt.Errorf("malformed reference %q: expected %s.<layer>.plan.<field>",
			traversalKey(traversal), RootName)
	}

	layerAttr, layerOk := traversal[1].(hcl.TraverseAttr)
	planAttr, planOk := traversal[2].(hcl.TraverseAttr)
	if !layerOk || !planOk || planAttr.Name != "plan" {
		return model.Path{}, fmt.Errorf("malformed reference %q: expected %s.<layer>.plan.<field>",
			traversalKey(traversal), RootName)
	}

	var segments []string
	for _, step := range traversal[3:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			// An index ends the attribute chain; everything consumed so far
			// determines the field.
			break
		}
		segments = append(segments, attr.Name)
	}
	if len(segments) == 0 {
		return model.Path{}, fmt.Errorf("malformed reference %q: missing field name", traversalKey(traversal))
	}

	field, _ := reg.ResolveField(layerAttr.Name, segments)
	return model.Path{Layer: layerAttr.Name, Field: field}, nil
}
