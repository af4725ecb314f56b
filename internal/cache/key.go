package cache

import (
	"strconv"
	"strings"

	"github.com/vk/planlayer/internal/model"
)

// requestKey builds a canonical string encoding of a resolution request.
// Layers, explicit entries, and requested fields are each sorted so that
// logically identical requests produce identical keys regardless of map
// iteration or caller ordering. Explicit values are encoded via
// cty.Value.GoString, which is deterministic for a given value. The store
// generation is part of the key so that requests against different store
// snapshots never collide.
func requestKey(generation uint64, plan model.Plan, requested []model.Path) string {
	var b strings.Builder

	b.WriteString("gen:")
	b.WriteString(strconv.FormatUint(generation, 10))

	b.WriteString(";layers:")
	for _, name := range plan.ActiveLayers.Names() {
		b.WriteString(name)
		b.WriteByte(',')
	}

	b.WriteString(";explicit:")
	explicitPaths := make([]model.Path, 0, len(plan.Explicit))
	for p := range plan.Explicit {
		explicitPaths = append(explicitPaths, p)
	}
	model.SortPaths(explicitPaths)
	for _, p := range explicitPaths {
		b.WriteString(p.String())
		b.WriteByte('=')
		b.WriteString(plan.Explicit[p].GoString())
		b.WriteByte(',')
	}

	b.WriteString(";requested:")
	requestedSorted := make([]model.Path, len(requested))
	copy(requestedSorted, requested)
	model.SortPaths(requestedSorted)
	for _, p := range requestedSorted {
		b.WriteString(p.String())
		b.WriteByte(',')
	}

	return b.String()
}
