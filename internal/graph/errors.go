package graph

import (
	"fmt"
	"strings"

	"github.com/vk/planlayer/internal/model"
)

// DanglingReferenceError reports a needed field with no candidate value:
// neither an explicit plan entry nor any matching rule provides one. This is
// a configuration-authoring error, never treated as a silently-unset value.
type DanglingReferenceError struct {
	// Path is the field with no candidate.
	Path model.Path
	// ReferencedBy is the expression-bearing field that reads Path, or nil
	// when Path was requested directly by the caller.
	ReferencedBy *model.Path
}

func (e *DanglingReferenceError) Error() string {
	if e.ReferencedBy != nil {
		return fmt.Sprintf("expression for %q references %q, which has no explicit value and no matching default",
			e.ReferencedBy, e.Path)
	}
	return fmt.Sprintf("requested field %q has no explicit value and no matching default", e.Path)
}

// CyclicDependencyError reports a reference cycle among the fields needed
// for a resolution. Cycle lists the member paths in traversal order, first
// member repeated at the end.
type CyclicDependencyError struct {
	Cycle []model.Path
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, p := range e.Cycle {
		parts[i] = p.String()
	}
	return fmt.Sprintf("cyclic field dependency: %s", strings.Join(parts, " -> "))
}
