// Package graph builds and orders the cross-field dependency graph for one
// resolution request. Construction is demand driven: only the requested
// fields and their transitive references become nodes, so unrelated rule
// branches can neither fail nor slow a resolution. A directed edge
// referenced -> dependent is recorded for every read an expression performs.
package graph

import (
	"context"

	"github.com/vk/planlayer/internal/ctxlog"
	"github.com/vk/planlayer/internal/expr"
	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
)

// Graph is the dependency graph restricted to the requested fields'
// transitive closure, together with one valid topological evaluation order.
type Graph struct {
	deps  map[model.Path][]model.Path
	order []model.Path
}

// Order returns the evaluation order: every node after all of its
// dependencies. The order is deterministic for identical input; ties break
// by first-discovery order, with references visited in sorted path order.
func (g *Graph) Order() []model.Path {
	return g.order
}

// Dependencies returns the sorted reference paths of a node.
func (g *Graph) Dependencies(p model.Path) []model.Path {
	return g.deps[p]
}

// Len returns the number of nodes in the closure.
func (g *Graph) Len() int {
	return len(g.deps)
}

// builder carries the state of one depth-first construction pass.
type builder struct {
	reg        *registry.Registry
	candidates map[model.Path]model.Value

	deps    map[model.Path][]model.Path
	done    map[model.Path]bool
	onStack map[model.Path]bool
	stack   []model.Path
	order   []model.Path
}

// Build constructs the graph for the requested paths over the candidate map
// produced by the rule merge. It fails with DanglingReferenceError when a
// needed path has no candidate, and with CyclicDependencyError when the
// closure contains a reference cycle.
func Build(ctx context.Context, reg *registry.Registry, candidates map[model.Path]model.Value, requested []model.Path) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency graph.", "requested", len(requested), "candidates", len(candidates))

	b := &builder{
		reg:        reg,
		candidates: candidates,
		deps:       make(map[model.Path][]model.Path),
		done:       make(map[model.Path]bool),
		onStack:    make(map[model.Path]bool),
	}
	for _, p := range requested {
		if err := b.visit(p, nil); err != nil {
			return nil, err
		}
	}

	logger.Debug("Dependency graph complete.", "nodes", len(b.deps))
	return &Graph{deps: b.deps, order: b.order}, nil
}

// visit performs the depth-first walk: dependencies first, then the node
// itself, producing a topological order as a side effect. referencedBy is
// the dependent that led us here, nil for directly requested paths.
func (b *builder) visit(p model.Path, referencedBy *model.Path) error {
	if b.done[p] {
		return nil
	}
	if b.onStack[p] {
		return &CyclicDependencyError{Cycle: b.cycleFrom(p)}
	}

	candidate, ok := b.candidates[p]
	if !ok {
		return &DanglingReferenceError{Path: p, ReferencedBy: referencedBy}
	}

	b.onStack[p] = true
	b.stack = append(b.stack, p)

	var refs []model.Path
	if candidate.IsExpr() {
		var err error
		refs, err = expr.References(b.reg, candidate.Expr())
		if err != nil {
			return err
		}
	}
	for _, ref := range refs {
		if err := b.visit(ref, &p); err != nil {
			return err
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	delete(b.onStack, p)
	b.done[p] = true
	b.deps[p] = refs
	b.order = append(b.order, p)
	return nil
}

// cycleFrom slices the current stack from the first occurrence of p and
// closes the loop by repeating p, so errors name the full cycle.
func (b *builder) cycleFrom(p model.Path) []model.Path {
	for i, member := range b.stack {
		if member == p {
			cycle := make([]model.Path, 0, len(b.stack)-i+1)
			cycle = append(cycle, b.stack[i:]...)
			cycle = append(cycle, p)
			return cycle
		}
	}
	return []model.Path{p, p}
}
