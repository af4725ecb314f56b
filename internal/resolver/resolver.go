// Package resolver orchestrates one resolution request end to end: rule
// matching and overlay merge, demand-driven dependency graph construction,
// cycle rejection, and topological evaluation of expression-valued fields.
// Resolution is a pure function of (registry, rule store, plan, requested
// fields): it touches no shared mutable state, so a Resolver may be shared
// freely across goroutines. A request either fully succeeds with a complete
// field map or fully fails with one structured error; there is no partial
// mode.
package resolver

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/planlayer/internal/ctxlog"
	"github.com/vk/planlayer/internal/expr"
	"github.com/vk/planlayer/internal/graph"
	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
	"github.com/vk/planlayer/internal/rules"
)

// Resolver fills in a plan's unspecified fields from the rule store's
// defaults, delegating expression computation to the evaluator.
type Resolver struct {
	reg  *registry.Registry
	eval expr.Evaluator
}

// New creates a resolver. A nil evaluator selects the native HCL evaluator.
func New(reg *registry.Registry, eval expr.Evaluator) *Resolver {
	if eval == nil {
		eval = expr.NewEvaluator()
	}
	return &Resolver{reg: reg, eval: eval}
}

// Resolve produces final values for the requested fields and their
// transitive references. Errors are structured: DanglingReferenceError and
// CyclicDependencyError from graph construction bubble unchanged;
// evaluator failures are wrapped in EvaluationError tagged with the failing
// path. The context is checked between topological steps so large graphs
// stay responsive to cancellation.
func (r *Resolver) Resolve(ctx context.Context, store *rules.Store, plan model.Plan, requested []model.Path) (*model.ResolvedPlan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolution started.",
		"active_layers", plan.ActiveLayers.Names(),
		"explicit", len(plan.Explicit),
		"requested", len(requested),
	)

	// Sort a copy of the requested set so discovery order, and with it the
	// evaluation order, is deterministic regardless of caller ordering.
	sortedRequested := make([]model.Path, len(requested))
	copy(sortedRequested, requested)
	model.SortPaths(sortedRequested)

	candidates := store.Merge(plan)

	g, err := graph.Build(ctx, r.reg, candidates, sortedRequested)
	if err != nil {
		return nil, err
	}

	resolved := make(map[model.Path]cty.Value, g.Len())
	for _, p := range g.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := candidates[p]
		if !candidate.IsExpr() {
			resolved[p] = candidate.Literal()
			continue
		}

		v, err := r.eval.Evaluate(ctx, candidate.Expr(), resolved)
		if err != nil {
			return nil, &EvaluationError{Path: p, Err: err}
		}
		logger.Debug("Field evaluated.", "path", p.String())
		resolved[p] = v
	}

	logger.Debug("Resolution complete.", "fields", len(resolved))
	return model.NewResolvedPlan(resolved), nil
}
