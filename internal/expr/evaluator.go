package expr

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/planlayer/internal/ctxlog"
	"github.com/vk/planlayer/internal/model"
)

// Evaluator computes an expression's value given the already-resolved fields
// it may read. Implementations must be pure per call: same expression and
// context, same result.
type Evaluator interface {
	Evaluate(ctx context.Context, e hcl.Expression, resolved map[model.Path]cty.Value) (cty.Value, error)
}

// HCLEvaluator evaluates expressions natively via hcl.Expression.Value,
// exposing resolved fields under the "current" namespace and a table of
// read-only derivation functions (parse_url, to_json, strlen, ...).
type HCLEvaluator struct {
	funcs map[string]function.Function
}

// NewEvaluator creates an evaluator with the default function table.
func NewEvaluator() *HCLEvaluator {
	return &HCLEvaluator{funcs: Functions()}
}

// Evaluate builds the evaluation context from the resolved field set and
// evaluates the expression.
func (ev *HCLEvaluator) Evaluate(ctx context.Context, e hcl.Expression, resolved map[model.Path]cty.Value) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating expression.", "resolved_fields", len(resolved))

	current, err := currentNamespace(resolved)
	if err != nil {
		return cty.NilVal, err
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			RootName: current,
		},
		Functions: ev.funcs,
	}
	v, diags := e.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("expression evaluation failed: %w", diags)
	}
	return v, nil
}

// currentNamespace builds the cty object exposed as "current":
// layer -> { plan = { field tree } }. Dotted field names nest into objects
// so current.http.plan.headers.Host works for a field named "headers.Host".
// A field name that is both a leaf and a prefix of another field (for
// example "headers" next to "headers.Host") cannot be represented and is
// reported as an error rather than one value silently shadowing the other.
func currentNamespace(resolved map[model.Path]cty.Value) (cty.Value, error) {
	type fieldTree map[string]any // leaf cty.Value or nested fieldTree

	paths := make([]model.Path, 0, len(resolved))
	for p := range resolved {
		paths = append(paths, p)
	}
	model.SortPaths(paths)

	layers := make(map[string]fieldTree)
	for _, path := range paths {
		tree, ok := layers[path.Layer]
		if !ok {
			tree = make(fieldTree)
			layers[path.Layer] = tree
		}
		segments := strings.Split(path.Field, ".")
		for i, seg := range segments[:len(segments)-1] {
			switch child := tree[seg].(type) {
			case nil:
				next := make(fieldTree)
				tree[seg] = next
				tree = next
			case fieldTree:
				tree = child
			case cty.Value:
				prefix := model.Path{Layer: path.Layer, Field: strings.Join(segments[:i+1], ".")}
				return cty.NilVal, fmt.Errorf("resolved field %s collides with %s: a field cannot be both a value and a prefix of another field", path, prefix)
			}
		}
		last := segments[len(segments)-1]
		if _, exists := tree[last]; exists {
			return cty.NilVal, fmt.Errorf("resolved field %s collides with a longer field sharing its name as a prefix", path)
		}
		tree[last] = resolved[path]
	}

	var treeVal func(t fieldTree) cty.Value
	treeVal = func(t fieldTree) cty.Value {
		attrs := make(map[string]cty.Value, len(t))
		for name, entry := range t {
			switch e := entry.(type) {
			case cty.Value:
				attrs[name] = e
			case fieldTree:
				attrs[name] = treeVal(e)
			}
		}
		return cty.ObjectVal(attrs)
	}

	layerVals := make(map[string]cty.Value, len(layers))
	for layer, tree := range layers {
		layerVals[layer] = cty.ObjectVal(map[string]cty.Value{
			"plan": treeVal(tree),
		})
	}
	return cty.ObjectVal(layerVals), nil
}
