// Package hcl loads rule documents: HCL files declaring the layer/field
// registry and an ordered list of default-rule blocks. Declaration order of
// the defaults blocks is preserved exactly; it carries the
// last-applicable-wins precedence the engine depends on.
package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/planlayer/internal/ctxlog"
	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
	"github.com/vk/planlayer/internal/rules"
)

// Document is a fully loaded and validated rule document.
type Document struct {
	Version  string
	Name     string
	Registry *registry.Registry
	Rules    *rules.Store
}

// LoadFile reads and parses a rule document from disk.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule document: %w", err)
	}
	return Parse(ctx, src, path)
}

// Parse parses and validates a rule document from source bytes.
func Parse(ctx context.Context, src []byte, filename string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing rule document.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}

	var root documentRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
	}

	reg := registry.New()
	for _, layer := range root.Layers {
		reg.AddLayer(layer.Name, layer.Fields...)
	}

	ruleList := make([]rules.Rule, 0, len(root.Defaults))
	for i, block := range root.Defaults {
		overlay, err := decodeOverlay(block.Remain)
		if err != nil {
			return nil, fmt.Errorf("defaults block %d in %s: %w", i, filename, err)
		}
		ruleList = append(ruleList, rules.Rule{
			Selector: rules.Selector(block.Selector),
			Overlay:  overlay,
		})
	}

	store, err := rules.NewStore(reg, ruleList)
	if err != nil {
		return nil, fmt.Errorf("invalid rule document %s: %w", filename, err)
	}

	logger.Debug("Rule document loaded.",
		"name", root.Name,
		"layers", len(root.Layers),
		"rules", store.Len(),
	)
	return &Document{
		Version:  root.Version,
		Name:     root.Name,
		Registry: reg,
		Rules:    store,
	}, nil
}

// decodeOverlay walks a defaults block's per-layer sections, producing the
// rule's overlay map. An attribute that evaluates cleanly with no context is
// taken as a literal; anything else (variable references, function calls)
// stays a deferred expression.
func decodeOverlay(body hcl.Body) (map[model.Path]model.Value, error) {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("rule documents must use HCL native syntax")
	}

	overlay := make(map[model.Path]model.Value)
	for _, block := range syntaxBody.Blocks {
		if len(block.Labels) > 0 {
			return nil, fmt.Errorf("overlay section %q takes no labels", block.Type)
		}
		if len(block.Body.Blocks) > 0 {
			nested := block.Body.Blocks[0]
			return nil, fmt.Errorf("overlay section %q contains a nested %q block; dotted attribute names declare nested fields", block.Type, nested.Type)
		}
		for name, attr := range block.Body.Attributes {
			path := model.Path{Layer: block.Type, Field: name}
			overlay[path] = classify(attr.Expr)
		}
	}
	return overlay, nil
}

// classify decides literal vs deferred expression by attempting a
// context-free evaluation.
func classify(e hcl.Expression) model.Value {
	v, diags := e.Value(nil)
	if !diags.HasErrors() && !v.IsNull() {
		return model.LiteralValue(v)
	}
	return model.ExprValue(e)
}
