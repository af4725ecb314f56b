// Package rules holds the ordered default-rule store and its merge
// semantics. Declaration order is load-bearing: among rules that match a
// plan's active layers, the latest one to set a field wins, and explicit
// plan values override every rule.
package rules

import (
	"sync/atomic"

	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
)

// generationCounter hands out a unique generation per store so caches can
// invalidate wholesale when rules are reloaded.
var generationCounter atomic.Uint64

// Rule is one default-rule block: a selector gating its applicability and an
// overlay of field defaults it contributes when it matches. A rule's
// identity is its position in the store's ordered list.
type Rule struct {
	Selector Selector
	Overlay  map[model.Path]model.Value
}

// Store is an immutable, ordered sequence of rules validated against a
// registry. It is safe for concurrent use.
type Store struct {
	rules      []Rule
	generation uint64
}

// NewStore validates the rules against the registry and builds a store.
// Selectors and overlay entries naming unregistered layers or fields fail
// fast here with UnknownLayerError / UnknownFieldError, so no resolution
// request ever observes a malformed rule.
func NewStore(reg *registry.Registry, ruleList []Rule) (*Store, error) {
	for i, rule := range ruleList {
		for _, layer := range rule.Selector {
			if !reg.HasLayer(layer) {
				return nil, &UnknownLayerError{Layer: layer, Rule: i}
			}
		}
		for path := range rule.Overlay {
			if !reg.HasLayer(path.Layer) {
				return nil, &UnknownLayerError{Layer: path.Layer, Rule: i}
			}
			if !reg.HasField(path.Layer, path.Field) {
				return nil, &UnknownFieldError{Path: path, Rule: i}
			}
		}
	}
	return &Store{
		rules:      ruleList,
		generation: generationCounter.Add(1),
	}, nil
}

// Len returns the number of rules in declaration order.
func (s *Store) Len() int {
	return len(s.rules)
}

// Generation identifies this store instance. A reloaded store gets a new
// generation, which caches use to drop all prior entries.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Merge produces the candidate map for a plan: for every (layer, field), the
// single winning literal-or-expression default. Rules are applied in
// declaration order, each matching rule's overlay overwriting earlier
// defaults for the same path; explicit plan values are overlaid last so they
// win unconditionally. No evaluation or ordering happens here.
func (s *Store) Merge(plan model.Plan) map[model.Path]model.Value {
	candidates := make(map[model.Path]model.Value)
	for _, rule := range s.rules {
		if !rule.Selector.Matches(plan.ActiveLayers) {
			continue
		}
		for path, value := range rule.Overlay {
			candidates[path] = value
		}
	}
	for path, literal := range plan.Explicit {
		candidates[path] = model.LiteralValue(literal)
	}
	return candidates
}
