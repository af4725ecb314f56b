package rules

import "github.com/vk/planlayer/internal/model"

// Selector is the set of layer names that must all be active for a rule to
// apply. An empty selector always applies.
type Selector []string

// Matches reports whether every selector layer is present in the active set.
// Extra active layers not named by the selector do not disqualify a match:
// selectors mean "all of these must be present", not "exactly these".
func (s Selector) Matches(active model.LayerSet) bool {
	for _, layer := range s {
		if !active.Has(layer) {
			return false
		}
	}
	return true
}
