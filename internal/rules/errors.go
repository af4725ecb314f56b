package rules

import (
	"fmt"

	"github.com/vk/planlayer/internal/model"
)

// UnknownLayerError reports a rule naming a layer absent from the registry,
// either in its selector or in an overlay section. Detected at store load
// time, before any resolution is served.
type UnknownLayerError struct {
	Layer string
	Rule  int
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("rule %d references unknown layer %q", e.Rule, e.Layer)
}

// UnknownFieldError reports an overlay entry for a field absent from the
// registry. Detected at store load time.
type UnknownFieldError struct {
	Path model.Path
	Rule int
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("rule %d sets unknown field %q", e.Rule, e.Path)
}
