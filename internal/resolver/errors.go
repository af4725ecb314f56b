package resolver

import (
	"fmt"

	"github.com/vk/planlayer/internal/model"
)

// EvaluationError reports the external evaluator rejecting an expression.
// It carries the failing field path and wraps the underlying evaluator
// error. The resolver never retries; recovery is a caller policy decision.
type EvaluationError struct {
	Path model.Path
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Path, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
