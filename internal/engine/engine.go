// internal/engine/engine.go
package engine

import "errors"

// ErrInvalidInput is the only error kind the decision engine raises. It
// always marks a caller contract violation (out-of-domain numeric input,
// malformed profile), never a transient condition, so it is never retried.
// Callers match it with errors.Is.
var ErrInvalidInput = errors.New("INVALID_INPUT")
