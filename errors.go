package bitgrep

import "fmt"

// CompileError wraps a pattern compilation failure with the offending
// pattern.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("bitgrep: cannot compile %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
