package patterns

import "errors"

var (
	// ErrNotFound indicates the pattern key is unknown.
	ErrNotFound = errors.New("pattern not found")
	// ErrNotResolved indicates a finding without feedback reached the
	// learner.
	ErrNotResolved = errors.New("finding has no feedback")
)

// ConfigurationError reports invalid learner input that must never be
// silently ignored.
type ConfigurationError struct {
	Field string
	Value string
}

func (e ConfigurationError) Error() string {
	return "invalid " + e.Field + ": " + e.Value
}
