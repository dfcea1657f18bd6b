package chat

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable reports that a required external capability was not
// configured at startup (missing credential). Checked eagerly, before any
// network call.
var ErrProviderUnavailable = errors.New("provider not configured")

// ProviderError wraps a failure from a downstream provider call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
