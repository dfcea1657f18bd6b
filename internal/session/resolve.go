package session

import (
	"strings"

	"github.com/google/uuid"
)

// Resolve returns the caller-supplied session token unchanged, minting a new
// identifier when none was provided. Sessions are created lazily on first
// history write, so no existence check happens here.
func Resolve(candidate string) string {
	if v := strings.TrimSpace(candidate); v != "" {
		return v
	}
	return uuid.NewString()
}
