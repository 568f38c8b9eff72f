// In file: internal/version/version.go

// Package version centralizes the versioning of the logical components whose
// output is cached. Cache keys embed these strings, so bumping a version
// orphans every entry written by the previous logic.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComponentVersions holds the version strings for the cached components.
// Increment a version here before deploying a change to that component.
var ComponentVersions = struct {
	// Geocoding covers the city-name lookup and its response mapping.
	Geocoding string

	// Session covers the serialized ConversationState layout.
	Session string
}{
	Geocoding: "v1.0",
	Session:   "v1.0",
}

// HashKey returns a stable, fixed-length SHA256 hex digest of s.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// GenerateVersionedCacheKey creates a version-aware cache key for an input.
// The input is normalised (trimmed, lower-cased) and hashed.
//
// Example output: "geocache:a1b2c3d4...:gv1.0"
func GenerateVersionedCacheKey(prefix, input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return fmt.Sprintf("%s:%s:gv%s", prefix, HashKey(normalized), ComponentVersions.Geocoding)
}

// SessionKey returns the storage key of a conversation.
func SessionKey(conversationID string) string {
	return fmt.Sprintf("session:%s:sv%s", conversationID, ComponentVersions.Session)
}
