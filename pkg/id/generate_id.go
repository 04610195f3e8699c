package id

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewUUID returns a random canonical (hyphenated, lowercase) UUID.
func NewUUID() string { return uuid.NewString() }

// NormalizeUUID parses s in any accepted UUID form and returns it canonical.
func NormalizeUUID(s string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return u.String(), true
}
