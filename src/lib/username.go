package lib

import (
	"strings"

	"golang.org/x/text/cases"
)

// CanonicalUsername is the key usernames are matched on. Lookups compare
// keys for equality, so "Alice", "ALICE" and "alice" are the same user.
func CanonicalUsername(username string) string {
	// Casers keep state and cannot be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(username))
}
