package valueobjects

import "fmt"

// LinkScope limits which words are offered as link candidates.
type LinkScope string

const (
	// ScopeVault offers only words from the same vault as the source word.
	ScopeVault LinkScope = "vault"
	// ScopeAllVaults offers words from every vault the user owns.
	ScopeAllVaults LinkScope = "all"
)

// ParseLinkScope accepts "vault" or "all". An empty string yields fallback.
func ParseLinkScope(s string, fallback LinkScope) (LinkScope, error) {
	switch LinkScope(s) {
	case "":
		return fallback, nil
	case ScopeVault, ScopeAllVaults:
		return LinkScope(s), nil
	default:
		return "", fmt.Errorf("unknown link scope %q", s)
	}
}
