package tool

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Gate is the policy allow-list. A tool may be invoked only if its name
// matches at least one configured glob pattern (doublestar syntax, so
// "ticket_*" or "*" work as expected). The zero-configuration default
// allows every tool.
//
// The pattern set is fixed at construction; Gate is safe for concurrent use.
type Gate struct {
	patterns []string
}

// NewGate builds a policy gate from the given allow-list patterns.
// An empty list means "allow everything". Invalid patterns are rejected
// with ErrBadPolicyPattern.
func NewGate(patterns []string) (*Gate, error) {
	cleaned := make([]string, 0, len(patterns))
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPolicyPattern, raw)
		}
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		cleaned = []string{"*"}
	}
	return &Gate{patterns: cleaned}, nil
}

// Allowed reports whether the named tool passes the allow-list.
func (g *Gate) Allowed(name string) bool {
	for _, p := range g.patterns {
		ok, err := doublestar.Match(p, name)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Assert returns ErrPolicyDenied if the named tool is not allowed.
func (g *Gate) Assert(name string) error {
	if !g.Allowed(name) {
		return fmt.Errorf("%w: %s", ErrPolicyDenied, name)
	}
	return nil
}

// Patterns returns the effective allow-list.
func (g *Gate) Patterns() []string {
	out := make([]string, len(g.patterns))
	copy(out, g.patterns)
	return out
}
