package fastimport

import (
	"fmt"
	"strings"
)

// ParseIdent splits a configured "Name <email>" identity, the same angle
// form git accepts for committers. The returned Identity carries no instant;
// callers set When per command.
func ParseIdent(s string) (Identity, error) {
	i := strings.IndexByte(s, '<')
	j := strings.LastIndexByte(s, '>')
	if i < 0 || j < i || strings.TrimSpace(s[j+1:]) != "" {
		return Identity{}, fmt.Errorf("fastimport: identity %q is not in \"Name <email>\" form", s)
	}
	name := strings.TrimSpace(s[:i])
	email := strings.TrimSpace(s[i+1 : j])
	if name == "" || email == "" {
		return Identity{}, fmt.Errorf("fastimport: identity %q is not in \"Name <email>\" form", s)
	}
	return Identity{Name: name, Email: email}, nil
}
