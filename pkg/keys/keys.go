// Package keys builds the hierarchical cache keys used by every cachekit
// component. All keys follow the convention
//
//	<prefix>:<domain>:<entity>:<id>[:<sub>]
//
// and are built only through this package, never by hand-concatenation, so the
// global prefix can change without touching callers.
//
// Example:
//
//	ns := keys.New("hellen")
//	ns.Prefix(keys.Analysis("123"))       // "hellen:analysis:123"
//	ns.Prefix(keys.Lock("job:transcribe")) // "hellen:lock:job:transcribe"
package keys

import (
	"strings"
)

// DefaultPrefix is the global key prefix used by the Hellen platform.
const DefaultPrefix = "hellen"

// Namespace prefixes logical keys with the platform's global prefix.
// The zero value uses DefaultPrefix.
type Namespace struct {
	prefix string
}

// New creates a Namespace with the given global prefix.
// An empty prefix falls back to DefaultPrefix.
func New(prefix string) Namespace {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Namespace{prefix: prefix}
}

// Prefix returns the fully qualified storage key for a logical key.
func (n Namespace) Prefix(key string) string {
	return n.name() + ":" + key
}

// Unprefix is the inverse of Prefix. It splits once on "<prefix>:" and
// returns the original key unchanged when the prefix is absent.
func (n Namespace) Unprefix(key string) string {
	head := n.name() + ":"
	if rest, ok := strings.CutPrefix(key, head); ok {
		return rest
	}
	return key
}

// Pattern returns a fully qualified match pattern for key scanning,
// e.g. Pattern("analysis:*") -> "hellen:analysis:*".
func (n Namespace) Pattern(pattern string) string {
	return n.name() + ":" + pattern
}

// String returns the configured prefix.
func (n Namespace) String() string {
	return n.name()
}

func (n Namespace) name() string {
	if n.prefix == "" {
		return DefaultPrefix
	}
	return n.prefix
}

// Join builds a logical key by joining parts with colons.
// Empty parts are filtered out to prevent double colons.
func Join(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			filtered = append(filtered, part)
		}
	}
	return strings.Join(filtered, ":")
}

// Domain returns the first segment of a logical (unprefixed) key.
// Used for per-domain metrics labels and key breakdowns.
func Domain(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
