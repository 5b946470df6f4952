// Package exclude implements glob-based path exclusion: paths the Write
// Interceptor must never submit to the JIT Backup Manager or Detector. Its
// matching semantics (and implementation) are adapted from an ignore-pattern
// matcher built on doublestar glob matching.
package exclude

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern represents a single parsed exclusion pattern.
type pattern struct {
	// negated indicates whether this pattern re-includes a path previously
	// excluded by an earlier pattern.
	negated bool
	// matchLeaf indicates whether the pattern should also be matched
	// against a path's base name, for patterns with no slash and no
	// leading slash.
	matchLeaf bool
	// raw is the pattern text to match, with any leading "!" or "/"
	// already stripped.
	raw string
}

// newPattern validates and parses a single user-provided exclusion pattern.
func newPattern(text string) (*pattern, error) {
	if text == "" || text == "!" {
		return nil, fmt.Errorf("empty pattern")
	}

	negated := false
	if text[0] == '!' {
		negated = true
		text = text[1:]
	}
	if text == "" {
		return nil, fmt.Errorf("empty pattern after negation marker")
	}

	absolute := false
	if text[0] == '/' {
		absolute = true
		text = text[1:]
	}

	if len(text) > 1 && text[len(text)-1] == '/' {
		text = text[:len(text)-1]
	}

	containsSlash := false
	for i := 0; i < len(text); i++ {
		if text[i] == '/' {
			containsSlash = true
			break
		}
	}

	if _, err := doublestar.Match(text, "a"); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", text, err)
	}

	return &pattern{
		negated:   negated,
		matchLeaf: !absolute && !containsSlash,
		raw:       text,
	}, nil
}

// matches reports whether the pattern matches path (and, if so, whether the
// match is a negation).
func (p *pattern) matches(path string) (matched bool, negated bool) {
	if ok, _ := doublestar.Match(p.raw, path); ok {
		return true, p.negated
	}
	if p.matchLeaf {
		if ok, _ := doublestar.Match(p.raw, base(path)); ok {
			return true, p.negated
		}
	}
	return false, false
}

// base returns the final slash-separated component of path.
func base(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// List is an ordered collection of exclusion patterns. Later patterns take
// precedence over earlier ones, matching shell-style ignore-file semantics.
type List struct {
	patterns []*pattern
}

// New parses patterns into a List. The backup directory's own name is
// always excluded, in addition to any user-provided patterns, so that the
// backup manager's own writes (reached directly against the backing store,
// never through the mount) can never recurse into detection even if a
// future host layer routes them through the mount.
func New(backupDirectoryName string, userPatterns []string) (*List, error) {
	all := append([]string{backupDirectoryName + "/**", backupDirectoryName}, userPatterns...)

	parsed := make([]*pattern, 0, len(all))
	for _, text := range all {
		p, err := newPattern(text)
		if err != nil {
			return nil, fmt.Errorf("unable to parse exclusion pattern %q: %w", text, err)
		}
		parsed = append(parsed, p)
	}

	return &List{patterns: parsed}, nil
}

// Excluded reports whether path (relative to storage_root, using forward
// slashes) should be excluded from interception.
func (l *List) Excluded(path string) bool {
	excluded := false
	for _, p := range l.patterns {
		if matched, negated := p.matches(path); matched {
			excluded = !negated
		}
	}
	return excluded
}
