// Package whitelist implements the policy that lets a classified buffer
// bypass entropy checking entirely.
package whitelist

import "strings"

// shebang is the two-byte prefix that marks a script interpreter directive.
var shebang = []byte("#!")

// safeLabels is the closed set of classifier labels treated as safe
// regardless of entropy. It is intentionally small: compressed archive
// types (application/zip, application/gzip) are excluded because their
// internal entropy is indistinguishable from encrypted output.
var safeLabels = map[string]bool{
	"application/pdf":          true,
	"application/x-executable": true,
	"application/x-sharedlib":  true,
	"application/x-shellscript": true,
}

// Safe reports whether a buffer classified with label should bypass entropy
// checking. It returns true if label begins with "text/", if label is one
// of the fixed safe labels, or if buffer itself begins with a shebang
// ("#!") — the last clause is a pragmatic override for shell-script
// wrappers some classifiers miss.
func Safe(label string, buffer []byte) bool {
	if strings.HasPrefix(label, "text/") {
		return true
	}
	if safeLabels[label] {
		return true
	}
	if len(buffer) >= 2 && buffer[0] == shebang[0] && buffer[1] == shebang[1] {
		return true
	}
	return false
}
