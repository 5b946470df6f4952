// Package classify assigns a MIME-like type label to a byte buffer using the
// mimetype library's detection rules. A buffer that mimetype labels as a ZIP
// archive is additionally parsed with archive/zip and labeled Unknown when no
// valid central directory is found, so a bare ZIP signature followed by
// arbitrary bytes is not reported as a ZIP archive. Every other label is
// returned as mimetype reports it; this package applies no further
// structural validation to it.
package classify

import (
	"archive/zip"
	"bytes"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Unknown is the sentinel label returned when a buffer cannot be classified,
// or when classification itself fails. It is never treated as whitelisted.
const Unknown = "application/octet-stream"

// Handle wraps the underlying content-type detection library. The
// spec.md concept of a "content_classifier_handle, opaque handle owned by
// the core, initialized once at startup, closed at shutdown" maps onto this
// type: mimetype's detection tree is a package-level singleton with no
// teardown step, so Handle's Close is a no-op kept for interface symmetry
// with a hypothetical classifier backend that does own a resource (e.g. a
// loaded external magic-rules database). Label calls are serialized by a
// mutex, so one Handle is safe for concurrent use.
type Handle struct {
	mu sync.Mutex
}

// NewHandle constructs a classifier handle. It cannot fail with the
// in-process mimetype backend, but returns an error to preserve the
// "classifier init failure is fatal; mount aborts" contract for backends
// that can fail (e.g. one backed by an external rules file).
func NewHandle() (*Handle, error) {
	return &Handle{}, nil
}

// Close releases any resources held by the handle.
func (h *Handle) Close() error {
	return nil
}

// Label returns the MIME-like type label for buffer. It never returns an
// error: a buffer that cannot be confidently classified yields Unknown, per
// the "failure to classify returns a sentinel unknown label rather than
// raising" contract.
func (h *Handle) Label(buffer []byte) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	mtype := mimetype.Detect(buffer)
	if mtype == nil {
		return Unknown
	}
	if mtype.Is("application/zip") {
		if _, err := zip.NewReader(bytes.NewReader(buffer), int64(len(buffer))); err != nil {
			return Unknown
		}
	}
	return mtype.String()
}
