// +build !windows

package filesystem

import (
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// OpenPreimage opens path for reading in preparation for a pre-image backup
// copy. It disables resolution of a symbolic link at the leaf position of
// path via O_NOFOLLOW, matching the Write Interceptor's pure prefix-based
// path translation (no symlink resolution is ever intended at that layer),
// and sets O_CLOEXEC so the descriptor isn't inherited by any subprocess the
// host binary spawns.
//
// HACK: we use the same retry-on-EINTR loop Go's os package uses internally
// to avoid golang/go#11180 on Darwin.
func OpenPreimage(path string) (*os.File, os.FileInfo, error) {
	flags := unix.O_RDONLY | unix.O_NOFOLLOW | unix.O_CLOEXEC
	var descriptor int
	for {
		d, err := unix.Open(path, flags, 0)
		if err == nil {
			descriptor = d
			break
		} else if runtime.GOOS == "darwin" && err == unix.EINTR {
			continue
		} else {
			return nil, nil, err
		}
	}

	file := os.NewFile(uintptr(descriptor), path)
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, nil, os.ErrInvalid
	}

	return file, info, nil
}

// copyN copies exactly n bytes from src to dst, matching io.CopyN's
// semantics but named locally so its use at call sites in this package reads
// as a backup-specific operation rather than a generic utility import.
func copyN(dst io.Writer, src io.Reader, n int64) (int64, error) {
	return io.CopyN(dst, src, n)
}
