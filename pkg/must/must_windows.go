//go:build windows

package must

import (
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"golang.org/x/sys/windows"
)

// CloseWindowsHandle closes wh, logging a warning if it fails. It mirrors
// Close for the raw windows.Handle values returned by some Windows-specific
// APIs that don't satisfy io.Closer.
func CloseWindowsHandle(wh windows.Handle, logger *logging.Logger) {
	if err := windows.CloseHandle(wh); err != nil {
		logger.Warnf("Unable to close handle %d: %s", wh, err.Error())
	}
}
