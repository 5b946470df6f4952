// Package must provides small helpers for handling errors from operations
// that are expected to succeed in all but truly exceptional circumstances
// (closing an already-flushed file, removing a temporary file, etc.), where
// failure is logged as a warning rather than propagated, since propagating
// it would mask the original error that triggered the cleanup path.
package must

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelfs/sentinelfs/pkg/logging"
)

// Close closes c, logging a warning if it fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the file at name, logging a warning if it fails. It is
// used to clean up a temporary file after a failed step in an atomic-write
// or backup-copy sequence.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// CommandHelp invokes c.Help(), logging a warning if it fails.
func CommandHelp(c *cobra.Command, logger *logging.Logger) {
	if err := c.Help(); err != nil {
		logger.Warnf("Unable to print help: %s", err.Error())
	}
}

// Succeed logs a warning if err is non-nil, describing the task that should
// have succeeded.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("Unable to succeed at %s: %s", task, err.Error())
	}
}
