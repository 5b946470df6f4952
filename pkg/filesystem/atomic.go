package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/must"
)

// temporaryNamePrefix is the file name prefix used for intermediate
// temporary files created during atomic writes.
const temporaryNamePrefix = ".sentinelfs-tmp-"

// WriteFileAtomic writes data to disk in an atomic fashion by first writing
// to an intermediate temporary file in the same directory as the target
// path, durably flushing it to stable storage, and then swapping it into
// place with a rename. This guarantees that readers never observe a
// partially-written file at path.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), temporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err = unix.Fdatasync(int(temporary.Fd())); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to flush temporary file to stable storage: %w", err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err = os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file into place: %w", err)
	}

	return nil
}

// CopyFileAtomic streams size bytes from source (positioned at its current
// offset) into an intermediate temporary file in the same directory as
// destination, fsyncs that temporary file, and renames it into place. It is
// used by the backup manager to materialize a pre-image snapshot without
// ever exposing a partially-written backup file to a concurrent reader.
func CopyFileAtomic(source *os.File, destination string, size int64, permissions os.FileMode, logger *logging.Logger) (err error) {
	temporary, err := os.CreateTemp(filepath.Dir(destination), temporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary backup file: %w", err)
	}
	defer func() {
		if err != nil {
			must.OSRemove(temporary.Name(), logger)
		}
	}()

	if _, copyErr := copyN(temporary, source, size); copyErr != nil {
		must.Close(temporary, logger)
		return fmt.Errorf("unable to copy pre-image data: %w", copyErr)
	}

	if syncErr := unix.Fdatasync(int(temporary.Fd())); syncErr != nil {
		must.Close(temporary, logger)
		return fmt.Errorf("unable to flush backup file to stable storage: %w", syncErr)
	}

	if closeErr := temporary.Close(); closeErr != nil {
		return fmt.Errorf("unable to close temporary backup file: %w", closeErr)
	}

	if chmodErr := os.Chmod(temporary.Name(), permissions); chmodErr != nil {
		return fmt.Errorf("unable to set backup file permissions: %w", chmodErr)
	}

	if renameErr := os.Rename(temporary.Name(), destination); renameErr != nil {
		return fmt.Errorf("unable to rename backup file into place: %w", renameErr)
	}

	return nil
}
