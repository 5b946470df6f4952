package filesystem

import (
	"os"

	"github.com/pkg/errors"
)

// BackupRootPermissions are the permissions applied to a newly created
// backup root directory: owner-only access, since pre-image snapshots may
// contain sensitive file contents.
const BackupRootPermissions = 0700

// EnsureBackupRoot creates the backup root directory at path if it does not
// already exist, with owner-only permissions, and returns the path
// unmodified for convenient chaining.
func EnsureBackupRoot(path string) (string, error) {
	if err := os.MkdirAll(path, BackupRootPermissions); err != nil {
		return "", errors.Wrap(err, "unable to create backup root directory")
	}
	return path, nil
}
