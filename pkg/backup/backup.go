// Package backup implements the just-in-time pre-image backup manager: on
// the first accepted write to a path after mount (offset 0 against a
// nonzero-size pre-image), it copies the existing file contents into the
// backup directory before the write is allowed to proceed.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sentinelfs/sentinelfs/pkg/config"
	"github.com/sentinelfs/sentinelfs/pkg/filesystem"
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/stats"
)

// BackupPermissions are the permissions applied to a newly written backup
// file.
const BackupPermissions = 0600

// Manager copies pre-images of files into a backup directory, subject to a
// size cap, on the first write to a path.
//
// Manager deliberately does not maintain an in-memory "already backed up"
// registry: a write at offset 0 to an already-modified, nonzero-size file
// produces a second backup, distinguished by its unix-seconds suffix. Two
// backups of the same file name within the same second share a name, and
// the later one replaces the earlier. That duplication is an accepted
// tradeoff, not a bug to silently paper over.
type Manager struct {
	root      string
	sizeLimit config.ByteSize
	counters  *stats.Counters
	logger    *logging.Logger
}

// New constructs a Manager. root is created with owner-only permissions if
// it does not already exist.
func New(root string, sizeLimit config.ByteSize, counters *stats.Counters, logger *logging.Logger) (*Manager, error) {
	root, err := filesystem.EnsureBackupRoot(root)
	if err != nil {
		return nil, err
	}
	return &Manager{
		root:      root,
		sizeLimit: sizeLimit,
		counters:  counters,
		logger:    logger,
	}, nil
}

// MaybeBackup evaluates the first-write heuristic for backingPath at the
// given write offset and, if it fires, copies the pre-image into the backup
// directory before returning. Every failure mode here is non-fatal: it is
// logged and control returns to the caller so the Detector still runs and
// the write is not blocked on the manager's account.
func (m *Manager) MaybeBackup(backingPath string, offset int64) {
	if offset != 0 {
		return
	}

	info, err := os.Stat(backingPath)
	if err != nil {
		// Nothing to back up: either the file doesn't exist yet (a create)
		// or it's otherwise unreachable. Either way, proceed to detection.
		return
	}
	if info.Size() == 0 {
		return
	}
	if config.ByteSize(info.Size()) > m.sizeLimit {
		m.logger.Warnf(
			"skipping backup for %s: pre-image size %d exceeds limit %d",
			backingPath, info.Size(), m.sizeLimit,
		)
		return
	}

	source, sourceInfo, err := filesystem.OpenPreimage(backingPath)
	if err != nil {
		m.logger.Warnf("unable to open pre-image %s for backup: %s", backingPath, err.Error())
		return
	}
	defer source.Close()

	destination := m.destinationPath(backingPath)
	if err := filesystem.CopyFileAtomic(source, destination, sourceInfo.Size(), BackupPermissions, m.logger); err != nil {
		m.logger.Warnf("unable to complete backup of %s: %s", backingPath, err.Error())
		return
	}

	m.counters.RecordBackup()
}

// destinationPath computes backup_root/<basename>.<unix_seconds>.backup.
func (m *Manager) destinationPath(backingPath string) string {
	name := fmt.Sprintf("%s.%d.backup", filepath.Base(backingPath), time.Now().Unix())
	return filepath.Join(m.root, name)
}
