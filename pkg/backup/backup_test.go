package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sentinelfs/sentinelfs/pkg/config"
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/stats"
)

func newTestManager(t *testing.T, sizeLimit config.ByteSize) (*Manager, *stats.Counters, string) {
	t.Helper()
	storageRoot := t.TempDir()
	backupRoot := filepath.Join(storageRoot, ".sentinelfs_backups")
	counters := &stats.Counters{}
	m, err := New(backupRoot, sizeLimit, counters, logging.NewRootLogger(logging.LevelDisabled))
	if err != nil {
		t.Fatal("unable to construct manager:", err)
	}
	return m, counters, storageRoot
}

func listBackups(t *testing.T, m *Manager) []string {
	t.Helper()
	entries, err := os.ReadDir(m.root)
	if err != nil {
		t.Fatal("unable to read backup directory:", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

// TestMaybeBackupFirstWrite tests the end-to-end first-write scenario:
// offset 0 against a nonzero pre-image produces a byte-identical backup.
func TestMaybeBackupFirstWrite(t *testing.T) {
	m, counters, storageRoot := newTestManager(t, config.DefaultBackupSizeLimit)

	path := filepath.Join(storageRoot, "notes.txt")
	original := make([]byte, 1000)
	for i := range original {
		original[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, original, 0644); err != nil {
		t.Fatal(err)
	}

	m.MaybeBackup(path, 0)

	if counters.BackupsCreated() != 1 {
		t.Fatalf("expected one backup, got %d", counters.BackupsCreated())
	}

	names := listBackups(t, m)
	if len(names) != 1 {
		t.Fatalf("expected one backup file, found %d", len(names))
	}
	contents, err := os.ReadFile(filepath.Join(m.root, names[0]))
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != string(original) {
		t.Error("backup contents do not match pre-image")
	}
}

// TestMaybeBackupNonZeroOffsetSkipped tests that a write at a non-zero
// offset never triggers a backup.
func TestMaybeBackupNonZeroOffsetSkipped(t *testing.T) {
	m, counters, storageRoot := newTestManager(t, config.DefaultBackupSizeLimit)

	path := filepath.Join(storageRoot, "file.txt")
	if err := os.WriteFile(path, []byte("some content"), 0644); err != nil {
		t.Fatal(err)
	}

	m.MaybeBackup(path, 10)

	if counters.BackupsCreated() != 0 {
		t.Errorf("expected no backup for non-zero offset, got %d", counters.BackupsCreated())
	}
}

// TestMaybeBackupZeroLengthPreimageSkipped tests that an offset-0 write to
// an empty pre-image does not trigger a backup.
func TestMaybeBackupZeroLengthPreimageSkipped(t *testing.T) {
	m, counters, storageRoot := newTestManager(t, config.DefaultBackupSizeLimit)

	path := filepath.Join(storageRoot, "empty.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	m.MaybeBackup(path, 0)

	if counters.BackupsCreated() != 0 {
		t.Errorf("expected no backup for zero-length pre-image, got %d", counters.BackupsCreated())
	}
}

// TestMaybeBackupMissingPreimageSkipped tests that a missing pre-image
// (e.g. a new file being created) is treated as "nothing to back up".
func TestMaybeBackupMissingPreimageSkipped(t *testing.T) {
	m, counters, storageRoot := newTestManager(t, config.DefaultBackupSizeLimit)

	path := filepath.Join(storageRoot, "does-not-exist.txt")

	m.MaybeBackup(path, 0)

	if counters.BackupsCreated() != 0 {
		t.Errorf("expected no backup for missing pre-image, got %d", counters.BackupsCreated())
	}
}

// TestMaybeBackupSizeCapBoundary tests that a pre-image exactly at the
// size limit is backed up, and one byte larger is skipped.
func TestMaybeBackupSizeCapBoundary(t *testing.T) {
	const limit = config.ByteSize(1024)

	t.Run("at limit", func(t *testing.T) {
		m, counters, storageRoot := newTestManager(t, limit)
		path := filepath.Join(storageRoot, "at-limit.bin")
		if err := os.WriteFile(path, make([]byte, limit), 0644); err != nil {
			t.Fatal(err)
		}
		m.MaybeBackup(path, 0)
		if counters.BackupsCreated() != 1 {
			t.Errorf("expected backup at exact size limit, got %d", counters.BackupsCreated())
		}
	})

	t.Run("over limit", func(t *testing.T) {
		m, counters, storageRoot := newTestManager(t, limit)
		path := filepath.Join(storageRoot, "over-limit.bin")
		if err := os.WriteFile(path, make([]byte, limit+1), 0644); err != nil {
			t.Fatal(err)
		}
		m.MaybeBackup(path, 0)
		if counters.BackupsCreated() != 0 {
			t.Errorf("expected no backup over size limit, got %d", counters.BackupsCreated())
		}
	})
}

// TestMaybeBackupDuplicateOnRewrite tests the documented (not a bug)
// duplicate-backup behavior: a second offset-0 write against an
// already-modified, nonzero-size file produces a second backup.
func TestMaybeBackupDuplicateOnRewrite(t *testing.T) {
	m, counters, storageRoot := newTestManager(t, config.DefaultBackupSizeLimit)

	path := filepath.Join(storageRoot, "rewritten.txt")
	if err := os.WriteFile(path, []byte("version one"), 0644); err != nil {
		t.Fatal(err)
	}
	m.MaybeBackup(path, 0)

	if err := os.WriteFile(path, []byte("version two, still nonzero"), 0644); err != nil {
		t.Fatal(err)
	}
	m.MaybeBackup(path, 0)

	if counters.BackupsCreated() != 2 {
		t.Errorf("expected two backups across rewrite, got %d", counters.BackupsCreated())
	}
}

// TestBackupRootPermissions tests that the backup root is created with
// owner-only permissions.
func TestBackupRootPermissions(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultBackupSizeLimit)
	info, err := os.Stat(m.root)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("backup root permissions mismatch: %o != 0700", info.Mode().Perm())
	}
}
