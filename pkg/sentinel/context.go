// Package sentinel bundles the process-wide state the write path needs —
// the classifier handle, the detector, the backup manager, the exclusion
// list, and the statistics counters — into a single explicit value, rather
// than scattering it across package-level globals.
package sentinel

import (
	"path/filepath"
	"strings"

	"github.com/sentinelfs/sentinelfs/pkg/backup"
	"github.com/sentinelfs/sentinelfs/pkg/classify"
	"github.com/sentinelfs/sentinelfs/pkg/config"
	"github.com/sentinelfs/sentinelfs/pkg/detector"
	"github.com/sentinelfs/sentinelfs/pkg/exclude"
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/stats"
)

// Context is the mount-wide state constructed once at mount initialization
// and threaded explicitly through every write. Its presence as a required,
// explicit parameter (rather than a package-level variable) is what
// expresses the "not freely shareable without synchronization" property at
// a type boundary.
type Context struct {
	// StorageRoot is the absolute path to the backing directory.
	StorageRoot string

	Detector *detector.Detector
	Backup   *backup.Manager
	Exclude  *exclude.List
	Counters *stats.Counters
	Logger   *logging.Logger

	classifier *classify.Handle
}

// New constructs a Context from a resolved configuration and storage root.
// Classifier initialization failure is fatal and returned to the caller,
// matching the "classifier init failure; mount aborts" contract.
func New(storageRoot string, merged config.Merged, logger *logging.Logger) (*Context, error) {
	classifier, err := classify.NewHandle()
	if err != nil {
		return nil, err
	}

	counters := &stats.Counters{}

	backupRoot := filepath.Join(storageRoot, merged.BackupDirectoryName)
	backupManager, err := backup.New(backupRoot, merged.BackupSizeLimit, counters, logger)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	exclusions, err := exclude.New(merged.BackupDirectoryName, merged.Exclude)
	if err != nil {
		classifier.Close()
		return nil, err
	}

	det := detector.New(classifier, merged.EntropyThreshold, counters, logger)

	return &Context{
		StorageRoot: storageRoot,
		Detector:    det,
		Backup:      backupManager,
		Exclude:     exclusions,
		Counters:    counters,
		Logger:      logger,
		classifier:  classifier,
	}, nil
}

// Close releases the classifier handle. It should be called once at
// unmount.
func (c *Context) Close() error {
	return c.classifier.Close()
}

// TranslatePath implements the Write Interceptor's path translation step:
// storage_root joined with the logical path by filepath.Join, which cleans
// the result lexically (collapsing "." and ".." elements and duplicate
// separators). No symlinks are resolved.
func (c *Context) TranslatePath(logicalPath string) string {
	return filepath.Join(c.StorageRoot, logicalPath)
}

// RelativePath converts an absolute backing path back to a storage-root
// relative, forward-slash-separated path suitable for exclusion matching.
func (c *Context) RelativePath(backingPath string) string {
	rel, err := filepath.Rel(c.StorageRoot, backingPath)
	if err != nil {
		return backingPath
	}
	return filepath.ToSlash(strings.TrimPrefix(rel, "./"))
}
