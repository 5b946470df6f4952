package config

import (
	"path/filepath"
)

// DefaultConfigurationName is the file name searched for in the storage
// directory when no --config flag is given.
const DefaultConfigurationName = "sentinelfs.yaml"

// DefaultPath computes the default configuration file path for a given
// storage directory: a sentinelfs.yaml file colocated with the backing
// store, mirroring how the mount binary is invoked with the storage
// directory as its first positional argument.
func DefaultPath(storageRoot string) string {
	return filepath.Join(storageRoot, DefaultConfigurationName)
}
