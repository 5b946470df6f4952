// Package config loads SentinelFS's layered runtime configuration: compiled
// defaults, an optional YAML configuration file, and finally command-line
// flags, in that order of increasing precedence. No setting is read from
// environment variables.
package config

import (
	"os"

	"github.com/sentinelfs/sentinelfs/pkg/encoding"
)

const (
	// DefaultEntropyThreshold is the Shannon entropy value, in bits per
	// byte, above which a write is classified as likely ciphertext.
	DefaultEntropyThreshold = 7.5

	// DefaultBackupSizeLimit is the largest pre-image size that the JIT
	// backup manager will copy before giving up on backing up a file.
	DefaultBackupSizeLimit ByteSize = 50 * 1024 * 1024

	// DefaultBackupDirectoryName is the name of the directory, created at
	// the root of the storage directory, that holds pre-image backups.
	DefaultBackupDirectoryName = ".sentinelfs_backups"
)

// Configuration is the YAML-based configuration file schema. All fields are
// optional; a zero value means "use the compiled default or let a later
// layer (flags) supply it".
type Configuration struct {
	// EntropyThreshold overrides DefaultEntropyThreshold.
	EntropyThreshold float64 `yaml:"entropyThreshold"`
	// BackupSizeLimit overrides DefaultBackupSizeLimit.
	BackupSizeLimit ByteSize `yaml:"backupSizeLimit"`
	// BackupDirectoryName overrides DefaultBackupDirectoryName.
	BackupDirectoryName string `yaml:"backupDirectoryName"`
	// Exclude lists additional doublestar glob patterns, relative to the
	// storage root, that should never be submitted to the detector or
	// backup manager.
	Exclude []string `yaml:"exclude"`
	// LogLevel is the name of a logging.Level ("disabled", "error", "warn",
	// "info", "debug", "trace").
	LogLevel string `yaml:"logLevel"`
}

// Load attempts to load a YAML configuration file from path. A missing file
// is not an error: an empty Configuration is returned so that compiled
// defaults apply.
func Load(path string) (*Configuration, error) {
	result := &Configuration{}

	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}

	return result, nil
}

// Merged is the fully-resolved, post-precedence runtime configuration used
// by the mount binary and the detection pipeline.
type Merged struct {
	EntropyThreshold    float64
	BackupSizeLimit     ByteSize
	BackupDirectoryName string
	Exclude             []string
	LogLevel            string
}

// Resolve layers file on top of compiled defaults. Flags are applied by the
// caller afterward, since pflag already knows how to detect "was this flag
// explicitly set" via Changed.
func Resolve(file *Configuration) Merged {
	merged := Merged{
		EntropyThreshold:    DefaultEntropyThreshold,
		BackupSizeLimit:     DefaultBackupSizeLimit,
		BackupDirectoryName: DefaultBackupDirectoryName,
		LogLevel:            "info",
	}

	if file == nil {
		return merged
	}

	if file.EntropyThreshold != 0 {
		merged.EntropyThreshold = file.EntropyThreshold
	}
	if file.BackupSizeLimit != 0 {
		merged.BackupSizeLimit = file.BackupSizeLimit
	}
	if file.BackupDirectoryName != "" {
		merged.BackupDirectoryName = file.BackupDirectoryName
	}
	if len(file.Exclude) > 0 {
		merged.Exclude = file.Exclude
	}
	if file.LogLevel != "" {
		merged.LogLevel = file.LogLevel
	}

	return merged
}
