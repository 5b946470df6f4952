package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestResolveDefaults tests that Resolve returns compiled defaults when
// given a nil file configuration.
func TestResolveDefaults(t *testing.T) {
	merged := Resolve(nil)
	if merged.EntropyThreshold != DefaultEntropyThreshold {
		t.Errorf("entropy threshold mismatch: %v != %v", merged.EntropyThreshold, DefaultEntropyThreshold)
	}
	if merged.BackupSizeLimit != DefaultBackupSizeLimit {
		t.Errorf("backup size limit mismatch: %v != %v", merged.BackupSizeLimit, DefaultBackupSizeLimit)
	}
	if merged.BackupDirectoryName != DefaultBackupDirectoryName {
		t.Errorf("backup directory name mismatch: %v != %v", merged.BackupDirectoryName, DefaultBackupDirectoryName)
	}
}

// TestResolveOverrides tests that non-zero file fields override defaults.
func TestResolveOverrides(t *testing.T) {
	file := &Configuration{
		EntropyThreshold:    6.0,
		BackupSizeLimit:     ByteSize(1024),
		BackupDirectoryName: ".backups",
		Exclude:             []string{"*.tmp"},
		LogLevel:            "debug",
	}

	merged := Resolve(file)

	if merged.EntropyThreshold != 6.0 {
		t.Error("entropy threshold override not applied")
	}
	if merged.BackupSizeLimit != ByteSize(1024) {
		t.Error("backup size limit override not applied")
	}
	if merged.BackupDirectoryName != ".backups" {
		t.Error("backup directory name override not applied")
	}
	if len(merged.Exclude) != 1 || merged.Exclude[0] != "*.tmp" {
		t.Error("exclude patterns override not applied")
	}
	if merged.LogLevel != "debug" {
		t.Error("log level override not applied")
	}
}

// TestLoadMissingFile tests that Load tolerates a missing configuration
// file and returns an empty Configuration.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatal("Load failed on missing file:", err)
	}
	if cfg.EntropyThreshold != 0 {
		t.Error("expected zero-value configuration for missing file")
	}
}

// TestLoad tests that Load parses a YAML configuration file.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinelfs.yaml")
	contents := "entropyThreshold: 7.0\nbackupSizeLimit: \"10 MB\"\nexclude:\n  - \"*.log\"\n"
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal("unable to write test configuration:", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal("Load failed:", err)
	}
	if cfg.EntropyThreshold != 7.0 {
		t.Errorf("entropy threshold mismatch: %v != 7.0", cfg.EntropyThreshold)
	}
	if cfg.BackupSizeLimit != ByteSize(10*1000*1000) {
		t.Errorf("backup size limit mismatch: %v", cfg.BackupSizeLimit)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.log" {
		t.Error("exclude patterns not parsed")
	}
}

// TestByteSizeUnmarshalText tests ByteSize's text unmarshalling.
func TestByteSizeUnmarshalText(t *testing.T) {
	testCases := []struct {
		Text          string
		Expected      ByteSize
		ExpectFailure bool
	}{
		{"1024", 1024, false},
		{"1 KB", 1000, false},
		{"1 KiB", 1024, false},
		{"not a size", 0, true},
	}

	for _, testCase := range testCases {
		var size ByteSize
		err := size.UnmarshalText([]byte(testCase.Text))
		if testCase.ExpectFailure {
			if err == nil {
				t.Errorf("expected failure for %q", testCase.Text)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected failure for %q: %v", testCase.Text, err)
			continue
		}
		if size != testCase.Expected {
			t.Errorf("size mismatch for %q: %v != %v", testCase.Text, size, testCase.Expected)
		}
	}
}
