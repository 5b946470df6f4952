package config

import (
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a uint64 value that supports unmarshalling from both
// human-friendly string representations ("50 MB", "50MiB") and numeric
// representations. It can be cast to a uint64 value, where it represents a
// byte count. It is used for BackupSizeLimit so that a YAML configuration
// file or --backup-size-limit flag can be written in whichever form is most
// readable.
type ByteSize uint64

// UnmarshalText implements the text unmarshalling interface used when
// parsing command-line flag values.
func (s *ByteSize) UnmarshalText(textBytes []byte) error {
	text := string(textBytes)

	value, err := humanize.ParseBytes(text)
	if err != nil {
		return err
	}
	*s = ByteSize(value)

	return nil
}

// UnmarshalYAML implements yaml.v3's Unmarshaler interface directly, since
// the decoder does not fall back to encoding.TextUnmarshaler on its own: a
// scalar node is decoded to its string form and then parsed the same way
// UnmarshalText does, so "10 MB" and "50MiB" both work from a configuration
// file exactly as they do on the command line.
func (s *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(text))
}

// String implements fmt.Stringer, rendering the size in human-readable form.
func (s ByteSize) String() string {
	return humanize.Bytes(uint64(s))
}

// Set implements pflag.Value, allowing a ByteSize to be used directly as a
// --backup-size-limit flag target.
func (s *ByteSize) Set(text string) error {
	return s.UnmarshalText([]byte(text))
}

// Type implements pflag.Value.
func (s *ByteSize) Type() string {
	return "size"
}
