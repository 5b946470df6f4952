package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sentinelcmd "github.com/sentinelfs/sentinelfs/cmd"
)

// Version is the compiled-in release identifier, printed by the version
// subcommand and overridable at build time with -ldflags
// "-X main.Version=...".
var Version = "dev"

func versionMain(_ *cobra.Command, _ []string) error {
	fmt.Println(Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  sentinelcmd.DisallowArguments,
	Run:   sentinelcmd.Mainify(versionMain),
}
