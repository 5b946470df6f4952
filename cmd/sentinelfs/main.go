// Command sentinelfs mounts a backing directory through a FUSE passthrough
// filesystem that intercepts every write, runs it through the entropy and
// content-type classifier, and blocks writes that look like in-progress
// ransomware encryption.
package main

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	sentinelcmd "github.com/sentinelfs/sentinelfs/cmd"
	"github.com/sentinelfs/sentinelfs/pkg/config"
	"github.com/sentinelfs/sentinelfs/pkg/interceptor"
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/must"
	"github.com/sentinelfs/sentinelfs/pkg/sentinel"

	"github.com/joho/godotenv"
)

var rootConfiguration struct {
	help             bool
	configPath       string
	entropyThreshold float64
	entropySet       bool
	backupSizeLimit  config.ByteSize
	backupSizeSet    bool
	exclude          []string
	logLevel         string
	foreground       bool
}

func rootMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("invalid arguments: expected storage_path and mount_point")
	}
	storagePath, mountPoint := arguments[0], arguments[1]

	storageRoot, err := filepath.Abs(storagePath)
	if err != nil {
		return errors.Wrap(err, "unable to resolve storage path")
	}
	if info, err := os.Stat(storageRoot); err != nil {
		return errors.Wrap(err, "unable to stat storage path")
	} else if !info.IsDir() {
		return errors.New("storage path is not a directory")
	}

	// A .env file colocated with the storage directory is loaded, if
	// present, into the process environment. No configuration setting is
	// read from the environment, so it does not change the values that the
	// YAML configuration file and flags produce.
	_ = godotenv.Load(filepath.Join(storageRoot, ".env"))

	configPath := rootConfiguration.configPath
	if configPath == "" {
		configPath = config.DefaultPath(storageRoot)
	}
	fileConfig, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration file")
	}

	merged := config.Resolve(fileConfig)
	if rootConfiguration.entropySet {
		merged.EntropyThreshold = rootConfiguration.entropyThreshold
	}
	if rootConfiguration.backupSizeSet {
		merged.BackupSizeLimit = rootConfiguration.backupSizeLimit
	}
	if len(rootConfiguration.exclude) > 0 {
		merged.Exclude = append(merged.Exclude, rootConfiguration.exclude...)
	}
	if rootConfiguration.logLevel != "" {
		merged.LogLevel = rootConfiguration.logLevel
	}

	level, ok := logging.NameToLevel(merged.LogLevel)
	if !ok {
		return errors.Errorf("invalid log level: %s", merged.LogLevel)
	}
	logger := logging.NewRootLogger(level)

	mountContext, err := sentinel.New(storageRoot, merged, logger)
	if err != nil {
		return errors.Wrap(err, "unable to initialize classifier")
	}
	defer func() {
		must.Succeed(mountContext.Close(), "close classifier handle", logger)
	}()

	root := interceptor.NewRoot(mountContext)
	options := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:     "sentinelfs",
			Name:       "sentinelfs",
			Debug:      level >= logging.LevelTrace,
			AllowOther: false,
		},
	}

	server, err := fs.Mount(mountPoint, root.Root(), options)
	if err != nil {
		return errors.Wrap(err, "unable to mount filesystem")
	}

	logger.Printf("mounted %s at %s (entropy threshold %.2f, backup size limit %s)",
		storageRoot, mountPoint, merged.EntropyThreshold, merged.BackupSizeLimit)

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, sentinelcmd.TerminationSignals...)

	served := make(chan struct{})
	go func() {
		server.Wait()
		close(served)
	}()

	select {
	case sig := <-terminate:
		logger.Printf("received signal %s, unmounting", sig)
		if unmountErr := server.Unmount(); unmountErr != nil {
			logger.Warnf("unable to unmount cleanly: %s", unmountErr.Error())
		}
		<-served
	case <-served:
	}

	logger.Printf("%s", mountContext.Counters.Report())
	return nil
}

var rootCommand = &cobra.Command{
	Use:          "sentinelfs <storage_path> <mount_point>",
	Short:        "Mount a write-intercepting, ransomware-detecting passthrough filesystem",
	Args:         rootArgs,
	SilenceUsage: true,
	RunE:         rootMain,
}

// rootArgs prints the command's help text when invoked bare, rather than
// cobra's default one-line "requires 2 arg(s)" error, before falling back to
// the usual arity check.
func rootArgs(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		must.CommandHelp(command, logging.NewRootLogger(logging.LevelWarn))
		return errors.New("storage_path and mount_point are required")
	}
	return cobra.ExactArgs(2)(command, arguments)
}

func init() {
	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(versionCommand)

	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.configPath, "config", "", "Path to a sentinelfs.yaml configuration file")
	flags.Float64Var(&rootConfiguration.entropyThreshold, "entropy-threshold", config.DefaultEntropyThreshold, "Shannon entropy threshold, in bits per byte, above which a write is blocked")
	flags.Var(&rootConfiguration.backupSizeLimit, "backup-size-limit", "Largest pre-image size that will be backed up (e.g. 50MiB)")
	flags.StringSliceVar(&rootConfiguration.exclude, "exclude", nil, "Additional glob pattern to exclude from interception (may be repeated)")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "", "Log level: disabled, error, warn, info, debug, or trace")
	flags.BoolVar(&rootConfiguration.foreground, "foreground", true, "Accepted and ignored; sentinelfs always runs in the foreground")
	_ = flags.MarkHidden("foreground")

	// pflag.Changed is only meaningful after Parse, so whether the user
	// explicitly set these two flags (versus inheriting their compiled
	// defaults) is captured in PreRunE, just before rootMain layers flags
	// over the YAML configuration.
	rootCommand.PreRunE = func(cmd *cobra.Command, args []string) error {
		rootConfiguration.entropySet = cmd.Flags().Changed("entropy-threshold")
		rootConfiguration.backupSizeSet = cmd.Flags().Changed("backup-size-limit")
		return nil
	}
}

func main() {
	sentinelcmd.HandleTerminalCompatibility()

	if err := rootCommand.Execute(); err != nil {
		sentinelcmd.Error(err)
		os.Exit(1)
	}
}
