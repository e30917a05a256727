// Package cli implements the traits command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traits/internal/paths"
	"github.com/mesh-intelligence/traits/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	from      []string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// settings holds values loaded from config.yaml by PersistentPreRunE.
var settings struct {
	backend      string
	dataDir      string
	maxCallDepth int
}

// log is the process logger, configured by PersistentPreRunE.
var log = logrus.NewEntry(logrus.StandardLogger())

// NewRootCmd creates the top-level "traits" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "traits",
		Short: "Resolve default methods of capability contracts",
		Long: "Traits stores capability contracts and concrete types, resolves which\n" +
			"implementation every operation dispatches to and rejects types whose\n" +
			"inherited defaults conflict or are missing.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: user config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "registry directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringSliceVar(&flags.from, "from", nil, "read declarations from file instead of the registry (repeatable)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug detail to stderr")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{err}
	})

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newLoadCmd(),
		newExportCmd(),
		newListCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newCheckCmd(),
		newTableCmd(),
		newCallCmd(),
		newImplementersCmd(),
	)

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code. Errors are
// printed to stderr.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup loads config.yaml and configures the logger before any subcommand
// runs.
func setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	settings.backend = cfg.GetString(cfgKeyBackend)
	settings.dataDir = cfg.GetString(cfgKeyDataDir)
	settings.maxCallDepth = cfg.GetInt(cfgKeyMaxCallDepth)

	level, err := logrus.ParseLevel(cfg.GetString(cfgKeyLogLevel))
	if err != nil {
		return userError{fmt.Errorf("config %s: %w", cfgKeyLogLevel, err)}
	}
	if flags.verbose {
		level = logrus.DebugLevel
	}
	log = newLogger(cmd.ErrOrStderr(), level).WithField("command", cmd.Name())
	log.WithField("config_dir", configDir).Debug("configuration loaded")
	return nil
}

// newLogger builds the process logger writing text lines to w.
func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// resolveDataDir returns the registry directory following the precedence
// --data-dir flag > config.yaml data_dir > TRAITS_DATA_DIR > $(CWD)/.traits-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flags.dataDir, settings.dataDir)
}

// registryConfig returns the backend configuration for the resolved data
// directory.
func registryConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:      settings.backend,
		DataDir:      dataDir,
		MaxCallDepth: settings.maxCallDepth,
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError{fmt.Errorf("config: %w", err)}
	}
	return cfg, nil
}

// userError marks an error caused by the caller's input rather than by the
// environment.
type userError struct {
	err error
}

func (e userError) Error() string { return e.err.Error() }

func (e userError) Unwrap() error { return e.err }

// userSentinels are the errors that map to exitUserError.
var userSentinels = []error{
	types.ErrInvalidName,
	types.ErrDuplicateContract,
	types.ErrDuplicateType,
	types.ErrDuplicateOperation,
	types.ErrInvalidSignature,
	types.ErrUnknownContract,
	types.ErrContractCycle,
	types.ErrInvalidStep,
	types.ErrUnsupportedVersion,
	types.ErrConflict,
	types.ErrUnimplemented,
	types.ErrUnknownType,
	types.ErrUnknownOperation,
	types.ErrCallDepthExceeded,
	types.ErrNotFound,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrCallDepthInvalid,
}

// exitCode maps err to exitUserError or exitSysError.
func exitCode(err error) int {
	var ue userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	var de *types.DefinitionError
	if errors.As(err, &de) {
		return exitUserError
	}
	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return exitUserError
		}
	}
	return exitSysError
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

// minimumArgs is cobra.MinimumNArgs reporting a user error.
func minimumArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}
