package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traits/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the declaration registry",
		Long: "Create the configuration directory with a default config.yaml if it is\n" +
			"missing, then create the registry files in the data directory.",
		Args: wrapArgs(cobra.NoArgs),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(configDir); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	reg, err := attachRegistry()
	if err != nil {
		return err
	}
	if err := reg.Detach(); err != nil {
		return fmt.Errorf("finalize registry: %w", err)
	}

	log.WithField("config_dir", configDir).Info("registry initialized")
	fmt.Fprintln(cmd.OutOrStdout(), "Traits initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left untouched.
func writeConfigIfMissing(configDir string) error {
	exists, err := configExists(configDir)
	if err != nil || exists {
		return err
	}

	cfg := defaultFileConfig()
	cfg.DataDir = flags.dataDir

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(configPath(configDir), data, 0o644)
}
