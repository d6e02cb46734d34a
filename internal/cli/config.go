package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorkit/photomirror/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or initialize photomirror configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Export root:       %s\n", cfg.Export.RootDir)
			fmt.Printf("Workers:           %d\n", cfg.Export.Workers)
			fmt.Printf("Bandwidth limit:   %d B/s\n", cfg.Export.BandwidthLimitBytesPerSec)
			fmt.Printf("Continuous export: %v\n", cfg.Continuous.Enabled)
			fmt.Printf("Debounce:          %d ms\n", cfg.Continuous.DebounceMillis)
			fmt.Printf("Log format:        %s\n", cfg.Logging.Format)
			fmt.Printf("Log level:         %s\n", cfg.Logging.Level)
			if cfg.Logging.File != "" {
				fmt.Printf("Log file:          %s\n", cfg.Logging.File)
			}

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var rootDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if flags := GetGlobalFlags(); flags.ConfigFile != "" {
				path = flags.ConfigFile
			}

			cfg := config.Default()
			cfg.Export.RootDir = rootDir
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Printf("Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root-dir", "", "export root directory to write into the new config")

	return cmd
}

// loadConfig resolves configuration from --config if set, otherwise the
// default path, falling back to Default() when nothing exists yet.
func loadConfig() (*config.Config, error) {
	if flags := GetGlobalFlags(); flags.ConfigFile != "" {
		return config.LoadFromFile(flags.ConfigFile)
	}
	return config.LoadDefault()
}
