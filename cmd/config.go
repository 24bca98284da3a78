package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcmxo/98-pfm-traza-2025/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	configInitPath  string
	configInitForce bool
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return config.Encode(cfg, os.Stdout)
	},
}

var configTracingCmd = &cobra.Command{
	Use:   "tracing",
	Short: "Update the tracing section of the config file",
	Long: `Update only the tracing section of the config file, leaving other
sections and their comments untouched.

Example:
  traza config tracing --enabled --exporter otlp --otlp-endpoint jaeger:4317`,
	Args: cobra.NoArgs,
	RunE: runConfigTracing,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTracingCmd)

	configInitCmd.Flags().StringVar(&configInitPath, "path", "",
		"Where to write the file (default: .traza/config.yaml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"Overwrite an existing file")

	configTracingCmd.Flags().Bool("enabled", false, "Enable tracing")
	configTracingCmd.Flags().String("exporter", "", "Exporter: file, stdout, otlp or none")
	configTracingCmd.Flags().String("file-path", "", "Trace file path for the file exporter")
	configTracingCmd.Flags().String("otlp-endpoint", "", "OTLP collector endpoint")
	configTracingCmd.Flags().Float64("sample-rate", -1, "Fraction of requests to sample (0.0 to 1.0)")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path := configInitPath
	if path == "" {
		path = filepath.Join(".traza", "config.yaml")
	}

	if !configInitForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigTracing(cmd *cobra.Command, _ []string) error {
	tc := cfg.Tracing
	if cmd.Flags().Changed("enabled") {
		tc.Enabled, _ = cmd.Flags().GetBool("enabled")
	}
	if v, _ := cmd.Flags().GetString("exporter"); v != "" {
		tc.Exporter = v
	}
	if v, _ := cmd.Flags().GetString("file-path"); v != "" {
		tc.FilePath = v
	}
	if v, _ := cmd.Flags().GetString("otlp-endpoint"); v != "" {
		tc.OTLPEndpoint = v
	}
	if v, _ := cmd.Flags().GetFloat64("sample-rate"); v >= 0 {
		tc.SampleRate = v
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		path = filepath.Join(".traza", "config.yaml")
	}

	if err := config.SaveSection(path, "tracing", tc); err != nil {
		return err
	}
	fmt.Printf("Updated tracing section in %s\n", path)
	return nil
}
