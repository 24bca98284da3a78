package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcmxo/98-pfm-traza-2025/internal/config"
	"github.com/jcmxo/98-pfm-traza-2025/internal/infrastructure/sqlite"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "traza",
	Short: "Supply-chain provenance and custody ledger",
	Long: `Traza tracks raw materials and finished products through a supply
chain: who registered, what was minted from what, and every custody
handoff along the way. Run 'traza serve' to expose the ledger over HTTP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/traza/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write a debug log file")
	rootCmd.PersistentFlags().Bool("memory", false,
		"keep the ledger in memory instead of SQLite")
	rootCmd.PersistentFlags().String("db", "",
		"path to the SQLite database file")

	_ = viper.BindPFlag("database.in_memory", rootCmd.PersistentFlags().Lookup("memory"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("listen", defaults.Listen)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("log_path", defaults.LogPath)
	viper.SetDefault("database.path", defaults.Database.Path)
	viper.SetDefault("database.in_memory", defaults.Database.InMemory)
	viper.SetDefault("cache.trace_ttl", defaults.Cache.TraceTTL)
	viper.SetDefault("cache.disabled", defaults.Cache.Disabled)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .traza/config.yaml (current directory)
		// 2. ~/.config/traza/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".traza", "config.yaml")); err == nil {
			viper.SetConfigFile(filepath.Join(".traza", "config.yaml"))
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "traza"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config anywhere is fine; run with defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// initLogging enables the debug log when requested via flag, env or
// config. Returns a cleanup function to defer.
func initLogging() (func(), error) {
	debug := debugFlag || cfg.Debug || os.Getenv("TRAZA_DEBUG") != ""
	if !debug {
		return func() {}, nil
	}

	logPath := cfg.LogPath
	if logPath == "" {
		logPath = os.Getenv("TRAZA_LOG")
	}
	if logPath == "" {
		logPath = "traza.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "Traza starting", "version", version, "logPath", logPath)
	return cleanup, nil
}

// openStore opens the ledger store selected by the config.
func openStore() (ledger.Store, error) {
	if cfg.Database.InMemory {
		log.Info(log.CatStore, "using in-memory ledger store")
		return ledger.NewMemoryStore(), nil
	}

	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	log.Info(log.CatStore, "opened ledger database", "path", cfg.Database.Path)
	return sqlite.NewStore(db), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
