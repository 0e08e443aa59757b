package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/gfe-panel/internal/config"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/store"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	devLog     bool
	dbPath     string
	outputDir  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gfepanel",
		Short: "Synthetic panels for group fixed effects estimation",
		Long: `gfepanel generates balanced panels whose individuals follow latent
group trends, writes them for the external GFE estimator, and reads the
estimator's group assignments back for scoring and plotting.

Settings come from an optional --config file (.json or .yaml), then
GFE_* environment variables, then command-line flags.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (.json, .yaml or .yml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.devLog, "dev-log", false, "human-readable console logs instead of JSON")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database for stored runs (empty disables the store)")
	pf.StringVar(&a.outputDir, "output-dir", "", "directory for exported data and figures")

	root.AddCommand(
		newGenerateCmd(a),
		newAssignmentsCmd(a),
		newCaseStudyCmd(a),
		newRunsCmd(a),
		newMigrateCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(config.EnvPrefix); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = &a.logLevel
	}
	if flags.Changed("db") {
		cfg.DBPath = &a.dbPath
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = &a.outputDir
	}
	a.cfg = cfg

	logger, err := monitoring.NewZapLogger(cfg.GetLogLevel(), a.devLog)
	if err != nil {
		return err
	}
	a.logger = logger
	monitoring.UseZap(logger)
	return nil
}

// openStore opens the configured database, failing when none is set.
func (a *app) openStore() (*store.Store, error) {
	path := a.cfg.GetDBPath()
	if path == "" {
		return nil, fmt.Errorf("no database configured (use --db or GFE_DB_PATH)")
	}
	return store.Open(path)
}
