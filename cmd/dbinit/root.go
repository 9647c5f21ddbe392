package main

import (
	"fmt"

	"github.com/koustreak/dbinit/internal/config"
	"github.com/koustreak/dbinit/internal/database"
	"github.com/koustreak/dbinit/internal/logger"
	"github.com/spf13/cobra"
)

// app carries flags and the state PersistentPreRunE builds for subcommands.
type app struct {
	cfgFile  string
	dsn      string
	driver   string
	logLevel string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "dbinit",
		Short: "Startup schema reconciler and reference data seeder",
		Long: `dbinit brings td_source.source_id to BIGINT NOT NULL AUTO_INCREMENT and
seeds the baseline organization and units. It is safe to run on every start
of every replica; failures degrade the report but never block startup.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "path to config file (YAML)")
	flags.StringVar(&a.dsn, "dsn", "", "database DSN (overrides database.dsn)")
	flags.StringVar(&a.driver, "driver", "", "database driver: mysql or postgres (overrides database.driver)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")

	cmd.AddCommand(newServeCmd(a), newBootstrapCmd(a), newReportsCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	// Flags take precedence over the file.
	flags := cmd.Flags()
	if flags.Changed("dsn") {
		cfg.Database.DSN = a.dsn
	}
	if flags.Changed("driver") {
		cfg.Database.Driver = database.Driver(a.driver)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}
