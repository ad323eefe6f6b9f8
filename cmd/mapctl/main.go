// Command mapctl migrates the database, loads census, HMDA and boundary
// data, and precaches map tiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmpoweredVote/fairlending-api/internal/config"
	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"github.com/EmpoweredVote/fairlending-api/internal/logging"
	"github.com/EmpoweredVote/fairlending-api/internal/source"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env.local")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the state shared by subcommands, filled in before each runs.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func (e *env) database() (*gorm.DB, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return db.Connect(e.cfg.Database, logging.Module(e.log, "db"))
}

// objects returns the configured object store, or nil when none is set.
func (e *env) objects(ctx context.Context) (*source.MinIO, error) {
	if e.cfg.MinIO.Endpoint == "" {
		return nil, nil
	}
	return source.NewMinIO(ctx, e.cfg.MinIO)
}

func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "mapctl",
		Short:         "Manage the fair-lending map database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			if configPath != "" {
				os.Setenv("CONFIG_FILE", configPath)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}

			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			e.cfg, e.log = cfg, log
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newMigrateCmd(e),
		newLoadGeosCmd(e),
		newLoadCensusCmd(e),
		newLoadHMDACmd(e),
		newLoadInstitutionsCmd(e),
		newPrecacheCmd(e),
	)
	return rootCmd
}
