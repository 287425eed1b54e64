package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baderkha/blazing-transfer/pkg/conditional"
	"github.com/baderkha/blazing-transfer/pkg/migrate"
	"github.com/baderkha/blazing-transfer/pkg/migrate/state"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	exitOK          = 0
	exitFailed      = 1
	exitInterrupted = 130
)

type flags struct {
	configPath  string
	include     []string
	exclude     []string
	tables      []string
	retryFailed string
	stateDB     string
	verbose     bool
	noProgress  bool
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var (
		f    flags
		code = exitOK
	)
	cmd := &cobra.Command{
		Use:   "blazing-transfer",
		Short: "migrate tables from mysql or postgres into blazing",
		Long: `blazing-transfer reads every selected table of the source database in pages
and bulk loads it into blazing, running the configured pipeline stages around each table.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = run(cmd, f)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "job.json", "job configuration file")
	cmd.Flags().StringSliceVarP(&f.include, "include", "i", nil, "glob patterns of tables to migrate, overrides the config")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "e", nil, "glob patterns of tables to leave out, overrides the config")
	cmd.Flags().StringSliceVarP(&f.tables, "tables", "t", nil, "exact table names to migrate, ignores include / exclude")
	cmd.Flags().StringVar(&f.retryFailed, "retry-failed", "", "run id whose failed tables are migrated again, \"last\" for the latest run")
	cmd.Flags().StringVar(&f.stateDB, "state-db", "", "sqlite file of the run ledger, overrides the config")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "hide the progress bar")

	if err := cmd.Execute(); err != nil {
		return exitFailed
	}
	return code
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func loadConfig(f flags, log zerolog.Logger) (*migrate.JobConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using the process environment")
	}
	b, err := os.ReadFile(f.configPath)
	if err != nil {
		return nil, err
	}
	var cfg migrate.JobConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("could not decode %s : %w", f.configPath, err)
	}
	cfg.Target.Password = conditional.Coalesce(os.Getenv("BLAZING_PASSWORD"), cfg.Target.Password)
	if pw := os.Getenv("SOURCE_PASSWORD"); pw != "" {
		if cfg.SourceConfig.MySQL != nil {
			cfg.SourceConfig.MySQL.Password = pw
		}
		if cfg.SourceConfig.Postgres != nil {
			cfg.SourceConfig.Postgres.Password = pw
		}
	}
	if f.include != nil {
		cfg.Include = f.include
	}
	if f.exclude != nil {
		cfg.Exclude = f.exclude
	}
	if f.stateDB != "" {
		cfg.StateDB = f.stateDB
	}
	return &cfg, nil
}

func run(cmd *cobra.Command, f flags) int {
	var (
		startTime = time.Now()
		log       = newLogger(f.verbose)
	)
	cfg, err := loadConfig(f, log)
	if err != nil {
		log.Error().Err(err).Msg("could not load the job")
		return exitFailed
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bar := newProgress(f.noProgress)
	job, err := migrate.Open(ctx, cfg, log, migrate.OnTablesSelected(bar.Start), migrate.OnTableDone(bar.Done))
	if err != nil {
		log.Error().Err(err).Msg("could not start the job")
		return exitFailed
	}
	defer func() {
		if err := job.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close the job")
		}
	}()

	done := make(chan struct{})
	interrupted := make(chan struct{})
	go waitForInterrupt(cancel, job.State, log, done, interrupted)

	filter := job.Filter
	if len(f.tables) > 0 {
		filter = migrate.Tables(f.tables...)
	}
	var results []migrate.TableResult
	switch {
	case f.retryFailed != "":
		runID := f.retryFailed
		if runID == "last" {
			runID = job.RunID()
		}
		results, err = job.RetryFailed(ctx, runID)
	default:
		results, err = job.Migrate(ctx, filter)
	}
	close(done)
	bar.Finish()
	if err != nil {
		log.Error().Err(err).Msg("migration did not start")
		return exitFailed
	}

	printResults(os.Stdout, results)
	fmt.Printf("Run %s took %s\n", job.RunTag, time.Since(startTime).Round(time.Millisecond))
	if id := job.RunID(); id != "" {
		fmt.Printf("Recorded as run %s in %s\n", id, cfg.StateDB)
	}

	select {
	case <-interrupted:
		return exitInterrupted
	default:
	}
	if err := migrate.Summary(results); err != nil {
		log.Error().Err(err).Msg("some tables failed")
		return exitFailed
	}
	return exitOK
}

// waitForInterrupt : the first signal cancels the run and lets the tables wind
// down, a second one marks the run aborted in the ledger and quits at once
func waitForInterrupt(cancel context.CancelFunc, mgr *state.GormManager, log zerolog.Logger, done <-chan struct{}, interrupted chan<- struct{}) {
	interruptChannel := make(chan os.Signal, 2)
	signal.Notify(interruptChannel, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptChannel)

	select {
	case <-done:
		return
	case <-interruptChannel:
	}
	close(interrupted)
	log.Warn().Msg("interrupt received, stopping gracefully. interrupt again to quit now")
	cancel()

	select {
	case <-done:
	case <-interruptChannel:
		if mgr != nil {
			mgr.OnShutDownEv()
		}
		os.Exit(exitInterrupted)
	}
}
