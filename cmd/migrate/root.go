package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yigit/horario/internal/app/models"
	"github.com/yigit/horario/internal/bootstrap"
	"github.com/yigit/horario/internal/config"
	"github.com/yigit/horario/internal/migration"
	"github.com/yigit/horario/internal/pkg/validation"
)

// allPrograms selects every configured program.
const allPrograms = "ALL"

type migrateOptions struct {
	configPath   string
	scopedDelete bool
	fullReset    bool
	dryRun       bool
	batchSize    int
	pace         time.Duration
	paceSet      bool
}

func newRootCmd() *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:   "migrate <program-id|ALL> <term-id>",
		Short: "Import class schedules from CSV or PDF exports into Postgres",
		Example: "  migrate ICC PA2026 --scoped-delete\n" +
			"  migrate ALL PA2026 --full-reset\n" +
			"  migrate inspect data/horarios_icc.csv",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return withCode(exitUsage, fmt.Errorf("expected <program-id|ALL> <term-id>, got %d argument(s)", len(args)))
			}
			if !validation.ValidTerm(strings.TrimSpace(args[1])) {
				return withCode(exitUsage, fmt.Errorf("invalid term-id %q", args[1]))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.paceSet = cmd.Flags().Changed("pace")
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML config file (optional)")
	cmd.Flags().BoolVar(&opts.scopedDelete, "scoped-delete", false, "Delete the program's meeting blocks for the term, and sections left without blocks, before importing")
	cmd.Flags().BoolVar(&opts.fullReset, "full-reset", false, "Empty meeting blocks, sections and instructors before importing")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the whole pipeline against an in-memory store")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Records per insert call (default from config)")
	cmd.Flags().DurationVar(&opts.pace, "pace", 0, "Minimum interval between insert calls (default from config)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newInspectCmd())
	return cmd
}

func runMigrate(ctx context.Context, out io.Writer, opts migrateOptions, programArg, termArg string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.configPath)
	if err != nil {
		return err
	}
	if opts.batchSize > 0 {
		cfg.Loader.BatchSize = opts.batchSize
	}
	if opts.paceSet {
		cfg.Loader.Pace = opts.pace.String()
	}

	runOpts := migration.Options{
		Term:         models.Term(strings.TrimSpace(termArg)),
		ScopedDelete: opts.scopedDelete,
		FullReset:    opts.fullReset,
	}
	if strings.EqualFold(programArg, allPrograms) {
		runOpts.All = true
		runOpts.Programs = cfg.ProgramList()
	} else {
		program, err := cfg.Program(programArg)
		if err != nil {
			return withCode(exitUsage, err)
		}
		runOpts.Programs = []models.Program{program}
	}

	connect, cleanup := bootstrap.Connector(cfg, lgr, opts.dryRun)
	defer cleanup()

	orchestrator := migration.NewOrchestrator(connect, bootstrap.Settings(cfg), lgr)
	summary, err := orchestrator.Run(ctx, runOpts)
	if summary != nil {
		printSummary(out, summary, opts.dryRun)
	}
	return err
}

// Execute runs the root command and exits with a code describing the failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
