package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rhyrak/go-timetable/internal/config"
	"github.com/rhyrak/go-timetable/internal/logger"
)

type app struct {
	cfg       *config.Config
	log       *zap.Logger
	delimiter string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg, delimiter: string(cfg.Data.Delimiter)}

	root := &cobra.Command{
		Use:   "timetable",
		Short: "Weekly course timetable generator",
		Long: "Generates a weekly timetable from rooms, courses and instructors,\n" +
			"retrying with different placement strategies until no conflicts remain.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Data.RoomsFile, "rooms", cfg.Data.RoomsFile, "classrooms CSV file")
	flags.StringVar(&cfg.Data.CoursesFile, "courses", cfg.Data.CoursesFile, "courses CSV file")
	flags.StringVar(&cfg.Data.InstructorsFile, "instructors", cfg.Data.InstructorsFile, "instructors CSV file")
	flags.StringVar(&cfg.Data.ReservedFile, "reserved", cfg.Data.ReservedFile, "pre-booked slots CSV file (empty = none)")
	flags.StringVar(&a.delimiter, "delimiter", a.delimiter, "CSV field delimiter")
	flags.IntVar(&cfg.Scheduler.LabBlockLength, "block", cfg.Scheduler.LabBlockLength, "lab block length in periods")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (console, json)")

	root.AddCommand(newGenerateCommand(a), newValidateCommand(a), newPrintCommand(a), newNormalizeCommand(a))
	return root
}

func (a *app) setup() error {
	delim := []rune(a.delimiter)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", a.delimiter)
	}
	a.cfg.Data.Delimiter = delim[0]
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(a.cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.log = log
	return nil
}
