package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rhyrak/go-timetable/internal/csvio"
	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/internal/workbook"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		show     bool
		xlsxPath string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a timetable and export it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, show, xlsxPath)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&a.cfg.Scheduler.Seed, "seed", a.cfg.Scheduler.Seed, "random seed")
	f.IntVarP(&a.cfg.Scheduler.MaxAttempts, "attempts", "n", a.cfg.Scheduler.MaxAttempts, "maximum number of attempts")
	f.IntVarP(&a.cfg.Scheduler.Strategy, "strategy", "s", a.cfg.Scheduler.Strategy, fmt.Sprintf("first strategy variant (0-%d)", scheduler.NumVariants-1))
	f.IntVarP(&a.cfg.Scheduler.Workers, "workers", "w", a.cfg.Scheduler.Workers, "number of concurrent attempts")
	f.DurationVarP(&a.cfg.Scheduler.TimeBudget, "time", "t", a.cfg.Scheduler.TimeBudget, "stop starting attempts after this long (0 = no limit)")
	f.StringVarP(&a.cfg.Data.ExportFile, "out", "o", a.cfg.Data.ExportFile, "timetable output file")
	f.StringVar(&a.cfg.Data.ConflictsFile, "conflicts-out", a.cfg.Data.ConflictsFile, "conflicts output file (empty = skip)")
	f.StringVar(&xlsxPath, "xlsx", "", "also write an Excel workbook to this file")
	f.BoolVarP(&show, "print", "p", false, "print the timetable after generating it")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, show bool, workbookPath string) error {
	data, err := a.loadDataset()
	if err != nil {
		return err
	}

	fmt.Println("Loading...")
	fmt.Printf("Rooms: %d, Courses: %d, Instructors: %d, Reserved: %d\n", len(data.Rooms), len(data.Courses), len(data.Instructors), len(data.Reserved))

	cfg := a.cfg.Generation()
	cfg.Reserved = data.Reserved

	start := time.Now()
	gen := scheduler.NewGenerator(a.log, nil)
	res, err := gen.Generate(cmd.Context(), data.Rooms, data.Courses, data.Instructors, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	outPath, err := csvio.ExportTimetable(res, a.cfg.Data.ExportFile)
	if err != nil {
		return err
	}
	if a.cfg.Data.ConflictsFile != "" {
		if err := writeConflicts(a.cfg.Data.ConflictsFile, res); err != nil {
			return err
		}
	}
	if workbookPath != "" {
		if _, err := workbook.Export(res, data.Courses, workbookPath); err != nil {
			return err
		}
	}

	if show {
		csvio.PrintTimetable(os.Stdout, res, data.Courses, data.Instructors)
		fmt.Println()
	}

	if len(res.Conflicts) == 0 {
		fmt.Println("Passed all tests")
	} else {
		fmt.Println("Invalid schedule:")
	}
	fmt.Print(res.Report)

	fmt.Printf("Strategy: %s\n", res.Strategy)
	fmt.Printf("Seed: %d\n", res.Seed)
	fmt.Printf("Iteration: %d of %d\n", res.Attempt+1, res.AttemptsRun)
	if res.Aborted {
		fmt.Println("Stopped early: time budget exhausted or interrupted")
	}
	fmt.Printf("Timer: %f ms\n", float64(elapsed.Nanoseconds())/1000000.0)
	fmt.Println("Exported output to: " + outPath)
	if workbookPath != "" {
		fmt.Println("Exported workbook to: " + workbookPath)
	}
	return nil
}

func writeConflicts(path string, res *scheduler.Result) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return csvio.WriteConflicts(out, res.Conflicts)
}

func newValidateCommand(a *app) *cobra.Command {
	var timetable string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check an exported timetable against the course data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, data, err := a.loadTimetable(timetable)
			if err != nil {
				return err
			}
			v := scheduler.Verify(res.Assignments, data.Courses, res.Calendar, a.cfg.Scheduler.LabBlockLength, nil)
			fmt.Print(v.Report())
			if !v.Valid() {
				return fmt.Errorf("timetable has %d conflicts", len(v.Conflicts))
			}
			fmt.Println("Passed all tests")
			return nil
		},
	}
	cmd.Flags().StringVarP(&timetable, "timetable", "i", a.cfg.Data.ExportFile, "timetable CSV to check")
	return cmd
}

func newPrintCommand(a *app) *cobra.Command {
	var (
		timetable string
		domain    string
		year      int
	)
	cmd := &cobra.Command{
		Use:   "print",
		Short: "print an exported timetable grouped by domain and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, data, err := a.loadTimetable(timetable)
			if err != nil {
				return err
			}
			res.Assignments = res.Filter(data.Courses, domain, year)
			csvio.PrintTimetable(os.Stdout, res, data.Courses, data.Instructors)
			return nil
		},
	}
	cmd.Flags().StringVarP(&timetable, "timetable", "i", a.cfg.Data.ExportFile, "timetable CSV to print")
	cmd.Flags().StringVar(&domain, "domain", "", "only this domain (empty = all domains)")
	cmd.Flags().IntVar(&year, "year", 0, "only this year (0 = all years)")
	return cmd
}

func newNormalizeCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "rewrite the courses file in the canonical comma-separated layout",
		Long: "Reads the courses file, checks every row and writes it back with\n" +
			"\"0\" for missing instructors and an explicit schedule pattern.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := csvio.LoadCourses(a.cfg.Data.CoursesFile, a.cfg.Data.Delimiter)
			if err != nil {
				return err
			}
			if out == "" {
				return csvio.SaveCourses(cmd.OutOrStdout(), courses)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			if err := csvio.SaveCourses(f, courses); err != nil {
				return err
			}
			a.log.Info("courses normalized", zap.Int("courses", len(courses)), zap.String("out", out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (empty = stdout)")
	return cmd
}

func (a *app) loadDataset() (*csvio.Dataset, error) {
	d := a.cfg.Data
	data, err := csvio.LoadDataset(d.RoomsFile, d.CoursesFile, d.InstructorsFile, d.Delimiter)
	if err != nil {
		return nil, err
	}
	if d.ReservedFile != "" {
		data.Reserved, err = csvio.LoadReserved(d.ReservedFile, d.Delimiter, a.cfg.Generation().Calendar)
		if err != nil {
			return nil, err
		}
	}
	if err := data.CheckReferences(); err != nil {
		return nil, err
	}
	a.log.Debug("dataset loaded",
		zap.Int("rooms", len(data.Rooms)),
		zap.Int("courses", len(data.Courses)),
		zap.Int("instructors", len(data.Instructors)),
		zap.Int("reserved", len(data.Reserved)),
	)
	return data, nil
}

// loadTimetable reads an exported timetable together with the course and
// instructor data it refers to.
func (a *app) loadTimetable(path string) (*scheduler.Result, *csvio.Dataset, error) {
	d := a.cfg.Data
	courses, err := csvio.LoadCourses(d.CoursesFile, d.Delimiter)
	if err != nil {
		return nil, nil, err
	}
	instructors, err := csvio.LoadInstructors(d.InstructorsFile, d.Delimiter)
	if err != nil {
		return nil, nil, err
	}
	cal := a.cfg.Generation().Calendar
	assignments, err := csvio.LoadTimetable(path, ',', cal)
	if err != nil {
		return nil, nil, err
	}
	res := &scheduler.Result{Assignments: assignments, Calendar: cal}
	return res, &csvio.Dataset{Courses: courses, Instructors: instructors}, nil
}
