// Package workbook renders a timetable as an Excel workbook with a weekly
// grid per cohort, the flat assignment list and the conflicts.
package workbook

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rhyrak/go-timetable/internal/csvio"
	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/pkg/model"
)

const (
	GridSheet        = "Timetable"
	AssignmentsSheet = "Assignments"
	ConflictsSheet   = "Conflicts"
)

// Write renders res into w. Courses are used to place assignments in their
// cohort column; assignments of unknown courses only appear in the flat list.
func Write(w io.Writer, res *scheduler.Result, courses []*model.Course) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(GridSheet)
	if err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("workbook: %w", err)
	}

	if err := writeGrid(f, header, res, courses); err != nil {
		return err
	}
	if err := writeRows(f, header, AssignmentsSheet, timetableHeader, assignmentRows(res)); err != nil {
		return err
	}
	if err := writeRows(f, header, ConflictsSheet, conflictHeader, conflictRows(res)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	return nil
}

// Export writes the workbook to path, replacing any existing file.
func Export(res *scheduler.Result, courses []*model.Course, path string) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, res, courses); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

var (
	timetableHeader = []string{"Day", "Time", "Course", "Room", "Instructor", "Session"}
	conflictHeader  = []string{"Kind", "Course", "Session", "Required", "Scheduled", "Message"}
)

// writeGrid lays out one row per (day, period) and one column per cohort.
func writeGrid(f *excelize.File, header int, res *scheduler.Result, courses []*model.Course) error {
	byCode := make(map[string]*model.Course, len(courses))
	cohortSet := make(map[model.Cohort]bool)
	for _, c := range courses {
		byCode[c.Code] = c
		cohortSet[c.Cohort()] = true
	}
	cohorts := make([]model.Cohort, 0, len(cohortSet))
	for c := range cohortSet {
		cohorts = append(cohorts, c)
	}
	sort.Slice(cohorts, func(i, j int) bool {
		if cohorts[i].Domain != cohorts[j].Domain {
			return cohorts[i].Domain < cohorts[j].Domain
		}
		return cohorts[i].Year < cohorts[j].Year
	})

	type gridKey struct {
		day    model.Day
		slot   int
		cohort model.Cohort
	}
	cells := make(map[gridKey][]string)
	for _, a := range res.Assignments {
		c, ok := byCode[a.CourseCode]
		if !ok {
			continue
		}
		text := fmt.Sprintf("%s %s (%d)", a.CourseCode, a.Session, a.RoomID)
		for _, slot := range a.Slots() {
			k := gridKey{a.Day, slot, c.Cohort()}
			cells[k] = append(cells[k], text)
		}
	}

	if err := f.SetColWidth(GridSheet, "A", "A", 12); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if err := f.SetColWidth(GridSheet, "B", "B", 14); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if len(cohorts) > 0 {
		first, _ := excelize.ColumnNumberToName(3)
		last, _ := excelize.ColumnNumberToName(2 + len(cohorts))
		if err := f.SetColWidth(GridSheet, first, last, 24); err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
	}

	row := 1
	titles := []any{"Day", "Time"}
	for _, c := range cohorts {
		titles = append(titles, fmt.Sprintf("%s year %d", c.Domain, c.Year))
	}
	if err := f.SetSheetRow(GridSheet, cell(1, row), &titles); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if err := f.SetCellStyle(GridSheet, cell(1, row), cell(2+len(cohorts), row), header); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}

	for _, day := range res.Calendar.Days {
		for slot, period := range res.Calendar.Periods {
			row++
			values := []any{day.String(), period.String()}
			for _, c := range cohorts {
				text := "-"
				if entries := cells[gridKey{day, slot, c}]; len(entries) > 0 {
					text = strings.Join(entries, "\n")
				}
				values = append(values, text)
			}
			if err := f.SetSheetRow(GridSheet, cell(1, row), &values); err != nil {
				return fmt.Errorf("workbook: %w", err)
			}
		}
	}
	return nil
}

func writeRows(f *excelize.File, header int, sheet string, titles []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	titleRow := make([]any, len(titles))
	for i, t := range titles {
		titleRow[i] = t
	}
	if err := f.SetSheetRow(sheet, "A1", &titleRow); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", cell(len(titles), 1), header); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	for i, r := range rows {
		if err := f.SetSheetRow(sheet, cell(1, i+2), &r); err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
	}
	return nil
}

func assignmentRows(res *scheduler.Result) [][]any {
	var rows [][]any
	for _, r := range csvio.TimetableRows(res) {
		rows = append(rows, []any{r.Day, r.Time, r.CourseCode, r.RoomID, r.InstructorID, r.SessionType})
	}
	return rows
}

func conflictRows(res *scheduler.Result) [][]any {
	var rows [][]any
	for _, r := range csvio.ConflictRows(res.Conflicts) {
		rows = append(rows, []any{r.Kind, r.CourseCode, r.SessionType, r.Required, r.Scheduled, r.Message})
	}
	return rows
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
