package csvio

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/pkg/model"
)

// TimetableRows formats assignments in the export column order:
// day, time, course code, room id, instructor id, session type.
func TimetableRows(res *scheduler.Result) []*model.TimetableCSVRow {
	rows := make([]*model.TimetableCSVRow, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		rows = append(rows, &model.TimetableCSVRow{
			Day:          a.Day.String(),
			Time:         res.Calendar.RangeLabel(a.Slot, max(a.Length, 1)),
			CourseCode:   a.CourseCode,
			RoomID:       a.RoomID,
			InstructorID: a.InstructorID,
			SessionType:  a.Session.String(),
		})
	}
	return rows
}

func ConflictRows(conflicts []model.Conflict) []*model.ConflictCSVRow {
	rows := make([]*model.ConflictCSVRow, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, &model.ConflictCSVRow{
			Kind:        c.Kind.String(),
			CourseCode:  c.CourseCode,
			SessionType: c.Session.String(),
			Required:    c.Required,
			Scheduled:   c.Scheduled,
			Message:     c.Message,
		})
	}
	return rows
}

func WriteTimetable(w io.Writer, res *scheduler.Result) error {
	rows := TimetableRows(res)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write timetable: %w", err)
	}
	return nil
}

func WriteConflicts(w io.Writer, conflicts []model.Conflict) error {
	rows := ConflictRows(conflicts)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write conflicts: %w", err)
	}
	return nil
}

// ExportTimetable writes the timetable to path, replacing any existing file.
func ExportTimetable(res *scheduler.Result, path string) (string, error) {
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	if err := WriteTimetable(out, res); err != nil {
		return "", err
	}
	return path, nil
}

// PrintTimetable prints the weekly timetable grouped by domain and year.
func PrintTimetable(w io.Writer, res *scheduler.Result, courses []*model.Course, instructors []model.Instructor) {
	courseByCode := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		courseByCode[c.Code] = c
	}
	names := make(map[int]string, len(instructors))
	for _, i := range instructors {
		names[i.ID] = i.Name()
	}

	type row struct {
		a      model.Assignment
		course *model.Course
	}
	var rows []row
	for _, a := range res.Assignments {
		if c, ok := courseByCode[a.CourseCode]; ok {
			rows = append(rows, row{a, c})
		}
	}
	slices.SortStableFunc(rows, func(r1, r2 row) int {
		if dom := strings.Compare(r1.course.Domain, r2.course.Domain); dom != 0 {
			return dom
		}
		if year := r1.course.Year - r2.course.Year; year != 0 {
			return year
		}
		if day := int(r1.a.Day) - int(r2.a.Day); day != 0 {
			return day
		}
		if slot := r1.a.Slot - r2.a.Slot; slot != 0 {
			return slot
		}
		return strings.Compare(r1.a.CourseCode, r2.a.CourseCode)
	})

	var group string
	for _, r := range rows {
		if g := fmt.Sprintf("%s year %d", r.course.Domain, r.course.Year); g != group {
			group = g
			pad := max(0, 40-len(g)) / 2
			fmt.Fprintf(w, "\n%s %s %s\n", strings.Repeat("-", pad), g, strings.Repeat("-", pad))
		}
		name := names[r.a.InstructorID]
		if name == "" {
			name = fmt.Sprintf("#%d", r.a.InstructorID)
		}
		fmt.Fprintf(w, "%-10s %-14s %-9s %-8s room %-5d %s\n",
			r.a.Day, res.Calendar.RangeLabel(r.a.Slot, max(r.a.Length, 1)), r.a.CourseCode, r.a.Session, r.a.RoomID, name)
	}
	fmt.Fprintf(w, "Printed rows: %d\n", len(rows))
}
