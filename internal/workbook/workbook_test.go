package workbook

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/pkg/model"
)

func sample() (*scheduler.Result, []*model.Course) {
	res := &scheduler.Result{
		Calendar: model.NewDefaultCalendar(),
		Assignments: []model.Assignment{
			{Day: model.Monday, Slot: 0, Length: 1, CourseCode: "CS101", RoomID: 101, InstructorID: 1, Session: model.Lecture},
			{Day: model.Tuesday, Slot: 4, Length: 2, CourseCode: "CS101", RoomID: 201, InstructorID: 2, Session: model.Lab},
			{Day: model.Tuesday, Slot: 0, Length: 1, CourseCode: "MA101", RoomID: 101, InstructorID: 3, Session: model.Lecture},
		},
		Conflicts: []model.Conflict{
			{Kind: model.UnmetDemand, CourseCode: "MA101", Session: model.Lecture, Required: 2, Scheduled: 1, Message: "short"},
		},
	}
	courses := []*model.Course{
		{Code: "CS101", Domain: "CSE", Year: 1},
		{Code: "MA101", Domain: "Mathematics", Year: 1},
	}
	return res, courses
}

func TestWriteWorkbook(t *testing.T) {
	res, courses := sample()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, courses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{GridSheet, AssignmentsSheet, ConflictsSheet}, f.GetSheetList())

	v, err := f.GetCellValue(GridSheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "CSE year 1", v)

	// Monday 9:00 is the first data row.
	v, err = f.GetCellValue(GridSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "CS101 Lecture (101)", v)

	// Tuesday starts after seven Monday periods; the lab covers periods 4 and 5.
	for _, ref := range []string{"C13", "C14"} {
		v, err = f.GetCellValue(GridSheet, ref)
		require.NoError(t, err)
		assert.Equal(t, "CS101 Lab (201)", v, ref)
	}
	v, err = f.GetCellValue(GridSheet, "D9")
	require.NoError(t, err)
	assert.Equal(t, "MA101 Lecture (101)", v)

	rows, err := f.GetRows(AssignmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Tuesday", "14:00 - 16:00", "CS101", "201", "2", "Lab"}, rows[2])

	rows, err = f.GetRows(ConflictsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "short", rows[1][5])
}

func TestExportWorkbook(t *testing.T) {
	res, courses := sample()
	path := filepath.Join(t.TempDir(), "timetable.xlsx")
	out, err := Export(res, courses, path)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), ConflictsSheet)
}

func TestGridLayout(t *testing.T) {
	res, courses := sample()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, courses))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(GridSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(res.Calendar.Days)*len(res.Calendar.Periods))
	assert.Equal(t, []string{"Day", "Time", "CSE year 1", "Mathematics year 1"}, rows[0])
	assert.Equal(t, []string{"Monday", res.Calendar.Periods[1].String(), "-", "-"}, rows[2])

	for col, want := range map[string]float64{"A": 12, "B": 14, "C": 24, "D": 24} {
		got, err := f.GetColWidth(GridSheet, col)
		require.NoError(t, err)
		assert.Equal(t, want, got, col)
	}
}

func TestGridWithoutCourses(t *testing.T) {
	res, _ := sample()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(GridSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Day", "Time"}, rows[0])
	assignments, err := f.GetRows(AssignmentsSheet)
	require.NoError(t, err)
	assert.Len(t, assignments, 4)
}
