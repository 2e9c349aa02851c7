package csvio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/go-timetable/pkg/model"
)

const roomsCSV = `id,capacity,av_support,computers,room_type
101,60,true,0,Lecture
102,40,false,0,lecture
201,35,true,30,Lab
`

const coursesCSV = `code,subject,domain,year,students,lecture_hours,lab_hours,lecture_instructor,lab_instructor,schedule_pattern
CS101,Programming I,CSE,1,35,3,1,1,2,MWF
MA101,Calculus,Mathematics,1,50,2,0,3,0,TTS
PH101,Physics,Physics,1,30,2,1,4,,
`

const instructorsCSV = `id,first_name,last_name,department
1,Grace,Hopper,CSE
2,Alan,Turing,CSE
3,Emmy,Noether,Mathematics
4,Lise,Meitner,Physics
`

func TestReadRooms(t *testing.T) {
	rooms, err := ReadRooms(strings.NewReader(roomsCSV), ',')
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, model.Room{ID: 101, Capacity: 60, AVSupport: true, Type: model.RoomLecture}, rooms[0])
	assert.Equal(t, model.RoomLecture, rooms[1].Type)
	assert.Equal(t, 30, rooms[2].Computers)
	assert.Equal(t, model.RoomLab, rooms[2].Type)
}

func TestReadRoomsRejectsBadType(t *testing.T) {
	_, err := ReadRooms(strings.NewReader("id,capacity,av_support,computers,room_type\n1,10,true,0,Gym\n"), ',')
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "row 2")

	_, err = ReadRooms(strings.NewReader("id,capacity,av_support,computers,room_type\n1,10,true,0,Lab\n1,10,true,0,Lab\n"), ',')
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestReadCoursesTranslatesSentinel(t *testing.T) {
	courses, err := ReadCourses(strings.NewReader(coursesCSV), ',')
	require.NoError(t, err)
	require.Len(t, courses, 3)

	cs := courses[0]
	assert.Equal(t, "CS101", cs.Code)
	assert.Equal(t, model.PatternMWF, cs.Pattern)
	require.NotNil(t, cs.LectureInstructor)
	require.NotNil(t, cs.LabInstructor)
	assert.Equal(t, 2, *cs.LabInstructor)

	ma := courses[1]
	assert.Nil(t, ma.LabInstructor, "0 means no lab instructor")
	assert.Equal(t, model.PatternTTS, ma.Pattern)

	ph := courses[2]
	assert.Nil(t, ph.LabInstructor, "empty means no lab instructor")
	assert.Equal(t, model.PatternMWF, ph.Pattern, "missing pattern defaults to MWF")
}

func TestReadCoursesRejectsBadInstructor(t *testing.T) {
	in := "code,subject,domain,year,students,lecture_hours,lab_hours,lecture_instructor,lab_instructor,schedule_pattern\n" +
		"CS101,Programming,CSE,1,35,3,1,abc,2,MWF\n"
	_, err := ReadCourses(strings.NewReader(in), ',')
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "lecture_instructor")
}

func TestReadCoursesSemicolon(t *testing.T) {
	in := strings.ReplaceAll(coursesCSV, ",", ";")
	courses, err := ReadCourses(strings.NewReader(in), ';')
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}

func TestSaveCoursesRoundTrip(t *testing.T) {
	courses, err := ReadCourses(strings.NewReader(coursesCSV), ',')
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveCourses(&buf, courses))
	assert.Contains(t, buf.String(), "MA101,Calculus,Mathematics,1,50,2,0,3,0,TTS")

	again, err := ReadCourses(&buf, ',')
	require.NoError(t, err)
	assert.Equal(t, courses, again)
}

func TestLoadDatasetAndReferences(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	ds, err := LoadDataset(write("rooms.csv", roomsCSV), write("courses.csv", coursesCSV), write("instructors.csv", instructorsCSV), ',')
	require.NoError(t, err)
	assert.Len(t, ds.Rooms, 3)
	assert.Len(t, ds.Courses, 3)
	assert.Len(t, ds.Instructors, 4)
	assert.NoError(t, ds.CheckReferences())

	ds.Reserved, err = ReadReserved(strings.NewReader(reservedCSV), ',', model.NewDefaultCalendar())
	require.NoError(t, err)
	assert.NoError(t, ds.CheckReferences())

	ds.Instructors = ds.Instructors[:2]
	err = ds.CheckReferences()
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "MA101")
	assert.Contains(t, err.Error(), "reservation 2: instructor 3")

	_, err = LoadRooms(filepath.Join(dir, "missing.csv"), ',')
	assert.ErrorIs(t, err, os.ErrNotExist)
}
