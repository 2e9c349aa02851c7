package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// ErrInvalidRecord marks a row that parsed as CSV but holds unusable values.
var ErrInvalidRecord = errors.New("invalid record")

// NoInstructor is the persisted value for "no instructor for this session type".
const NoInstructor = "0"

// Dataset is the reference data one generation runs on. Reserved is
// optional.
type Dataset struct {
	Rooms       []model.Room
	Courses     []*model.Course
	Instructors []model.Instructor
	Reserved    []model.Reservation
}

func newReader(in io.Reader, delim rune) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = delim
	r.TrimLeadingSpace = true
	return r
}

func openAndRead[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadDataset reads the three reference files.
func LoadDataset(roomsPath, coursesPath, instructorsPath string, delim rune) (*Dataset, error) {
	rooms, err := LoadRooms(roomsPath, delim)
	if err != nil {
		return nil, err
	}
	courses, err := LoadCourses(coursesPath, delim)
	if err != nil {
		return nil, err
	}
	instructors, err := LoadInstructors(instructorsPath, delim)
	if err != nil {
		return nil, err
	}
	return &Dataset{Rooms: rooms, Courses: courses, Instructors: instructors}, nil
}

func LoadRooms(path string, delim rune) ([]model.Room, error) {
	return openAndRead(path, func(r io.Reader) ([]model.Room, error) { return ReadRooms(r, delim) })
}

func LoadCourses(path string, delim rune) ([]*model.Course, error) {
	return openAndRead(path, func(r io.Reader) ([]*model.Course, error) { return ReadCourses(r, delim) })
}

func LoadInstructors(path string, delim rune) ([]model.Instructor, error) {
	return openAndRead(path, func(r io.Reader) ([]model.Instructor, error) { return ReadInstructors(r, delim) })
}

// ReadRooms parses classroom records: id,capacity,av_support,computers,room_type.
func ReadRooms(in io.Reader, delim rune) ([]model.Room, error) {
	rooms := []model.Room{}
	if err := gocsv.UnmarshalCSV(newReader(in, delim), &rooms); err != nil {
		return nil, fmt.Errorf("parse rooms: %w", err)
	}
	seen := make(map[int]bool, len(rooms))
	for i := range rooms {
		r := &rooms[i]
		roomType, ok := model.ParseRoomType(string(r.Type))
		if !ok {
			return nil, fmt.Errorf("room row %d: %w: unknown room type %q", i+2, ErrInvalidRecord, r.Type)
		}
		r.Type = roomType
		if r.Capacity < 0 || r.Computers < 0 {
			return nil, fmt.Errorf("room row %d: %w: negative capacity or computer count", i+2, ErrInvalidRecord)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("room row %d: %w: duplicate id %d", i+2, ErrInvalidRecord, r.ID)
		}
		seen[r.ID] = true
	}
	return rooms, nil
}

// ReadCourses parses course records and turns the "no instructor" sentinel
// into an absent reference.
func ReadCourses(in io.Reader, delim rune) ([]*model.Course, error) {
	_courses := []*model.CourseCSV{}
	if err := gocsv.UnmarshalCSV(newReader(in, delim), &_courses); err != nil {
		return nil, fmt.Errorf("parse courses: %w", err)
	}

	courses := make([]*model.Course, 0, len(_courses))
	seen := make(map[string]bool, len(_courses))
	for i, c := range _courses {
		row := i + 2
		code := strings.TrimSpace(c.Code)
		if code == "" {
			return nil, fmt.Errorf("course row %d: %w: empty course code", row, ErrInvalidRecord)
		}
		if seen[code] {
			return nil, fmt.Errorf("course row %d: %w: duplicate course code %s", row, ErrInvalidRecord, code)
		}
		seen[code] = true
		if c.Students < 0 || c.LectureHours < 0 || c.LabHours < 0 {
			return nil, fmt.Errorf("course row %d: %w: negative count", row, ErrInvalidRecord)
		}
		lectureBy, err := parseInstructorRef(c.LectureInstructor)
		if err != nil {
			return nil, fmt.Errorf("course row %d: lecture_instructor: %w", row, err)
		}
		labBy, err := parseInstructorRef(c.LabInstructor)
		if err != nil {
			return nil, fmt.Errorf("course row %d: lab_instructor: %w", row, err)
		}
		pattern, err := model.ParsePattern(c.SchedulePattern)
		if err != nil {
			return nil, fmt.Errorf("course row %d: %w: %v", row, ErrInvalidRecord, err)
		}
		courses = append(courses, &model.Course{
			Code:              code,
			Subject:           strings.TrimSpace(c.Subject),
			Domain:            strings.TrimSpace(c.Domain),
			Year:              c.Year,
			Students:          c.Students,
			LectureSessions:   c.LectureHours,
			LabSessions:       c.LabHours,
			LectureInstructor: lectureBy,
			LabInstructor:     labBy,
			Pattern:           pattern,
		})
	}
	return courses, nil
}

func parseInstructorRef(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NoInstructor {
		return nil, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: instructor id %q", ErrInvalidRecord, s)
	}
	return model.InstructorRef(id), nil
}

func formatInstructorRef(ref *int) string {
	if ref == nil {
		return NoInstructor
	}
	return strconv.Itoa(*ref)
}

// ReadInstructors parses id,first_name,last_name,department records.
func ReadInstructors(in io.Reader, delim rune) ([]model.Instructor, error) {
	instructors := []model.Instructor{}
	if err := gocsv.UnmarshalCSV(newReader(in, delim), &instructors); err != nil {
		return nil, fmt.Errorf("parse instructors: %w", err)
	}
	seen := make(map[int]bool, len(instructors))
	for i, ins := range instructors {
		if ins.ID <= 0 {
			return nil, fmt.Errorf("instructor row %d: %w: id must be positive", i+2, ErrInvalidRecord)
		}
		if seen[ins.ID] {
			return nil, fmt.Errorf("instructor row %d: %w: duplicate id %d", i+2, ErrInvalidRecord, ins.ID)
		}
		seen[ins.ID] = true
	}
	return instructors, nil
}

// CheckReferences reports course rows that name instructors missing from the
// instructor list. Generation treats such ids as real instructors, so callers
// should reject the dataset first.
func (d *Dataset) CheckReferences() error {
	known := make(map[int]bool, len(d.Instructors))
	for _, i := range d.Instructors {
		known[i.ID] = true
	}
	var errs []error
	for _, c := range d.Courses {
		for _, session := range []model.SessionType{model.Lecture, model.Lab} {
			if id, ok := c.Instructor(session); ok && !known[id] {
				errs = append(errs, fmt.Errorf("course %s: %s instructor %d: %w", c.Code, strings.ToLower(session.String()), id, ErrInvalidRecord))
			}
		}
	}
	for i, r := range d.Reserved {
		if r.InstructorID != nil && !known[*r.InstructorID] {
			errs = append(errs, fmt.Errorf("reservation %d: instructor %d: %w", i+1, *r.InstructorID, ErrInvalidRecord))
		}
	}
	return errors.Join(errs...)
}

// SaveCourses writes courses back in the persisted layout.
func SaveCourses(w io.Writer, courses []*model.Course) error {
	rows := make([]*model.CourseCSV, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, &model.CourseCSV{
			Code:              c.Code,
			Subject:           c.Subject,
			Domain:            c.Domain,
			Year:              c.Year,
			Students:          c.Students,
			LectureHours:      c.LectureSessions,
			LabHours:          c.LabSessions,
			LectureInstructor: formatInstructorRef(c.LectureInstructor),
			LabInstructor:     formatInstructorRef(c.LabInstructor),
			SchedulePattern:   string(c.Pattern),
		})
	}
	return gocsv.Marshal(&rows, w)
}

// ReadTimetable parses an exported timetable back into assignments on cal.
func ReadTimetable(in io.Reader, delim rune, cal model.Calendar) ([]model.Assignment, error) {
	var rows []*model.TimetableCSVRow
	if err := gocsv.UnmarshalCSV(newReader(in, delim), &rows); err != nil {
		return nil, fmt.Errorf("parse timetable: %w", err)
	}

	out := make([]model.Assignment, 0, len(rows))
	for i, row := range rows {
		day, err := model.ParseDay(row.Day)
		if err != nil {
			return nil, fmt.Errorf("timetable row %d: %w: %v", i+2, ErrInvalidRecord, err)
		}
		start, length, err := cal.ParseRange(row.Time)
		if err != nil {
			return nil, fmt.Errorf("timetable row %d: %w: %v", i+2, ErrInvalidRecord, err)
		}
		session, err := model.ParseSessionType(row.SessionType)
		if err != nil {
			return nil, fmt.Errorf("timetable row %d: %w: %v", i+2, ErrInvalidRecord, err)
		}
		out = append(out, model.Assignment{
			Day:          day,
			Slot:         start,
			Length:       length,
			CourseCode:   strings.TrimSpace(row.CourseCode),
			RoomID:       row.RoomID,
			InstructorID: row.InstructorID,
			Session:      session,
		})
	}
	return out, nil
}

func LoadTimetable(path string, delim rune, cal model.Calendar) ([]model.Assignment, error) {
	return openAndRead(path, func(r io.Reader) ([]model.Assignment, error) { return ReadTimetable(r, delim, cal) })
}
