package scheduler

import (
	"time"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// Config parameterises one Generate call. It is passed by value and never
// mutated, so attempts can run in parallel.
type Config struct {
	RandomSeed      int64
	MaxAttempts     int
	StrategyVariant int
	Workers         int
	LabBlockLength  int
	TimeBudget      time.Duration
	Calendar        model.Calendar
	// Reserved is booked into every attempt's tracker before placement.
	Reserved []model.Reservation
}

const (
	DefaultMaxAttempts    = 100
	DefaultLabBlockLength = 2
)

func NewDefaultConfig() Config {
	return Config{
		RandomSeed:      0,
		MaxAttempts:     DefaultMaxAttempts,
		StrategyVariant: 0,
		Workers:         1,
		LabBlockLength:  DefaultLabBlockLength,
		Calendar:        model.NewDefaultCalendar(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LabBlockLength <= 0 {
		c.LabBlockLength = DefaultLabBlockLength
	}
	if len(c.Calendar.Days) == 0 || len(c.Calendar.Periods) == 0 {
		c.Calendar = model.NewDefaultCalendar()
	}
	if c.StrategyVariant < 0 {
		c.StrategyVariant = 0
	}
	return c
}

// index is the per-call id lookup over reference data.
type index struct {
	courses     map[string]*model.Course
	instructors map[int]model.Instructor
}

func newIndex(courses []*model.Course, instructors []model.Instructor) *index {
	idx := &index{
		courses:     make(map[string]*model.Course, len(courses)),
		instructors: make(map[int]model.Instructor, len(instructors)),
	}
	for _, c := range courses {
		idx.courses[c.Code] = c
	}
	for _, i := range instructors {
		idx.instructors[i.ID] = i
	}
	return idx
}

func (idx *index) instructorName(id int) string {
	if i, ok := idx.instructors[id]; ok {
		return i.Name()
	}
	return "unknown instructor"
}
