package scheduler

import (
	"fmt"
	"math/rand"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// allocator places the demands of a single attempt. It is not safe for
// concurrent use; every attempt builds its own.
type allocator struct {
	cal         model.Calendar
	blockLength int
	rooms       []model.Room
	tracker     *Tracker
	strategy    Strategy
	rng         *rand.Rand
	idx         *index

	assignments []model.Assignment
	conflicts   []model.Conflict
}

func newAllocator(cfg Config, rooms []model.Room, idx *index, strategy Strategy, rng *rand.Rand, tracker *Tracker) *allocator {
	if tracker == nil {
		tracker = NewTracker(cfg.Calendar)
	}
	return &allocator{
		cal:         cfg.Calendar,
		blockLength: cfg.LabBlockLength,
		rooms:       rooms,
		tracker:     tracker,
		strategy:    strategy,
		rng:         rng,
		idx:         idx,
	}
}

// FillCourses places labs for every course, then lectures for every course,
// walking courses in the strategy's order. Unmet demand becomes a conflict.
func (a *allocator) FillCourses(courses []*model.Course) {
	ordered := a.strategy.Courses(courses, a.rooms, a.rng)
	demands := ExpandSessions(ordered)

	// Labs are harder to fit (multi-slot, single day) so they go first
	for _, phase := range []model.SessionType{model.Lab, model.Lecture} {
		for _, d := range demands {
			if d.Session == phase {
				a.place(d)
			}
		}
	}
}

func (a *allocator) place(d *Demand) {
	suitable := SuitableRooms(a.rooms, d.Course, d.Session)
	if len(suitable) == 0 {
		a.conflicts = append(a.conflicts, model.Conflict{
			Kind:       model.NoSuitableRoom,
			CourseCode: d.Course.Code,
			Session:    d.Session,
			Required:   d.Remaining,
			Scheduled:  0,
			Message:    fmt.Sprintf("No suitable rooms found for %s %s (%d students)", d.Course.Code, d.Session, d.Course.Students),
		})
		return
	}
	rooms := a.strategy.Rooms(suitable, a.rng)

	required := d.Remaining
	if d.Session == model.Lab {
		a.placeLaboratories(d, rooms)
	} else {
		a.placeLectures(d, rooms)
	}

	if d.Remaining > 0 {
		scheduled := required - d.Remaining
		a.conflicts = append(a.conflicts, model.Conflict{
			Kind:       model.UnmetDemand,
			CourseCode: d.Course.Code,
			Session:    d.Session,
			Required:   required,
			Scheduled:  scheduled,
			Message: fmt.Sprintf("Could not allocate all required %s sessions for %s (%s). Allocated %d out of %d",
				d.Session, d.Course.Code, a.idx.instructorName(d.InstructorID), scheduled, required),
		})
	}
}

// placeLectures looks for a time of day that is free on every day of the
// course's pattern and books it on those days until the demand is met.
func (a *allocator) placeLectures(d *Demand, rooms []model.Room) {
	var patternDays []model.Day
	for _, day := range d.Course.Pattern.Days() {
		if a.cal.HasDay(day) {
			patternDays = append(patternDays, day)
		}
	}
	if len(patternDays) == 0 {
		return
	}
	days := a.strategy.Days(patternDays, a.rng)
	slots := a.strategy.Slots(a.slotSequence(), a.rng)
	cohort := d.Course.Cohort()

	picks := make([]model.Room, len(days))
	for _, slot := range slots {
		if d.Remaining == 0 {
			break
		}
		feasible := true
		for i, day := range days {
			room, ok := findRoom(rooms, a.tracker, day, slot, 1, d.InstructorID, cohort)
			if !ok {
				feasible = false
				break
			}
			picks[i] = room
		}
		if !feasible {
			continue
		}
		for i, day := range days {
			if d.Remaining == 0 {
				break
			}
			a.commit(d, day, slot, 1, picks[i])
		}
	}
}

// placeLaboratories books at most one contiguous block per day, taking the
// earliest free window on each day.
func (a *allocator) placeLaboratories(d *Demand, rooms []model.Room) {
	days := a.strategy.Days(a.cal.Days, a.rng)
	cohort := d.Course.Cohort()
	length := a.blockLength

	for _, day := range days {
		if d.Remaining == 0 {
			break
		}
		for start := 0; start+length <= a.cal.SlotCount(); start++ {
			if !a.cal.IsContiguous(start, length) {
				continue
			}
			room, ok := findRoom(rooms, a.tracker, day, start, length, d.InstructorID, cohort)
			if !ok {
				continue
			}
			a.commit(d, day, start, length, room)
			break
		}
	}
}

func (a *allocator) commit(d *Demand, day model.Day, start, length int, room model.Room) {
	a.tracker.Reserve(day, start, length, room.ID, d.InstructorID, d.Course.Cohort())
	a.assignments = append(a.assignments, model.Assignment{
		Day:          day,
		Slot:         start,
		Length:       length,
		CourseCode:   d.Course.Code,
		RoomID:       room.ID,
		InstructorID: d.InstructorID,
		Session:      d.Session,
	})
	d.Remaining--
}

func (a *allocator) slotSequence() []int {
	slots := make([]int, a.cal.SlotCount())
	for i := range slots {
		slots[i] = i
	}
	return slots
}
