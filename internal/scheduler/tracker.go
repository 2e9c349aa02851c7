package scheduler

import "github.com/rhyrak/go-timetable/pkg/model"

type slotUsage struct {
	rooms       map[int]bool
	instructors map[int]bool
	cohorts     map[model.Cohort]bool
}

// Tracker records which rooms, instructors and cohorts are booked in every
// (day, slot). A fresh Tracker is created for each attempt.
type Tracker struct {
	days  map[model.Day][]*slotUsage
	slots int
}

func NewTracker(cal model.Calendar) *Tracker {
	t := &Tracker{days: make(map[model.Day][]*slotUsage, len(cal.Days)), slots: cal.SlotCount()}
	for _, d := range cal.Days {
		usage := make([]*slotUsage, t.slots)
		for i := range usage {
			usage[i] = &slotUsage{
				rooms:       make(map[int]bool),
				instructors: make(map[int]bool),
				cohorts:     make(map[model.Cohort]bool),
			}
		}
		t.days[d] = usage
	}
	return t
}

func (t *Tracker) usage(day model.Day, slot int) *slotUsage {
	slots, ok := t.days[day]
	if !ok || slot < 0 || slot >= len(slots) {
		return nil
	}
	return slots[slot]
}

// IsFree reports whether room, instructor and cohort are all unbooked at (day, slot).
func (t *Tracker) IsFree(day model.Day, slot int, roomID, instructorID int, cohort model.Cohort) bool {
	u := t.usage(day, slot)
	return u != nil && !u.rooms[roomID] && !u.instructors[instructorID] && !u.cohorts[cohort]
}

// IsRangeFree is IsFree over every slot of a contiguous range, with the same
// room and instructor throughout.
func (t *Tracker) IsRangeFree(day model.Day, start, length int, roomID, instructorID int, cohort model.Cohort) bool {
	if length < 1 {
		return false
	}
	for s := start; s < start+length; s++ {
		if !t.IsFree(day, s, roomID, instructorID, cohort) {
			return false
		}
	}
	return true
}

// Reserve books room, instructor and cohort for every slot of the range.
// Slots outside the calendar are ignored.
func (t *Tracker) Reserve(day model.Day, start, length int, roomID, instructorID int, cohort model.Cohort) {
	for s := start; s < start+length; s++ {
		u := t.usage(day, s)
		if u == nil {
			continue
		}
		u.rooms[roomID] = true
		u.instructors[instructorID] = true
		u.cohorts[cohort] = true
	}
}

// Hold books whichever of room, instructor and cohort the reservation names.
func (t *Tracker) Hold(r model.Reservation) {
	for s := r.Slot; s < r.Slot+r.Length; s++ {
		u := t.usage(r.Day, s)
		if u == nil {
			continue
		}
		if r.RoomID != nil {
			u.rooms[*r.RoomID] = true
		}
		if r.InstructorID != nil {
			u.instructors[*r.InstructorID] = true
		}
		if r.Cohort != nil {
			u.cohorts[*r.Cohort] = true
		}
	}
}
