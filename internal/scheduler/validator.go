package scheduler

import (
	"fmt"
	"strings"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// Verification is the outcome of re-checking a finished timetable.
type Verification struct {
	// Conflicts found by the re-check that were not already reported.
	Conflicts []model.Conflict

	RoomCollision       bool
	InstructorCollision bool
	CohortCollision     bool
	BadBlock            bool
	Shortfall           bool
	Excess              bool
}

func (v *Verification) Valid() bool {
	return !v.RoomCollision && !v.InstructorCollision && !v.CohortCollision &&
		!v.BadBlock && !v.Shortfall && !v.Excess
}

// Report renders one line per check followed by the new conflicts.
func (v *Verification) Report() string {
	var sb strings.Builder
	line := func(failed bool, name string) {
		if failed {
			sb.WriteString("[FAIL]: " + name + " check.\n")
		} else {
			sb.WriteString("[  OK]: " + name + " check.\n")
		}
	}
	line(v.RoomCollision, "Room collision")
	line(v.InstructorCollision, "Instructor collision")
	line(v.CohortCollision, "Cohort collision")
	line(v.BadBlock, "Lab block")
	line(v.Shortfall, "Course demand")
	line(v.Excess, "Course demand bound")
	for _, c := range v.Conflicts {
		sb.WriteString("- " + c.Message + "\n")
	}
	return sb.String()
}

type roomKey struct {
	day  model.Day
	slot int
	room int
}

type instructorKey struct {
	day        model.Day
	slot       int
	instructor int
}

type cohortKey struct {
	day    model.Day
	slot   int
	cohort model.Cohort
}

type demandKey struct {
	code    string
	session model.SessionType
}

// Verify re-derives occupancy from the assignments alone, independently of
// the tracker, and tallies scheduled against required sessions. Shortfalls
// already present in reported are not repeated.
func Verify(assignments []model.Assignment, courses []*model.Course, cal model.Calendar, blockLength int, reported []model.Conflict) *Verification {
	v := &Verification{}
	courseByCode := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		courseByCode[c.Code] = c
	}

	rooms := make(map[roomKey]string)
	instructors := make(map[instructorKey]string)
	cohorts := make(map[cohortKey]string)
	scheduled := make(map[demandKey]int)

	clash := func(a model.Assignment, slot int, what string) {
		v.Conflicts = append(v.Conflicts, model.Conflict{
			Kind:       model.DoubleBooking,
			CourseCode: a.CourseCode,
			Session:    a.Session,
			Message:    fmt.Sprintf("%s assigned multiple times on %s %s (%s %s)", what, a.Day, cal.RangeLabel(slot, 1), a.CourseCode, a.Session),
		})
	}

	for _, a := range assignments {
		scheduled[demandKey{a.CourseCode, a.Session}]++

		length := a.Length
		wantLength := 1
		if a.Session == model.Lab {
			wantLength = blockLength
		}
		if length != wantLength || !cal.HasDay(a.Day) || !cal.IsContiguous(a.Slot, length) {
			v.BadBlock = true
			v.Conflicts = append(v.Conflicts, model.Conflict{
				Kind:       model.InvalidBlock,
				CourseCode: a.CourseCode,
				Session:    a.Session,
				Message:    fmt.Sprintf("%s %s on %s uses an invalid slot range (start %d, length %d)", a.CourseCode, a.Session, a.Day, a.Slot, length),
			})
			if length < 1 {
				continue
			}
		}

		course := courseByCode[a.CourseCode]
		for _, slot := range a.Slots() {
			rk := roomKey{a.Day, slot, a.RoomID}
			if _, used := rooms[rk]; used {
				v.RoomCollision = true
				clash(a, slot, fmt.Sprintf("Room %d", a.RoomID))
			} else {
				rooms[rk] = a.CourseCode
			}

			ik := instructorKey{a.Day, slot, a.InstructorID}
			if _, used := instructors[ik]; used {
				v.InstructorCollision = true
				clash(a, slot, fmt.Sprintf("Instructor %d", a.InstructorID))
			} else {
				instructors[ik] = a.CourseCode
			}

			if course == nil {
				continue
			}
			ck := cohortKey{a.Day, slot, course.Cohort()}
			if other, used := cohorts[ck]; used && other != a.CourseCode {
				v.CohortCollision = true
				clash(a, slot, fmt.Sprintf("Cohort %s year %d", course.Domain, course.Year))
			} else if !used {
				cohorts[ck] = a.CourseCode
			}
		}
	}

	known := make(map[demandKey]bool)
	for _, c := range reported {
		if c.Kind == model.UnmetDemand || c.Kind == model.NoSuitableRoom {
			known[demandKey{c.CourseCode, c.Session}] = true
		}
	}

	for _, c := range courses {
		for _, session := range []model.SessionType{model.Lecture, model.Lab} {
			key := demandKey{c.Code, session}
			required := demandOf(c, session)
			got := scheduled[key]
			switch {
			case got > required:
				v.Excess = true
				v.Conflicts = append(v.Conflicts, model.Conflict{
					Kind:       model.OverScheduled,
					CourseCode: c.Code,
					Session:    session,
					Required:   required,
					Scheduled:  got,
					Message:    fmt.Sprintf("%s %s scheduled %d times but only %d required", c.Code, session, got, required),
				})
			case got < required:
				v.Shortfall = true
				if known[key] {
					continue
				}
				v.Conflicts = append(v.Conflicts, model.Conflict{
					Kind:       model.UnmetDemand,
					CourseCode: c.Code,
					Session:    session,
					Required:   required,
					Scheduled:  got,
					Message:    fmt.Sprintf("Could not allocate all required %s sessions for %s. Allocated %d out of %d", session, c.Code, got, required),
				})
			}
		}
	}
	return v
}
