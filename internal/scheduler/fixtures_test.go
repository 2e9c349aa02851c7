package scheduler

import (
	"fmt"
	"math/rand"

	"github.com/rhyrak/go-timetable/pkg/model"
)

func lectureRoom(id, capacity int) model.Room {
	return model.Room{ID: id, Capacity: capacity, AVSupport: true, Type: model.RoomLecture}
}

func labRoom(id, capacity, computers int) model.Room {
	return model.Room{ID: id, Capacity: capacity, Computers: computers, Type: model.RoomLab}
}

func course(code, domain string, year, students, lectures, labs int, lectureBy, labBy *int, pattern model.RecurrencePattern) *model.Course {
	return &model.Course{
		Code:              code,
		Subject:           code + " subject",
		Domain:            domain,
		Year:              year,
		Students:          students,
		LectureSessions:   lectures,
		LabSessions:       labs,
		LectureInstructor: lectureBy,
		LabInstructor:     labBy,
		Pattern:           pattern,
	}
}

func testAllocator(cfg Config, rooms []model.Room, courses []*model.Course, tracker *Tracker) *allocator {
	cfg = cfg.withDefaults()
	return newAllocator(cfg, rooms, newIndex(courses, nil), StrategyFor(cfg.StrategyVariant), rand.New(rand.NewSource(cfg.RandomSeed)), tracker)
}

// randomInstance builds a mid-sized department with a few cohorts sharing
// instructors and rooms.
func randomInstance(seed int64) ([]model.Room, []*model.Course, []model.Instructor) {
	rng := rand.New(rand.NewSource(seed))
	var rooms []model.Room
	for i := 1; i <= 4; i++ {
		rooms = append(rooms, lectureRoom(100+i, 30+rng.Intn(60)))
	}
	for i := 1; i <= 2; i++ {
		rooms = append(rooms, labRoom(200+i, 25+rng.Intn(30), rng.Intn(3)*10))
	}
	var instructors []model.Instructor
	for i := 1; i <= 6; i++ {
		instructors = append(instructors, model.Instructor{ID: i, FirstName: fmt.Sprintf("Instructor%d", i), Department: "CSE"})
	}
	domains := []string{"CSE", "Mathematics"}
	patterns := []model.RecurrencePattern{model.PatternMWF, model.PatternTTS}
	var courses []*model.Course
	for i := 0; i < 12; i++ {
		var labBy *int
		if rng.Intn(2) == 0 {
			labBy = model.InstructorRef(1 + rng.Intn(6))
		}
		courses = append(courses, course(
			fmt.Sprintf("C%02d", i),
			domains[rng.Intn(len(domains))],
			1+rng.Intn(2),
			20+rng.Intn(50),
			1+rng.Intn(4),
			rng.Intn(3),
			model.InstructorRef(1+rng.Intn(6)),
			labBy,
			patterns[rng.Intn(len(patterns))],
		))
	}
	return rooms, courses, instructors
}
