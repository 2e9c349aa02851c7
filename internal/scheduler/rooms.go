package scheduler

import (
	"sort"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// SuitableRooms keeps the rooms whose type, equipment and capacity fit the
// course for the given session type, ranked by best fit. An empty result is
// a data problem no retry can fix.
func SuitableRooms(rooms []model.Room, course *model.Course, session model.SessionType) []model.Room {
	var suitable []model.Room
	for _, r := range rooms {
		if r.Serves(session) && r.Capacity >= course.Students {
			suitable = append(suitable, r)
		}
	}
	rankBestFit(suitable, course.Students)
	return suitable
}

// rankBestFit orders rooms by |capacity - students|, then by id.
func rankBestFit(rooms []model.Room, students int) {
	sort.SliceStable(rooms, func(i, j int) bool {
		di, dj := abs(rooms[i].Capacity-students), abs(rooms[j].Capacity-students)
		if di != dj {
			return di < dj
		}
		return rooms[i].ID < rooms[j].ID
	})
}

// findRoom returns the first room, in the given order, in which the
// instructor and cohort can take the whole slot range.
func findRoom(rooms []model.Room, tracker *Tracker, day model.Day, start, length int, instructorID int, cohort model.Cohort) (model.Room, bool) {
	for _, r := range rooms {
		if tracker.IsRangeFree(day, start, length, r.ID, instructorID, cohort) {
			return r, true
		}
	}
	return model.Room{}, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
