package scheduler

import "github.com/rhyrak/go-timetable/pkg/model"

// Demand is one course's outstanding work for one session type.
type Demand struct {
	Course       *model.Course
	Session      model.SessionType
	InstructorID int
	Remaining    int
}

// ExpandSessions turns course requirements into demands, keeping input order.
// A missing instructor means the session type is not offered.
func ExpandSessions(courses []*model.Course) []*Demand {
	var demands []*Demand
	for _, c := range courses {
		for _, session := range []model.SessionType{model.Lecture, model.Lab} {
			required := c.Required(session)
			instructorID, ok := c.Instructor(session)
			if !ok || required <= 0 {
				continue
			}
			demands = append(demands, &Demand{
				Course:       c,
				Session:      session,
				InstructorID: instructorID,
				Remaining:    required,
			})
		}
	}
	return demands
}
