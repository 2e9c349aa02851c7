package model

import (
	"fmt"
	"strings"
)

type SessionType int

const (
	Lecture SessionType = iota
	Lab
)

func (s SessionType) String() string {
	if s == Lab {
		return "Lab"
	}
	return "Lecture"
}

func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lecture":
		return Lecture, nil
	case "lab", "laboratory":
		return Lab, nil
	}
	return 0, fmt.Errorf("unknown session type %q", s)
}

// Cohort is the group of students (same domain, same year) that shares a schedule.
type Cohort struct {
	Domain string
	Year   int
}

type Course struct {
	Code              string
	Subject           string
	Domain            string
	Year              int
	Students          int
	LectureSessions   int
	LabSessions       int
	LectureInstructor *int // nil: no lectures offered
	LabInstructor     *int // nil: no labs offered
	Pattern           RecurrencePattern
}

func (c *Course) Cohort() Cohort {
	return Cohort{Domain: c.Domain, Year: c.Year}
}

// Instructor returns the instructor teaching the given session type.
func (c *Course) Instructor(session SessionType) (int, bool) {
	ref := c.LectureInstructor
	if session == Lab {
		ref = c.LabInstructor
	}
	if ref == nil {
		return 0, false
	}
	return *ref, true
}

// Required returns the number of sessions of the given type the course asks for.
func (c *Course) Required(session SessionType) int {
	if session == Lab {
		return c.LabSessions
	}
	return c.LectureSessions
}

// InstructorRef is a convenience for building optional instructor references.
func InstructorRef(id int) *int {
	return &id
}

// CourseCSV is the persisted course record. Instructor columns use "0" or an
// empty value for "no instructor".
type CourseCSV struct {
	Code              string `csv:"code"`
	Subject           string `csv:"subject"`
	Domain            string `csv:"domain"`
	Year              int    `csv:"year"`
	Students          int    `csv:"students"`
	LectureHours      int    `csv:"lecture_hours"`
	LabHours          int    `csv:"lab_hours"`
	LectureInstructor string `csv:"lecture_instructor"`
	LabInstructor     string `csv:"lab_instructor"`
	SchedulePattern   string `csv:"schedule_pattern"`
}
