package model

import "fmt"

// Assignment places one session of a course. Lectures occupy one slot, labs
// occupy Length consecutive slots starting at Slot.
type Assignment struct {
	Day          Day
	Slot         int
	Length       int
	CourseCode   string
	RoomID       int
	InstructorID int
	Session      SessionType
}

// Slots returns the slot indexes the assignment occupies.
func (a Assignment) Slots() []int {
	n := a.Length
	if n < 1 {
		n = 1
	}
	out := make([]int, n)
	for i := range out {
		out[i] = a.Slot + i
	}
	return out
}

type ConflictKind int

const (
	UnmetDemand ConflictKind = iota
	NoSuitableRoom
	DoubleBooking
	InvalidBlock
	OverScheduled
)

func (k ConflictKind) String() string {
	switch k {
	case UnmetDemand:
		return "UnmetDemand"
	case NoSuitableRoom:
		return "NoSuitableRoom"
	case DoubleBooking:
		return "DoubleBooking"
	case InvalidBlock:
		return "InvalidBlock"
	case OverScheduled:
		return "OverScheduled"
	}
	return fmt.Sprintf("ConflictKind(%d)", int(k))
}

// Conflict is unmet demand or a detected resource clash, reported as data.
type Conflict struct {
	Kind       ConflictKind
	CourseCode string
	Session    SessionType
	Required   int
	Scheduled  int
	Message    string
}

func (c Conflict) String() string {
	return c.Message
}

type TimetableCSVRow struct {
	Day          string `csv:"day"`
	Time         string `csv:"time"`
	CourseCode   string `csv:"course_code"`
	RoomID       int    `csv:"room_id"`
	InstructorID int    `csv:"instructor_id"`
	SessionType  string `csv:"session_type"`
}

type ConflictCSVRow struct {
	Kind        string `csv:"kind"`
	CourseCode  string `csv:"course_code"`
	SessionType string `csv:"session_type"`
	Required    int    `csv:"required"`
	Scheduled   int    `csv:"scheduled"`
	Message     string `csv:"message"`
}
