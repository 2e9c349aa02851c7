package model

// Reservation blocks a time range before any course is placed: a busy
// lecturer, a room taken by another department or a cohort's fixed
// commitment. Nil fields are not held.
type Reservation struct {
	Day          Day
	Slot         int
	Length       int
	RoomID       *int
	InstructorID *int
	Cohort       *Cohort
	Note         string
}

// ReservationCSV is the persisted reservation record. Time uses the same
// "9:00 - 11:00" labels as the timetable export. Id columns use "0" or an
// empty value for "not held", and the cohort is held only when domain is set.
type ReservationCSV struct {
	Day          string `csv:"day"`
	Time         string `csv:"time"`
	RoomID       string `csv:"room_id"`
	InstructorID string `csv:"instructor_id"`
	Domain       string `csv:"domain"`
	Year         string `csv:"year"`
	Note         string `csv:"note"`
}
