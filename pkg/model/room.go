package model

import "strings"

type RoomType string

const (
	RoomLecture RoomType = "Lecture"
	RoomLab     RoomType = "Lab"
)

// ParseRoomType is lenient about case and surrounding space.
func ParseRoomType(s string) (RoomType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lecture":
		return RoomLecture, true
	case "lab":
		return RoomLab, true
	}
	return "", false
}

type Room struct {
	ID        int      `csv:"id"`
	Capacity  int      `csv:"capacity"`
	AVSupport bool     `csv:"av_support"`
	Computers int      `csv:"computers"`
	Type      RoomType `csv:"room_type"`
}

// Serves reports whether the room's type and equipment fit a session type.
func (r Room) Serves(session SessionType) bool {
	switch session {
	case Lecture:
		return r.Type == RoomLecture
	case Lab:
		return r.Type == RoomLab && r.Computers > 0
	}
	return false
}
