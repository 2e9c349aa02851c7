package model

import (
	"fmt"
	"strings"
)

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (d Day) String() string {
	if d < 0 || int(d) >= len(dayNames) {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts full or three letter day names, case insensitive.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dayNames {
		lower := strings.ToLower(name)
		if s == lower || s == lower[:3] {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Period is one hour-long teaching unit. Start and End are minutes after midnight.
type Period struct {
	Start int
	End   int
}

func (p Period) String() string {
	return formatClock(p.Start) + " - " + formatClock(p.End)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// Calendar is the weekly grid every attempt schedules into.
type Calendar struct {
	Days    []Day
	Periods []Period
}

// NewDefaultCalendar returns Monday..Saturday with seven periods per day and
// a lunch break between 13:00 and 14:00.
func NewDefaultCalendar() Calendar {
	return Calendar{
		Days: []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday},
		Periods: []Period{
			{Start: 9 * 60, End: 10 * 60},
			{Start: 10 * 60, End: 11 * 60},
			{Start: 11 * 60, End: 12 * 60},
			{Start: 12 * 60, End: 13 * 60},
			{Start: 14 * 60, End: 15 * 60},
			{Start: 15 * 60, End: 16 * 60},
			{Start: 16 * 60, End: 17 * 60},
		},
	}
}

// SlotCount is the number of periods in one day.
func (c Calendar) SlotCount() int {
	return len(c.Periods)
}

// HasDay reports whether d is part of the teaching week.
func (c Calendar) HasDay(d Day) bool {
	for _, day := range c.Days {
		if day == d {
			return true
		}
	}
	return false
}

// IsContiguous reports whether periods start..start+length-1 exist and follow
// each other without a gap.
func (c Calendar) IsContiguous(start, length int) bool {
	if start < 0 || length <= 0 || start+length > len(c.Periods) {
		return false
	}
	for i := start + 1; i < start+length; i++ {
		if c.Periods[i].Start != c.Periods[i-1].End {
			return false
		}
	}
	return true
}

// RangeLabel formats the wall clock span of a slot range, e.g. "9:00 - 11:00".
func (c Calendar) RangeLabel(start, length int) string {
	if start < 0 || length <= 0 || start+length > len(c.Periods) {
		return ""
	}
	return formatClock(c.Periods[start].Start) + " - " + formatClock(c.Periods[start+length-1].End)
}

// ParseRange is the inverse of RangeLabel.
func (c Calendar) ParseRange(label string) (start, length int, err error) {
	from, to, ok := strings.Cut(label, "-")
	if !ok {
		return 0, 0, fmt.Errorf("time range %q: missing '-'", label)
	}
	begin, err := parseClock(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(to)
	if err != nil {
		return 0, 0, err
	}
	start = -1
	for i, p := range c.Periods {
		if p.Start == begin {
			start = i
		}
		if start >= 0 && p.End == end {
			return start, i - start + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("time range %q does not match the calendar", label)
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	return h*60 + m, nil
}

// RecurrencePattern names the group of days a course lectures on.
type RecurrencePattern string

const (
	PatternMWF RecurrencePattern = "MWF"
	PatternTTS RecurrencePattern = "TTS"
)

// Days returns the pattern's days in week order. Unknown patterns fall back to MWF.
func (p RecurrencePattern) Days() []Day {
	switch p {
	case PatternTTS:
		return []Day{Tuesday, Thursday, Saturday}
	default:
		return []Day{Monday, Wednesday, Friday}
	}
}

// ParsePattern normalises a stored pattern. Empty input means MWF.
func ParsePattern(s string) (RecurrencePattern, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "MWF":
		return PatternMWF, nil
	case "TTS":
		return PatternTTS, nil
	default:
		return "", fmt.Errorf("unknown schedule pattern %q", s)
	}
}
