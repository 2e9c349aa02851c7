package csvio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// ReadReserved parses pre-existing bookings:
// day,time,room_id,instructor_id,domain,year,note. An empty time holds the
// whole day, which is how a lecturer's busy day is written.
func ReadReserved(in io.Reader, delim rune, cal model.Calendar) ([]model.Reservation, error) {
	var rows []*model.ReservationCSV
	if err := gocsv.UnmarshalCSV(newReader(in, delim), &rows); err != nil {
		return nil, fmt.Errorf("parse reservations: %w", err)
	}

	out := make([]model.Reservation, 0, len(rows))
	for i, row := range rows {
		r, err := reservationFromRow(row, cal)
		if err != nil {
			return nil, fmt.Errorf("reservation row %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func LoadReserved(path string, delim rune, cal model.Calendar) ([]model.Reservation, error) {
	return openAndRead(path, func(r io.Reader) ([]model.Reservation, error) { return ReadReserved(r, delim, cal) })
}

func reservationFromRow(row *model.ReservationCSV, cal model.Calendar) (model.Reservation, error) {
	day, err := model.ParseDay(row.Day)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	r := model.Reservation{Day: day, Length: cal.SlotCount(), Note: strings.TrimSpace(row.Note)}
	if label := strings.TrimSpace(row.Time); label != "" {
		r.Slot, r.Length, err = cal.ParseRange(label)
		if err != nil {
			return model.Reservation{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}

	if r.RoomID, err = parseHeldID("room", row.RoomID); err != nil {
		return model.Reservation{}, err
	}
	if r.InstructorID, err = parseHeldID("instructor", row.InstructorID); err != nil {
		return model.Reservation{}, err
	}
	if domain := strings.TrimSpace(row.Domain); domain != "" {
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if err != nil || year < 1 {
			return model.Reservation{}, fmt.Errorf("%w: cohort year %q", ErrInvalidRecord, row.Year)
		}
		r.Cohort = &model.Cohort{Domain: domain, Year: year}
	}

	if r.RoomID == nil && r.InstructorID == nil && r.Cohort == nil {
		return model.Reservation{}, fmt.Errorf("%w: reservation holds nothing", ErrInvalidRecord)
	}
	return r, nil
}

func parseHeldID(what, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return nil, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: %s id %q", ErrInvalidRecord, what, s)
	}
	return &id, nil
}
