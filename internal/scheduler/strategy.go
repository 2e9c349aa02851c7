package scheduler

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"strings"

	"github.com/rhyrak/go-timetable/pkg/model"
)

type (
	CourseOrder func(courses []*model.Course, rooms []model.Room, rng *rand.Rand) []*model.Course
	RoomOrder   func(ranked []model.Room, rng *rand.Rand) []model.Room
	DayOrder    func(days []model.Day, rng *rand.Rand) []model.Day
	SlotOrder   func(slots []int, rng *rand.Rand) []int
)

// Strategy bundles the four ordering policies an attempt runs with.
// Policies never modify their input slices.
type Strategy struct {
	Variant int
	Name    string
	Courses CourseOrder
	Rooms   RoomOrder
	Days    DayOrder
	Slots   SlotOrder
}

const (
	courseOrders = 4
	roomOrders   = 3
	dayOrders    = 3
	slotOrders   = 2

	// NumVariants is the number of distinct policy combinations.
	NumVariants = courseOrders * roomOrders * dayOrders * slotOrders
)

var (
	courseOrderPolicies = []struct {
		name string
		fn   CourseOrder
	}{
		{"canonical", canonicalCourseOrder},
		{"largest-first", largestCourseFirst},
		{"most-constrained", mostConstrainedFirst},
		{"random", shuffledCourses},
	}
	roomOrderPolicies = []struct {
		name string
		fn   RoomOrder
	}{
		{"best-fit", bestFitRooms},
		{"largest-room", largestRoomFirst},
		{"random-room", shuffledRooms},
	}
	dayOrderPolicies = []struct {
		name string
		fn   DayOrder
	}{
		{"week", naturalDays},
		{"reverse-week", reversedDays},
		{"random-days", shuffledDays},
	}
	slotOrderPolicies = []struct {
		name string
		fn   SlotOrder
	}{
		{"chronological", naturalSlots},
		{"random-slots", shuffledSlots},
	}
)

// StrategyFor decodes a variant index into its policies. Variant 0 is fully
// deterministic: canonical course order, best-fit rooms, week and
// chronological order.
func StrategyFor(variant int) Strategy {
	v := ((variant % NumVariants) + NumVariants) % NumVariants
	c := courseOrderPolicies[v%courseOrders]
	r := roomOrderPolicies[(v/courseOrders)%roomOrders]
	d := dayOrderPolicies[(v/(courseOrders*roomOrders))%dayOrders]
	s := slotOrderPolicies[(v/(courseOrders*roomOrders*dayOrders))%slotOrders]
	return Strategy{
		Variant: v,
		Name:    strings.Join([]string{c.name, r.name, d.name, s.name}, "/"),
		Courses: c.fn,
		Rooms:   r.fn,
		Days:    d.fn,
		Slots:   s.fn,
	}
}

func (s Strategy) String() string {
	return fmt.Sprintf("%d(%s)", s.Variant, s.Name)
}

func demandOf(c *model.Course, session model.SessionType) int {
	if _, ok := c.Instructor(session); !ok {
		return 0
	}
	return c.Required(session)
}

// canonicalLess puts courses with lab demand first, then larger total demand,
// then course code.
func canonicalLess(a, b *model.Course) bool {
	aLab, bLab := demandOf(a, model.Lab) > 0, demandOf(b, model.Lab) > 0
	if aLab != bLab {
		return aLab
	}
	aTotal := demandOf(a, model.Lecture) + demandOf(a, model.Lab)
	bTotal := demandOf(b, model.Lecture) + demandOf(b, model.Lab)
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return a.Code < b.Code
}

func canonicalCourseOrder(courses []*model.Course, _ []model.Room, _ *rand.Rand) []*model.Course {
	out := slices.Clone(courses)
	sort.SliceStable(out, func(i, j int) bool { return canonicalLess(out[i], out[j]) })
	return out
}

func largestCourseFirst(courses []*model.Course, _ []model.Room, _ *rand.Rand) []*model.Course {
	out := slices.Clone(courses)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Students != out[j].Students {
			return out[i].Students > out[j].Students
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// mostConstrainedFirst orders by the number of rooms that could host the
// course's tightest session type.
func mostConstrainedFirst(courses []*model.Course, rooms []model.Room, _ *rand.Rand) []*model.Course {
	options := make(map[string]int, len(courses))
	for _, c := range courses {
		best := len(rooms) + 1
		for _, session := range []model.SessionType{model.Lecture, model.Lab} {
			if demandOf(c, session) == 0 {
				continue
			}
			if n := len(SuitableRooms(rooms, c, session)); n < best {
				best = n
			}
		}
		options[c.Code] = best
	}
	out := slices.Clone(courses)
	sort.SliceStable(out, func(i, j int) bool {
		if oi, oj := options[out[i].Code], options[out[j].Code]; oi != oj {
			return oi < oj
		}
		return canonicalLess(out[i], out[j])
	})
	return out
}

func shuffledCourses(courses []*model.Course, _ []model.Room, rng *rand.Rand) []*model.Course {
	out := slices.Clone(courses)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func bestFitRooms(ranked []model.Room, _ *rand.Rand) []model.Room {
	return slices.Clone(ranked)
}

func largestRoomFirst(ranked []model.Room, _ *rand.Rand) []model.Room {
	out := slices.Clone(ranked)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity > out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func shuffledRooms(ranked []model.Room, rng *rand.Rand) []model.Room {
	out := slices.Clone(ranked)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func naturalDays(days []model.Day, _ *rand.Rand) []model.Day {
	return slices.Clone(days)
}

func reversedDays(days []model.Day, _ *rand.Rand) []model.Day {
	out := slices.Clone(days)
	slices.Reverse(out)
	return out
}

func shuffledDays(days []model.Day, rng *rand.Rand) []model.Day {
	out := slices.Clone(days)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func naturalSlots(slots []int, _ *rand.Rand) []int {
	return slices.Clone(slots)
}

func shuffledSlots(slots []int, rng *rand.Rand) []int {
	out := slices.Clone(slots)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
