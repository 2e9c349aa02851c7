package scheduler

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/go-timetable/pkg/model"
)

func TestGenerateSingleCourse(t *testing.T) {
	rooms := []model.Room{lectureRoom(1, 50)}
	courses := []*model.Course{
		course("CS101", "CSE", 1, 40, 3, 0, model.InstructorRef(1), nil, model.PatternMWF),
	}
	instructors := []model.Instructor{{ID: 1, FirstName: "Grace", LastName: "Hopper"}}

	res, err := Generate(context.Background(), rooms, courses, instructors, NewDefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, res.AttemptsRun)
	assert.Equal(t, 0, res.Attempt)
	require.Len(t, res.Assignments, 3)
	assert.Equal(t, res.Assignments[0].Slot, res.Assignments[2].Slot)
	assert.Contains(t, res.Report, "[  OK]: Course demand check.")
}

func fakeResult(attempt, conflicts int) *Result {
	return &Result{Attempt: attempt, Conflicts: make([]model.Conflict, conflicts), Strategy: StrategyFor(attempt)}
}

func TestBestOfStopsAtFirstPerfectAttempt(t *testing.T) {
	g := NewGenerator(nil, nil)
	cfg := NewDefaultConfig()
	counts := []int{3, 0, 0, 1}
	var calls []int

	best, ran := g.bestOf(context.Background(), cfg, func(i int) *Result {
		calls = append(calls, i)
		return fakeResult(i, counts[i%len(counts)])
	})

	require.NotNil(t, best)
	assert.Equal(t, 1, best.Attempt)
	assert.Empty(t, best.Conflicts)
	assert.Equal(t, []int{0, 1}, calls, "no third attempt")
	assert.Equal(t, 2, ran)
}

func TestBestOfKeepsFewestConflicts(t *testing.T) {
	g := NewGenerator(nil, nil)
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 6
	counts := []int{5, 2, 4, 2, 7, 3}

	best, ran := g.bestOf(context.Background(), cfg, func(i int) *Result {
		return fakeResult(i, counts[i])
	})

	assert.Equal(t, 6, ran)
	assert.Equal(t, 1, best.Attempt, "earliest of the tied attempts")
	for _, c := range counts {
		assert.LessOrEqual(t, len(best.Conflicts), c)
	}
}

func TestBestOfConcurrentMatchesSequential(t *testing.T) {
	g := NewGenerator(nil, nil)
	counts := []int{6, 4, 5, 0, 2, 0, 0, 1, 3, 3}
	run := func(i int) *Result { return fakeResult(i, counts[i]) }

	cfg := NewDefaultConfig()
	cfg.MaxAttempts = len(counts)
	seq, seqRan := g.bestOf(context.Background(), cfg, run)

	cfg.Workers = 4
	var mu sync.Mutex
	seen := map[int]bool{}
	par, _ := g.bestOf(context.Background(), cfg, func(i int) *Result {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return run(i)
	})

	assert.Equal(t, 4, seqRan)
	assert.Equal(t, seq.Attempt, par.Attempt)
	assert.Equal(t, 3, par.Attempt)
	for i := 0; i < 3; i++ {
		assert.True(t, seen[i], "attempt %d must run before the result is final", i)
	}
}

func TestGenerateCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, nil, nil, nil, NewDefaultConfig())
	assert.ErrorIs(t, err, ErrNoAttempts)
}

// cancelAfter cancels the run once n attempts have been observed.
type cancelAfter struct {
	n        int
	cancel   context.CancelFunc
	attempts int
	results  []*Result
}

func (o *cancelAfter) ObserveAttempt(Strategy, int, time.Duration) {
	o.attempts++
	if o.attempts == o.n {
		o.cancel()
	}
}

func (o *cancelAfter) ObserveResult(r *Result, _ time.Duration) {
	o.results = append(o.results, r)
}

func TestGenerateCancelledMidRun(t *testing.T) {
	// no room is large enough, so no attempt can be conflict-free
	rooms := []model.Room{lectureRoom(1, 10)}
	courses := []*model.Course{
		course("CS101", "CSE", 1, 40, 3, 0, model.InstructorRef(1), nil, model.PatternMWF),
	}
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &cancelAfter{n: 2, cancel: cancel}

	res, err := NewGenerator(nil, obs).Generate(ctx, rooms, courses, nil, cfg)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.AttemptsRun)
	assert.Equal(t, 2, obs.attempts)
	assert.True(t, res.Aborted)
	assert.NotEmpty(t, res.Conflicts)
	assert.Equal(t, 0, res.Attempt, "tied attempts keep the earliest")
	require.Len(t, obs.results, 1)
	assert.Same(t, res, obs.results[0])
}

func TestGenerateNotAbortedWhenAllAttemptsRan(t *testing.T) {
	rooms := []model.Room{lectureRoom(1, 10)}
	courses := []*model.Course{
		course("CS101", "CSE", 1, 40, 3, 0, model.InstructorRef(1), nil, model.PatternMWF),
	}
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 3

	res, err := Generate(context.Background(), rooms, courses, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AttemptsRun)
	assert.False(t, res.Aborted)
	assert.NotEmpty(t, res.Conflicts)
}

func TestGenerateHonoursReservations(t *testing.T) {
	rooms := []model.Room{labRoom(1, 40, 30)}
	courses := []*model.Course{
		course("CS110", "CSE", 1, 30, 0, 1, nil, model.InstructorRef(2), model.PatternMWF),
	}
	room := 1
	cfg := NewDefaultConfig()
	cfg.Reserved = []model.Reservation{{Day: model.Monday, Slot: 0, Length: 1, RoomID: &room, Note: "faculty meeting"}}

	res, err := Generate(context.Background(), rooms, courses, nil, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	require.Len(t, res.Assignments, 1)
	a := res.Assignments[0]
	assert.Equal(t, model.Monday, a.Day)
	assert.Equal(t, 1, a.Slot, "the lab skips the reserved 9:00 slot")
	assert.Equal(t, 2, a.Length)

	// a lecturer busy all Monday pushes the lab to Tuesday
	cfg.Reserved = []model.Reservation{{Day: model.Monday, Slot: 0, Length: cfg.Calendar.SlotCount(), InstructorID: model.InstructorRef(2)}}
	res, err = Generate(context.Background(), rooms, courses, nil, cfg)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, model.Tuesday, res.Assignments[0].Day)
	assert.Equal(t, 0, res.Assignments[0].Slot)
}

func TestGenerateIsDeterministic(t *testing.T) {
	rooms, courses, instructors := randomInstance(7)
	cfg := NewDefaultConfig()
	cfg.RandomSeed = 1234
	cfg.MaxAttempts = 20
	cfg.StrategyVariant = 3

	a, err := Generate(context.Background(), rooms, courses, instructors, cfg)
	require.NoError(t, err)
	b, err := Generate(context.Background(), rooms, courses, instructors, cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Conflicts, b.Conflicts)
	assert.Equal(t, a.Attempt, b.Attempt)

	cfg.Workers = 3
	c, err := Generate(context.Background(), rooms, courses, instructors, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Assignments, c.Assignments)
	assert.Equal(t, a.Conflicts, c.Conflicts)
}

func TestGenerateTimetableProperties(t *testing.T) {
	for seed := int64(1); seed <= 15; seed++ {
		rooms, courses, instructors := randomInstance(seed)
		cfg := NewDefaultConfig()
		cfg.RandomSeed = seed
		cfg.MaxAttempts = 8
		cfg.StrategyVariant = int(seed) * 5

		res, err := Generate(context.Background(), rooms, courses, instructors, cfg)
		require.NoError(t, err)
		checkTimetable(t, res, courses, cfg)
	}
}

func checkTimetable(t *testing.T, res *Result, courses []*model.Course, cfg Config) {
	t.Helper()
	byCode := map[string]*model.Course{}
	for _, c := range courses {
		byCode[c.Code] = c
	}
	type key struct {
		day  model.Day
		slot int
		id   string
	}
	taken := map[key]string{}
	book := func(k key, code string, sameCourseOK bool) {
		if other, ok := taken[k]; ok {
			if !(sameCourseOK && other == code) {
				t.Errorf("double booking at %v between %s and %s", k, other, code)
			}
			return
		}
		taken[k] = code
	}

	count := map[string]int{}
	for _, a := range res.Assignments {
		c := byCode[a.CourseCode]
		require.NotNil(t, c)
		if a.Session == model.Lab {
			assert.Equal(t, cfg.LabBlockLength, a.Length)
			assert.True(t, cfg.Calendar.IsContiguous(a.Slot, a.Length))
		} else {
			assert.Equal(t, 1, a.Length)
		}
		for _, s := range a.Slots() {
			book(key{a.Day, s, "room" + itoa(a.RoomID)}, a.CourseCode, false)
			book(key{a.Day, s, "instructor" + itoa(a.InstructorID)}, a.CourseCode, false)
			book(key{a.Day, s, "cohort" + c.Domain + itoa(c.Year)}, a.CourseCode, true)
		}
		count[a.CourseCode+a.Session.String()]++
	}

	reported := map[string]bool{}
	for _, c := range res.Conflicts {
		assert.NotEqual(t, model.DoubleBooking, c.Kind)
		reported[c.CourseCode+c.Session.String()] = true
	}
	for _, c := range courses {
		for _, session := range []model.SessionType{model.Lecture, model.Lab} {
			got := count[c.Code+session.String()]
			required := demandOf(c, session)
			assert.LessOrEqual(t, got, required, "%s %s", c.Code, session)
			if got < required {
				assert.True(t, reported[c.Code+session.String()], "shortfall of %s %s must be reported", c.Code, session)
			}
		}
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func TestResultFilter(t *testing.T) {
	courses := []*model.Course{
		course("CS101", "CSE", 1, 40, 1, 0, model.InstructorRef(1), nil, model.PatternMWF),
		course("CS201", "CSE", 2, 40, 1, 0, model.InstructorRef(1), nil, model.PatternMWF),
		course("MA101", "Mathematics", 1, 40, 1, 0, model.InstructorRef(1), nil, model.PatternMWF),
	}
	res := &Result{Assignments: []model.Assignment{
		{CourseCode: "CS101"}, {CourseCode: "CS201"}, {CourseCode: "MA101"}, {CourseCode: "GONE"},
	}}

	assert.Len(t, res.Filter(courses, "", 0), 3)
	assert.Len(t, res.Filter(courses, "CSE", 0), 2)
	got := res.Filter(courses, "", 1)
	require.Len(t, got, 2)
	assert.Equal(t, "MA101", got[1].CourseCode)
	assert.Len(t, res.Filter(courses, "CSE", 2), 1)
}
