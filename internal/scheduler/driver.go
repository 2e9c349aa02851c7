package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rhyrak/go-timetable/pkg/model"
)

// ErrNoAttempts is returned when generation was stopped before any attempt finished.
var ErrNoAttempts = errors.New("no attempt completed")

// Result is the timetable of one attempt, or the best one a Generate call found.
type Result struct {
	Assignments []model.Assignment
	Conflicts   []model.Conflict
	Report      string

	Attempt     int
	Seed        int64
	Strategy    Strategy
	AttemptsRun int
	Aborted     bool
	Calendar    model.Calendar
}

// ConflictMessages returns the conflicts as plain text.
func (r *Result) ConflictMessages() []string {
	out := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		out[i] = c.String()
	}
	return out
}

// Filter returns the assignments of one cohort. An empty domain or a zero
// year matches everything.
func (r *Result) Filter(courses []*model.Course, domain string, year int) []model.Assignment {
	byCode := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		byCode[c.Code] = c
	}
	var out []model.Assignment
	for _, a := range r.Assignments {
		c, ok := byCode[a.CourseCode]
		if !ok {
			continue
		}
		if domain != "" && c.Domain != domain {
			continue
		}
		if year != 0 && c.Year != year {
			continue
		}
		out = append(out, a)
	}
	return out
}

// better reports whether r should replace best: fewer conflicts, or the same
// count from an earlier attempt.
func (r *Result) better(best *Result) bool {
	if best == nil {
		return true
	}
	if len(r.Conflicts) != len(best.Conflicts) {
		return len(r.Conflicts) < len(best.Conflicts)
	}
	return r.Attempt < best.Attempt
}

// Observer receives a callback per finished attempt and per Generate call.
type Observer interface {
	ObserveAttempt(strategy Strategy, conflicts int, elapsed time.Duration)
	ObserveResult(r *Result, elapsed time.Duration)
}

type Generator struct {
	logger   *zap.Logger
	observer Observer
}

func NewGenerator(logger *zap.Logger, observer Observer) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger, observer: observer}
}

// Generate runs with a no-op logger and no observer.
func Generate(ctx context.Context, rooms []model.Room, courses []*model.Course, instructors []model.Instructor, cfg Config) (*Result, error) {
	return NewGenerator(nil, nil).Generate(ctx, rooms, courses, instructors, cfg)
}

// Generate runs up to cfg.MaxAttempts independent attempts and returns the
// one with the fewest conflicts, stopping at the first conflict-free attempt.
// Identical inputs and config give identical results. Cancelling ctx or
// exceeding cfg.TimeBudget stops before the next attempt; the best result so
// far is returned with Aborted set.
func (g *Generator) Generate(ctx context.Context, rooms []model.Room, courses []*model.Course, instructors []model.Instructor, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if cfg.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.TimeBudget)
		defer cancel()
	}

	idx := newIndex(courses, instructors)
	start := time.Now()

	g.logger.Info("generating timetable",
		zap.Int("rooms", len(rooms)),
		zap.Int("courses", len(courses)),
		zap.Int("instructors", len(instructors)),
		zap.Int("max_attempts", cfg.MaxAttempts),
		zap.Int("workers", cfg.Workers),
		zap.Int64("seed", cfg.RandomSeed),
	)

	best, ran := g.bestOf(ctx, cfg, func(attempt int) *Result {
		began := time.Now()
		r := runAttempt(attempt, cfg, rooms, courses, idx)
		if g.observer != nil {
			g.observer.ObserveAttempt(r.Strategy, len(r.Conflicts), time.Since(began))
		}
		return r
	})
	if best == nil {
		return nil, fmt.Errorf("generate timetable: %w: %v", ErrNoAttempts, ctx.Err())
	}
	best.AttemptsRun = ran
	best.Aborted = ctx.Err() != nil && len(best.Conflicts) > 0 && ran < cfg.MaxAttempts

	elapsed := time.Since(start)
	if g.observer != nil {
		g.observer.ObserveResult(best, elapsed)
	}
	if len(best.Conflicts) == 0 {
		g.logger.Info("found conflict-free timetable",
			zap.Int("attempt", best.Attempt+1),
			zap.Stringer("strategy", best.Strategy),
			zap.Int("assignments", len(best.Assignments)),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		g.logger.Warn("using best timetable found",
			zap.Int("conflicts", len(best.Conflicts)),
			zap.Int("attempt", best.Attempt+1),
			zap.Int("attempts_run", ran),
			zap.Bool("aborted", best.Aborted),
			zap.Duration("elapsed", elapsed),
		)
	}
	return best, nil
}

type attemptFunc func(attempt int) *Result

// bestHolder is the only state shared between concurrent attempts.
type bestHolder struct {
	mu      sync.Mutex
	best    *Result
	perfect int // index of the earliest conflict-free attempt, -1 if none
}

func (h *bestHolder) offer(r *Result) (improved bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(r.Conflicts) == 0 && (h.perfect < 0 || r.Attempt < h.perfect) {
		h.perfect = r.Attempt
	}
	if r.better(h.best) {
		h.best = r
		return true
	}
	return false
}

// stopBefore reports whether attempt i can no longer beat the held result.
func (h *bestHolder) stopBefore(i int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.perfect >= 0 && i > h.perfect
}

func (g *Generator) bestOf(ctx context.Context, cfg Config, run attemptFunc) (*Result, int) {
	holder := &bestHolder{perfect: -1}
	var ran atomic.Int64

	record := func(r *Result) {
		ran.Add(1)
		g.logger.Debug("attempt finished",
			zap.Int("attempt", r.Attempt+1),
			zap.Stringer("strategy", r.Strategy),
			zap.Int("conflicts", len(r.Conflicts)),
		)
		if holder.offer(r) && len(r.Conflicts) > 0 {
			g.logger.Info("new best timetable",
				zap.Int("attempt", r.Attempt+1),
				zap.Int("conflicts", len(r.Conflicts)),
			)
		}
	}

	if cfg.Workers <= 1 {
		for i := 0; i < cfg.MaxAttempts; i++ {
			if ctx.Err() != nil || holder.stopBefore(i) {
				break
			}
			record(run(i))
		}
		return holder.best, int(ran.Load())
	}

	// Attempts are submitted in index order, so once attempt k is
	// conflict-free every attempt before k has already been started.
	var group errgroup.Group
	group.SetLimit(cfg.Workers)
	for i := 0; i < cfg.MaxAttempts; i++ {
		if ctx.Err() != nil || holder.stopBefore(i) {
			break
		}
		attempt := i
		group.Go(func() error {
			if holder.stopBefore(attempt) {
				return nil
			}
			record(run(attempt))
			return nil
		})
	}
	_ = group.Wait()
	return holder.best, int(ran.Load())
}

// runAttempt is one full pipeline: expand, allocate, verify. It shares no
// mutable state with other attempts.
func runAttempt(attempt int, cfg Config, rooms []model.Room, courses []*model.Course, idx *index) *Result {
	seed := cfg.RandomSeed + int64(attempt)
	strategy := StrategyFor(cfg.StrategyVariant + attempt)
	rng := rand.New(rand.NewSource(seed))

	tracker := NewTracker(cfg.Calendar)
	for _, r := range cfg.Reserved {
		tracker.Hold(r)
	}
	alloc := newAllocator(cfg, rooms, idx, strategy, rng, tracker)
	alloc.FillCourses(courses)

	verification := Verify(alloc.assignments, courses, cfg.Calendar, cfg.LabBlockLength, alloc.conflicts)
	conflicts := append(alloc.conflicts, verification.Conflicts...)

	return &Result{
		Assignments: alloc.assignments,
		Conflicts:   conflicts,
		Report:      verification.Report(),
		Attempt:     attempt,
		Seed:        seed,
		Strategy:    strategy,
		Calendar:    cfg.Calendar,
	}
}
