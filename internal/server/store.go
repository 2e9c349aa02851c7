package server

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhyrak/go-timetable/internal/csvio"
	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/internal/workbook"
	"github.com/rhyrak/go-timetable/pkg/model"
)

// ErrNotFound is returned for an unknown timetable id.
var ErrNotFound = errors.New("timetable not found")

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job describes one generation request.
type Job struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Seed        int64      `json:"seed"`
	Attempt     int        `json:"attempt"`
	AttemptsRun int        `json:"attemptsRun"`
	Strategy    string     `json:"strategy,omitempty"`
	Assignments int        `json:"assignments"`
	Conflicts   []string   `json:"conflicts"`
	Report      string     `json:"report,omitempty"`
}

// Store keeps job state in memory and the exported CSV files on disk.
type Store struct {
	dir string

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &Store{dir: dir, jobs: make(map[string]*Job)}, nil
}

func (s *Store) Create(seed int64) Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		Seed:      seed,
		Conflicts: []string{},
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return *job
}

func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// List returns all jobs, oldest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) MarkRunning(id string) error {
	return s.update(id, func(j *Job) { j.Status = StatusRunning })
}

func (s *Store) MarkFailed(id string, cause error) error {
	return s.update(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = StatusFailed
		j.Error = cause.Error()
		j.FinishedAt = &now
	})
}

// SaveResult writes the timetable and conflict CSVs and the workbook, then
// marks the job done.
func (s *Store) SaveResult(id string, res *scheduler.Result, courses []*model.Course) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	var timetable, conflicts, book bytes.Buffer
	if err := csvio.WriteTimetable(&timetable, res); err != nil {
		return err
	}
	if err := csvio.WriteConflicts(&conflicts, res.Conflicts); err != nil {
		return err
	}
	if err := workbook.Write(&book, res, courses); err != nil {
		return err
	}
	files := map[string][]byte{
		s.timetablePath(id): timetable.Bytes(),
		s.conflictsPath(id): conflicts.Bytes(),
		s.workbookPath(id):  book.Bytes(),
	}
	for path, content := range files {
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("store %s: %w", filepath.Base(path), err)
		}
	}

	return s.update(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = StatusDone
		j.FinishedAt = &now
		j.Seed = res.Seed
		j.Attempt = res.Attempt
		j.AttemptsRun = res.AttemptsRun
		j.Strategy = res.Strategy.Name
		j.Assignments = len(res.Assignments)
		j.Conflicts = res.ConflictMessages()
		j.Report = res.Report
	})
}

// Timetable returns the stored timetable CSV.
func (s *Store) Timetable(id string) ([]byte, error) {
	return s.read(id, s.timetablePath(id))
}

func (s *Store) Conflicts(id string) ([]byte, error) {
	return s.read(id, s.conflictsPath(id))
}

// Workbook returns the stored xlsx rendering of the timetable.
func (s *Store) Workbook(id string) ([]byte, error) {
	return s.read(id, s.workbookPath(id))
}

func (s *Store) read(id, path string) ([]byte, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *Store) update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	return nil
}

func (s *Store) timetablePath(id string) string {
	return filepath.Join(s.dir, id+"-timetable.csv")
}

func (s *Store) conflictsPath(id string) string {
	return filepath.Join(s.dir, id+"-conflicts.csv")
}

func (s *Store) workbookPath(id string) string {
	return filepath.Join(s.dir, id+"-timetable.xlsx")
}
