package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rhyrak/go-timetable/internal/csvio"
	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/pkg/model"
)

func (s *Server) handleListTimetables(ctx *gin.Context) {
	jobs := s.store.List()
	ids := make([]string, len(jobs))
	summaries := make([]gin.H, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
		summaries[i] = gin.H{
			"id":        j.ID,
			"status":    j.Status,
			"createdAt": j.CreatedAt,
			"conflicts": len(j.Conflicts),
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"timetableIds": ids,
		"timetables":   summaries,
	})
}

func (s *Server) handleGetTimetable(ctx *gin.Context) {
	id := ctx.Param("id")
	job, err := s.store.Get(id)
	if err != nil {
		s.respondError(ctx, err)
		return
	}

	resp := gin.H{"timetable": job}
	if job.Status == StatusDone {
		content, err := s.store.Timetable(id)
		if err != nil {
			s.respondError(ctx, err)
			return
		}
		resp["data"] = string(content)
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) handleExportTimetable(ctx *gin.Context) {
	id := ctx.Param("id")
	read := s.store.Timetable
	name := id + "-timetable.csv"
	contentType := "text/csv"
	switch {
	case ctx.Query("kind") == "conflicts":
		read = s.store.Conflicts
		name = id + "-conflicts.csv"
	case ctx.Query("format") == "xlsx":
		read = s.store.Workbook
		name = id + "-timetable.xlsx"
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	content, err := read(id)
	if err != nil {
		s.respondError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Data(http.StatusOK, contentType, content)
}

func (s *Server) handlePostTimetable(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := s.requestConfig(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := s.readDataset(form)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.Reserved = data.Reserved
	job := s.store.Create(cfg.RandomSeed)
	s.wg.Add(1)
	go s.generate(job.ID, data, cfg)

	ctx.JSON(http.StatusAccepted, gin.H{
		"id":     job.ID,
		"status": job.Status,
	})
}

func (s *Server) generate(id string, data *csvio.Dataset, cfg scheduler.Config) {
	defer s.wg.Done()
	log := s.logger.With(zap.String("timetable_id", id))

	if err := s.store.MarkRunning(id); err != nil {
		log.Error("mark running", zap.Error(err))
		return
	}

	res, err := s.generator.Generate(s.ctx, data.Rooms, data.Courses, data.Instructors, cfg)
	if err != nil {
		s.metrics.ObserveFailure()
		log.Error("generation failed", zap.Error(err))
		if err := s.store.MarkFailed(id, err); err != nil {
			log.Error("mark failed", zap.Error(err))
		}
		return
	}

	if err := s.store.SaveResult(id, res, data.Courses); err != nil {
		log.Error("store result", zap.Error(err))
		_ = s.store.MarkFailed(id, err)
		return
	}
	log.Info("timetable stored",
		zap.Int("assignments", len(res.Assignments)),
		zap.Int("conflicts", len(res.Conflicts)),
	)
}

type generateQuery struct {
	Seed     *int64 `form:"seed"`
	Attempts int    `form:"attempts" binding:"omitempty,gt=0"`
	Strategy *int   `form:"strategy" binding:"omitempty,variant"`
}

// requestConfig overlays the seed, attempts and strategy query parameters on
// the server defaults. A missing seed uses the current time.
func (s *Server) requestConfig(ctx *gin.Context) (scheduler.Config, error) {
	cfg := s.base
	cfg.RandomSeed = time.Now().UnixNano()

	var q generateQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		return cfg, fmt.Errorf("query: %w", err)
	}
	if q.Seed != nil {
		cfg.RandomSeed = *q.Seed
	}
	if q.Attempts > 0 {
		cfg.MaxAttempts = q.Attempts
	}
	if q.Strategy != nil {
		cfg.StrategyVariant = *q.Strategy
	}
	return cfg, nil
}

func (s *Server) readDataset(form *multipart.Form) (*csvio.Dataset, error) {
	data := &csvio.Dataset{}
	var err error

	if data.Rooms, err = readPart(form, "rooms", s.delim, csvio.ReadRooms); err != nil {
		return nil, err
	}
	if data.Courses, err = readPart(form, "courses", s.delim, csvio.ReadCourses); err != nil {
		return nil, err
	}
	if data.Instructors, err = readPart(form, "instructors", s.delim, csvio.ReadInstructors); err != nil {
		return nil, err
	}
	if len(form.File["reserved"]) > 0 {
		readReserved := func(r io.Reader, delim rune) ([]model.Reservation, error) {
			return csvio.ReadReserved(r, delim, s.base.Calendar)
		}
		if data.Reserved, err = readPart(form, "reserved", s.delim, readReserved); err != nil {
			return nil, err
		}
	}
	if err := data.CheckReferences(); err != nil {
		return nil, err
	}
	return data, nil
}

func readPart[T any](form *multipart.Form, field string, delim rune, read func(io.Reader, rune) (T, error)) (T, error) {
	var zero T
	files := form.File[field]
	if len(files) == 0 {
		return zero, fmt.Errorf("missing %s file", field)
	}
	f, err := files[0].Open()
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	out, err := read(f, delim)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", field, err)
	}
	return out, nil
}

func (s *Server) respondError(ctx *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("request failed", zap.String("path", ctx.Request.URL.Path), zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
