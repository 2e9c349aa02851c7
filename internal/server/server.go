package server

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rhyrak/go-timetable/internal/config"
	"github.com/rhyrak/go-timetable/internal/logger"
	"github.com/rhyrak/go-timetable/internal/metrics"
	"github.com/rhyrak/go-timetable/internal/scheduler"
	"github.com/rhyrak/go-timetable/pkg/model"
)

type Options struct {
	Store     *Store
	Logger    *zap.Logger
	Metrics   *metrics.Collector
	Config    scheduler.Config
	Delimiter rune
}

// Server runs generation requests in the background and serves their results.
type Server struct {
	store     *Store
	logger    *zap.Logger
	metrics   *metrics.Collector
	generator *scheduler.Generator
	base      scheduler.Config
	delim     rune

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var registerValidations sync.Once

func New(opts Options) *Server {
	registerValidations.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("variant", config.ValidVariant)
		}
	})
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if len(opts.Config.Calendar.Days) == 0 || len(opts.Config.Calendar.Periods) == 0 {
		opts.Config.Calendar = model.NewDefaultCalendar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		store:     opts.Store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		generator: scheduler.NewGenerator(opts.Logger, opts.Metrics),
		base:      opts.Config,
		delim:     opts.Delimiter,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(s.logger), s.observeRequests(), cors())

	r.GET("/timetables", s.handleListTimetables)
	r.GET("/timetables/:id", s.handleGetTimetable)
	r.GET("/timetables/:id/export", s.handleExportTimetable)
	r.POST("/timetables", s.handlePostTimetable)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	return r
}

// Shutdown cancels running generations and waits for them to finish or ctx
// to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every background generation has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (s *Server) observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		s.metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
