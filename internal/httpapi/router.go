// Package httpapi exposes quizzes, submissions, jobs and admin maintenance
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ssai/ssquiz/internal/attempts"
	"github.com/ssai/ssquiz/internal/jobs"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/maintenance"
	"github.com/ssai/ssquiz/internal/quizview"
	"github.com/ssai/ssquiz/internal/store"
)

// Deps are the services the handlers call into.
type Deps struct {
	Views       *quizview.Service
	Attempts    *attempts.Tracker
	Jobs        *jobs.Tracker
	Maintenance *maintenance.Service
	Quizzes     store.QuizRepo
	Users       store.UserRepo
	Events      store.EventRepo
	Log         *logger.Logger
}

type handler struct {
	Deps
	log *logger.Logger
}

// NewRouter builds the gin engine. Routes under /api/admin are meant to sit
// behind an authenticating proxy.
func NewRouter(d Deps, corsOrigins []string) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	h := &handler{Deps: d, log: d.Log.With("component", "http")}

	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	quiz := api.Group("/quiz", requireUser())
	quiz.GET("/latest", h.latest)
	quiz.GET("/all/first", h.firstAll)
	quiz.GET("/all/latest", h.latestAll)
	quiz.GET("/next", h.step(quizview.ScopeUser, true))
	quiz.GET("/all/next", h.step(quizview.ScopeAll, true))
	quiz.GET("/prev", h.step(quizview.ScopeUser, false))
	quiz.GET("/all/prev", h.step(quizview.ScopeAll, false))
	quiz.GET("/summary", h.summary)
	quiz.GET("/wrong-notes", h.wrongNotes)
	quiz.POST("/generate", h.generateOwn)
	quiz.GET("/:id", h.getQuiz)
	quiz.POST("/:id/answer", h.submit)

	admin := api.Group("/admin")
	admin.POST("/generate", h.adminGenerate)
	admin.POST("/generate-all", h.adminGenerateAll)
	admin.GET("/jobs/:id", h.jobStatus)
	admin.GET("/quizzes", h.adminList)
	admin.POST("/quizzes/mix-all", h.adminMixAll)
	admin.POST("/quizzes/dedupe", h.adminDedupe)
	admin.GET("/quizzes/:id", h.adminGet)
	admin.PATCH("/quizzes/:id", h.adminPatch)
	admin.DELETE("/quizzes/:id", h.adminDelete)
	admin.POST("/quizzes/:id/mix", h.adminMix)
	admin.POST("/docs/learn", h.startLearning)
	admin.GET("/docs/learn/status", h.learningStatus)
	admin.GET("/llm/usage", h.llmUsage)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", userHeader, "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func (h *handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Server runs the router until its context ends.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

func NewServer(addr string, h http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
