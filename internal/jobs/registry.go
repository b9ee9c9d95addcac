package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// Handler executes one kind of job. The returned value becomes the job
// result; an error fails the job.
type Handler interface {
	Kind() string
	Run(jc *Context) (any, error)
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	kind := h.Kind()
	if kind == "" {
		return fmt.Errorf("handler kind is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("handler already registered for kind=%s", kind)
	}
	r.handlers[kind] = h
	return nil
}

func (r *Registry) Get(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Context is the handle a handler gets for a single claimed job. Handlers
// report progress through it and never touch the job row directly.
type Context struct {
	Ctx context.Context
	Job *store.Job
	Log *logger.Logger

	tracker *Tracker
}

// Progress records p and an optional human message. Write failures are
// logged; a lost progress update does not fail the job.
func (c *Context) Progress(p int, message string) {
	if err := c.tracker.SetProgress(c.Ctx, c.Job.ID, p, message); err != nil {
		c.Log.Warn("progress update failed", "progress", p, "error", err)
	}
}

// DecodeParams unmarshals the job params into v. Empty params leave v as is.
func (c *Context) DecodeParams(v any) error {
	if len(c.Job.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Job.Params, v); err != nil {
		return fmt.Errorf("decode %s params: %w", c.Job.Kind, err)
	}
	return nil
}
