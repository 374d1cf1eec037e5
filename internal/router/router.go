// Package router is the finite-state navigator across the application's
// mutually exclusive views. Every transition is a full reset: the previous
// scaffold is discarded, in-flight work for it is cancelled, and the target
// view starts from nothing except what was deliberately written to the
// handoff store.
package router

import (
	"context"
	"sync"

	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/ui"
)

// View identifies one application view.
type View string

const (
	Dashboard View = "dashboard"
	Studio    View = "studio"
	Admin     View = "admin"
)

// Spec describes how to mount a view: its scaffold regions, the async
// initializer run once per transition, and the view-scoped action bindings
// reinstalled fresh each time.
type Spec struct {
	Regions  []string
	Init     func(ctx context.Context, gen uint64) error
	Bindings map[string]func()
}

// Router owns the current view and the per-navigation lifecycle.
type Router struct {
	surface *ui.Surface

	mu      sync.Mutex
	views   map[View]Spec
	current View
	cancel  context.CancelFunc
}

// New creates a router over a surface. No view is mounted until the first
// Navigate call; the application starts by navigating to Dashboard.
func New(surface *ui.Surface) *Router {
	return &Router{
		surface: surface,
		views:   map[View]Spec{},
	}
}

// Register installs a view scaffold. Navigating to an unregistered view is a
// logged no-op, not a crash.
func (r *Router) Register(v View, spec Spec) {
	r.mu.Lock()
	r.views[v] = spec
	r.mu.Unlock()
}

// Current returns the mounted view, or "" before the first navigation.
func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate transitions to target. The returned channel closes when the
// target's initializer finishes (or immediately for a no-op). Initializer
// failures are caught and logged; the router stays on target regardless,
// since navigation succeeded even when content did not.
func (r *Router) Navigate(target View) <-chan struct{} {
	done := make(chan struct{})

	r.mu.Lock()
	spec, ok := r.views[target]
	if !ok {
		current := r.current
		r.mu.Unlock()
		logger.Log.Warnf("no view registered for %q; staying on %q", target, current)
		close(done)
		return done
	}

	r.surface.MarkNav(string(target))

	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	gen := r.surface.Install(spec.Regions)
	for name, fn := range spec.Bindings {
		r.surface.Bind(gen, name, fn)
	}
	r.current = target
	r.mu.Unlock()

	go func() {
		defer close(done)
		if spec.Init == nil {
			return
		}
		if err := spec.Init(ctx, gen); err != nil {
			logger.Log.Errorf("initializing %s view: %v", target, err)
		}
	}()
	return done
}
