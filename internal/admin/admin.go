// Package admin drives the admin view: stream inventory, coarse stats, and
// the per-source liveness probe.
package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/model"
	"github.com/hanssays/contentdesk/internal/sourcecheck"
	"github.com/hanssays/contentdesk/internal/ui"
)

// Admin scaffold regions.
const (
	RegionStats   = "admin-stats"
	RegionSources = "source-list"
)

// ActionAddStream is the view-scoped binding for the "add stream"
// affordance. It lives only in the installed scaffold, so the router
// re-binds it on every transition into Admin.
const ActionAddStream = "add-stream"

// Stats is the admin-stats view model. Source counts come from the source
// list region; the two regions resolve independently.
type Stats struct {
	ClusterCount int
	ClusterItems int
}

// SourceList is the source-list view model. Probes fill in as they finish.
type SourceList struct {
	Sources []model.Source
	Probes  map[string]sourcecheck.Result
}

// Controller loads the admin view and runs source probes.
type Controller struct {
	api     *api.Client
	surface *ui.Surface
	checker *sourcecheck.Checker

	mu      sync.Mutex
	sources []model.Source
}

// New creates an admin controller.
func New(client *api.Client, surface *ui.Surface, checker *sourcecheck.Checker) *Controller {
	return &Controller{api: client, surface: surface, checker: checker}
}

// Init mounts the admin view. The stats fetch is independent of the source
// list; each region fails or fills on its own.
func (c *Controller) Init(ctx context.Context, gen uint64) error {
	go c.loadStats(ctx, gen)

	sources, err := c.api.Sources(ctx)
	if err != nil {
		c.surface.Apply(gen, RegionSources, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Failed to load sources."
		})
		return fmt.Errorf("loading sources: %w", err)
	}

	c.mu.Lock()
	c.sources = sources
	c.mu.Unlock()

	c.surface.Apply(gen, RegionSources, func(r *ui.Region) {
		if len(sources) == 0 {
			r.State = ui.StateEmpty
			return
		}
		r.State = ui.StateReady
		r.Data = &SourceList{Sources: sources, Probes: map[string]sourcecheck.Result{}}
	})
	return nil
}

// Probe checks one source by name and folds the outcome into the list.
func (c *Controller) Probe(ctx context.Context, gen uint64, name string) error {
	c.mu.Lock()
	var src *model.Source
	for i := range c.sources {
		if c.sources[i].Name == name {
			src = &c.sources[i]
			break
		}
	}
	c.mu.Unlock()

	if src == nil {
		return fmt.Errorf("unknown source %q", name)
	}

	result := c.checker.Probe(ctx, *src)
	c.surface.Apply(gen, RegionSources, func(r *ui.Region) {
		if list, ok := r.Data.(*SourceList); ok {
			list.Probes[name] = result
		}
	})
	if result.Err != "" {
		logger.Log.Warnf("probing source %s: %s", name, result.Err)
	}
	return nil
}

func (c *Controller) loadStats(ctx context.Context, gen uint64) {
	trends, err := c.api.Trending(ctx)
	if err != nil {
		logger.Log.Warnf("loading admin stats: %v", err)
		c.surface.Apply(gen, RegionStats, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Stats unavailable."
		})
		return
	}

	stats := Stats{ClusterCount: len(trends)}
	for _, n := range trends {
		stats.ClusterItems += n
	}

	c.surface.Apply(gen, RegionStats, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Data = stats
	})
}
