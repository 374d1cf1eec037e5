// Package feed drives the dashboard: fetch, residual filter, render, and
// the promotion action that hands an item off to the studio.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/handoff"
	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/model"
	"github.com/hanssays/contentdesk/internal/query"
	"github.com/hanssays/contentdesk/internal/router"
	"github.com/hanssays/contentdesk/internal/ui"
)

// Dashboard scaffold regions. The grid and the trending rail resolve
// independently; neither blocks the other.
const (
	RegionGrid     = "feed-grid"
	RegionTrending = "trending-rail"
)

// SearchQuiet is the trailing-edge quiet period for free-text search.
const SearchQuiet = 500 * time.Millisecond

// Grid is the feed-grid view model. Promoting marks cards optimistically
// dimmed while their promotion request is in flight.
type Grid struct {
	Items     []model.Item
	Promoting map[int64]bool
}

// Navigator is the slice of the router the feed needs.
type Navigator interface {
	Navigate(router.View) <-chan struct{}
}

// Journal records operator actions. May be nil.
type Journal interface {
	RecordAction(kind, detail string) error
}

// Controller orchestrates one fetch -> filter -> render pass per load and
// owns the fetched items for the duration of that pass.
type Controller struct {
	api     *api.Client
	surface *ui.Surface
	handoff *handoff.Store
	nav     Navigator
	journal Journal

	mu     sync.Mutex
	filter query.Filter
	search *Debouncer
}

// New creates a feed controller. base is the default filter applied when the
// dashboard initializes.
func New(client *api.Client, surface *ui.Surface, store *handoff.Store, nav Navigator, journal Journal, base query.Filter) *Controller {
	return &Controller{
		api:     client,
		surface: surface,
		handoff: store,
		nav:     nav,
		journal: journal,
		filter:  base,
		search:  NewDebouncer(SearchQuiet),
	}
}

// Init mounts the dashboard: the trending rail fetch is fired independently
// and the grid loads with the current filter. Region writes from either
// fetch are dropped once the scaffold generation moves on.
func (c *Controller) Init(ctx context.Context, gen uint64) error {
	go c.loadTrending(ctx, gen)
	return c.Load(ctx, gen, c.Filter())
}

// Filter returns the current logical filter.
func (c *Controller) Filter() query.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Load runs one fetch cycle into the grid region. Exactly one of the three
// terminal states results: failed (fetch error), empty (no matches after the
// residual filter), or ready.
func (c *Controller) Load(ctx context.Context, gen uint64, f query.Filter) error {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()

	c.surface.Apply(gen, RegionGrid, func(r *ui.Region) {
		r.State = ui.StateLoading
		r.Error = ""
		r.Data = nil
	})

	items, err := c.api.Items(ctx, query.Build(f))
	if err != nil {
		c.surface.Apply(gen, RegionGrid, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Failed to load content. Please try again."
		})
		return fmt.Errorf("loading feed: %w", err)
	}

	kept := query.Apply(items, f)
	c.surface.Apply(gen, RegionGrid, func(r *ui.Region) {
		if len(kept) == 0 {
			r.State = ui.StateEmpty
			return
		}
		r.State = ui.StateReady
		r.Data = &Grid{Items: kept, Promoting: map[int64]bool{}}
	})
	return nil
}

// Search debounces a free-text reload of the grid with the current filter.
func (c *Controller) Search(ctx context.Context, gen uint64, text string) {
	c.search.Call(func() {
		f := c.Filter()
		f.Search = text
		if err := c.Load(ctx, gen, f); err != nil {
			logger.Log.Warnf("search reload: %v", err)
		}
	})
}

// Promote elevates an item into a topic cluster. On success the handoff
// store is written and the router is sent to the studio; on failure the
// optimistic dim is reverted and the operator stays put, free to retry.
func (c *Controller) Promote(ctx context.Context, gen uint64, itemID int64) error {
	c.setPromoting(gen, itemID, true)

	clusterID, err := c.api.Promote(ctx, itemID)
	if err != nil {
		c.setPromoting(gen, itemID, false)
		return err
	}

	if c.journal != nil {
		if jerr := c.journal.RecordAction("promote", fmt.Sprintf("item %d -> %s", itemID, clusterID)); jerr != nil {
			logger.Log.Warnf("recording promotion: %v", jerr)
		}
	}

	c.handoff.Write(clusterID, itemID)
	c.nav.Navigate(router.Studio)
	return nil
}

func (c *Controller) setPromoting(gen uint64, itemID int64, on bool) {
	c.surface.Apply(gen, RegionGrid, func(r *ui.Region) {
		grid, ok := r.Data.(*Grid)
		if !ok {
			return
		}
		if on {
			grid.Promoting[itemID] = true
		} else {
			delete(grid.Promoting, itemID)
		}
	})
}

func (c *Controller) loadTrending(ctx context.Context, gen uint64) {
	trends, err := c.api.Trending(ctx)
	if err != nil {
		logger.Log.Warnf("loading trending rail: %v", err)
		c.surface.Apply(gen, RegionTrending, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Trending topics unavailable."
		})
		return
	}
	c.surface.Apply(gen, RegionTrending, func(r *ui.Region) {
		if len(trends) == 0 {
			r.State = ui.StateEmpty
			return
		}
		r.State = ui.StateReady
		r.Data = trends
	})
}
