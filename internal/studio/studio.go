// Package studio binds the inline editors to the live package and keeps the
// readiness panel synchronized with every edit. Recomputation is synchronous
// and total: each mutation re-evaluates the whole package, so a stale report
// is never observable.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/handoff"
	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/model"
	"github.com/hanssays/contentdesk/internal/readiness"
	"github.com/hanssays/contentdesk/internal/ui"
)

// Studio scaffold regions.
const (
	RegionBanner    = "topic-banner"
	RegionClusters  = "cluster-list"
	RegionEditor    = "editor"
	RegionAngles    = "angle-rail"
	RegionReadiness = "readiness-panel"
)

// ErrNoPackage is returned when an edit arrives with no package checked out.
var ErrNoPackage = errors.New("no package loaded")

// ContentPlatform identifies one regenerable block of package content. It is
// wider than the readiness rule sets: YouTube content is regenerable even
// though no publishing rules apply to it.
type ContentPlatform string

const (
	PlatformFacebook  ContentPlatform = "facebook"
	PlatformInstagram ContentPlatform = "instagram"
	PlatformX         ContentPlatform = "x"
	PlatformYouTube   ContentPlatform = "youtube"
)

// ContentPlatforms is the set of regenerable platforms, in editor order.
var ContentPlatforms = []ContentPlatform{PlatformFacebook, PlatformInstagram, PlatformX, PlatformYouTube}

// ContentPlatformByName resolves a form name back to its platform.
func ContentPlatformByName(name string) (ContentPlatform, bool) {
	for _, p := range ContentPlatforms {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Panel is the readiness-panel view model.
type Panel struct {
	Result         readiness.Result
	Badges         map[readiness.Platform]readiness.Status
	PublishEnabled bool
	Notice         string
}

// AngleRail is the angle-rail view model: the proposed angles plus a
// plain-text rendering of the strongest one.
type AngleRail struct {
	Angles        []model.Angle
	StrongestText string
}

// Journal records operator actions. May be nil.
type Journal interface {
	RecordAction(kind, detail string) error
}

// Controller holds at most one live package document at a time. The
// document is discarded on the next studio initialization; unsaved edits do
// not survive navigation away.
type Controller struct {
	api     *api.Client
	surface *ui.Surface
	handoff *handoff.Store
	journal Journal
	now     func() time.Time

	mu  sync.Mutex
	gen uint64
	doc *model.Document
}

// New creates a studio controller.
func New(client *api.Client, surface *ui.Surface, store *handoff.Store, journal Journal) *Controller {
	return &Controller{
		api:     client,
		surface: surface,
		handoff: store,
		journal: journal,
		now:     time.Now,
	}
}

// Init mounts the studio. The handoff store is consumed exactly once per
// initialization: with a pending handoff the promoted cluster's package is
// loaded and bound; without one the studio shows only the cluster list.
func (c *Controller) Init(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	c.doc = nil
	c.gen = gen
	c.mu.Unlock()

	go c.loadClusters(ctx, gen)

	h, ok := c.handoff.Consume()
	if !ok {
		c.surface.Apply(gen, RegionBanner, func(r *ui.Region) { r.State = ui.StateEmpty })
		c.surface.Apply(gen, RegionEditor, func(r *ui.Region) { r.State = ui.StateEmpty })
		c.surface.Apply(gen, RegionAngles, func(r *ui.Region) { r.State = ui.StateEmpty })
		c.surface.Apply(gen, RegionReadiness, func(r *ui.Region) { r.State = ui.StateEmpty })
		return nil
	}

	c.surface.Apply(gen, RegionBanner, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Data = strings.ToUpper(h.ClusterID)
	})

	go c.loadAngles(ctx, gen, h.ClusterID)

	pkg, err := c.api.Package(ctx, h.ClusterID)
	if err != nil {
		c.surface.Apply(gen, RegionEditor, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Failed to load the package for this topic."
		})
		c.surface.Apply(gen, RegionReadiness, func(r *ui.Region) { r.State = ui.StateEmpty })
		return fmt.Errorf("opening studio for %s: %w", h.ClusterID, err)
	}

	c.bind(gen, model.NewDocument(*pkg))
	return nil
}

// Document returns the live document, or nil when none is checked out.
func (c *Controller) Document() *model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// SetField writes one editable field through the live document. The change
// notification recomputes readiness before this call returns.
func (c *Controller) SetField(ref model.FieldRef, value string) error {
	doc := c.Document()
	if doc == nil {
		return ErrNoPackage
	}
	return doc.Set(ref, value)
}

// Regenerate re-requests platform content from the generation endpoint. On
// success the platform's fields are replaced and readiness re-runs; on
// failure the existing values stay untouched and the panel carries an inline
// notice so the rest of the workflow keeps working.
func (c *Controller) Regenerate(ctx context.Context, platform ContentPlatform) error {
	c.mu.Lock()
	doc, gen := c.doc, c.gen
	c.mu.Unlock()
	if doc == nil {
		return ErrNoPackage
	}

	// Resolve the splice target before touching the generation endpoint so a
	// bad platform never costs a service-side generation.
	var splice func(*model.Package)
	switch platform {
	case PlatformFacebook:
		splice = func(p *model.Package) { doc.ReplaceFacebook(p.Facebook) }
	case PlatformInstagram:
		splice = func(p *model.Package) { doc.ReplaceInstagram(p.Instagram) }
	case PlatformX:
		splice = func(p *model.Package) { doc.ReplaceX(p.X) }
	case PlatformYouTube:
		splice = func(p *model.Package) { doc.ReplaceYouTube(p.YouTube) }
	default:
		return fmt.Errorf("regenerating %q: not a content platform", string(platform))
	}

	fresh, err := c.api.GeneratePackage(ctx, doc.ClusterID())
	if err != nil {
		c.surface.Apply(gen, RegionReadiness, func(r *ui.Region) {
			if panel, ok := r.Data.(*Panel); ok {
				panel.Notice = fmt.Sprintf("Regeneration failed for %s. Existing content kept.", platform)
			}
		})
		return fmt.Errorf("regenerating %s: %w", platform, err)
	}

	splice(fresh)

	if c.journal != nil {
		if jerr := c.journal.RecordAction("regenerate", fmt.Sprintf("%s for %s", platform, doc.ClusterID())); jerr != nil {
			logger.Log.Warnf("recording regeneration: %v", jerr)
		}
	}
	return nil
}

// GenerateAngles requests fresh angles for the checked-out topic and swaps
// the rail. An empty or failed rail stays actionable: the rail region carries
// the failure so the operator can retry.
func (c *Controller) GenerateAngles(ctx context.Context) error {
	c.mu.Lock()
	doc, gen := c.doc, c.gen
	c.mu.Unlock()
	if doc == nil {
		return ErrNoPackage
	}

	angles, err := c.api.GenerateAngles(ctx, doc.ClusterID())
	if err != nil {
		c.surface.Apply(gen, RegionAngles, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Angle generation failed."
		})
		return fmt.Errorf("generating angles for %s: %w", doc.ClusterID(), err)
	}

	c.surface.Apply(gen, RegionAngles, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Error = ""
		r.Data = &AngleRail{
			Angles:        angles.Angles,
			StrongestText: StripHTML(angles.StrongestAngleHTML),
		}
	})

	if c.journal != nil {
		if jerr := c.journal.RecordAction("generate_angles", doc.ClusterID()); jerr != nil {
			logger.Log.Warnf("recording angle generation: %v", jerr)
		}
	}
	return nil
}

// bind checks out the document and subscribes the refresh cycle to it.
func (c *Controller) bind(gen uint64, doc *model.Document) {
	c.mu.Lock()
	c.doc = doc
	c.gen = gen
	c.mu.Unlock()

	doc.Subscribe(func() { c.refresh(gen, doc) })
	c.refresh(gen, doc)
}

// refresh renders the editor snapshot, the per-platform badges and the
// publish toggle from a fresh evaluation.
func (c *Controller) refresh(gen uint64, doc *model.Document) {
	snapshot := doc.Package()
	result := readiness.Evaluate(snapshot, c.now())

	badges := make(map[readiness.Platform]readiness.Status, len(readiness.Platforms))
	for _, p := range readiness.Platforms {
		badges[p] = result.Report[p].Status()
	}

	c.surface.Apply(gen, RegionEditor, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Error = ""
		r.Data = snapshot
	})
	c.surface.Apply(gen, RegionReadiness, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Data = &Panel{
			Result:         result,
			Badges:         badges,
			PublishEnabled: !result.OverallBlocked,
		}
	})
}

func (c *Controller) loadClusters(ctx context.Context, gen uint64) {
	trends, err := c.api.Trending(ctx)
	if err != nil {
		logger.Log.Warnf("loading cluster list: %v", err)
		c.surface.Apply(gen, RegionClusters, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "Topic clusters unavailable."
		})
		return
	}
	c.surface.Apply(gen, RegionClusters, func(r *ui.Region) {
		if len(trends) == 0 {
			r.State = ui.StateEmpty
			return
		}
		r.State = ui.StateReady
		r.Data = trends
	})
}

func (c *Controller) loadAngles(ctx context.Context, gen uint64, clusterID string) {
	angles, err := c.api.Angles(ctx, clusterID)
	if err != nil {
		logger.Log.Warnf("loading angles for %s: %v", clusterID, err)
		c.surface.Apply(gen, RegionAngles, func(r *ui.Region) {
			r.State = ui.StateFailed
			r.Error = "No angles available for this topic."
		})
		return
	}
	c.surface.Apply(gen, RegionAngles, func(r *ui.Region) {
		r.State = ui.StateReady
		r.Data = &AngleRail{
			Angles:        angles.Angles,
			StrongestText: StripHTML(angles.StrongestAngleHTML),
		}
	})
}
