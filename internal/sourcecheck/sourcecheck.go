// Package sourcecheck probes a configured source's feed to verify it is
// still alive and publishing.
package sourcecheck

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hanssays/contentdesk/internal/model"
)

// Result is one probe outcome. Err is a display string; a probe never fails
// the caller.
type Result struct {
	Name    string
	Entries int
	Newest  *time.Time
	Err     string
}

// Checker fetches and parses feeds.
type Checker struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewChecker creates a checker. timeout 0 defaults to 15s.
func NewChecker(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	p := gofeed.NewParser()
	p.UserAgent = "contentdesk/1.0 (source probe)"
	return &Checker{parser: p, timeout: timeout}
}

// Probe fetches a source's feed URL and reports entry count and the newest
// publication time.
func (c *Checker) Probe(ctx context.Context, src model.Source) Result {
	res := Result{Name: src.Name}
	if src.URL == "" {
		res.Err = "no feed URL configured"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Entries = len(feed.Items)
	for _, item := range feed.Items {
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts == nil {
			continue
		}
		if res.Newest == nil || ts.After(*res.Newest) {
			t := *ts
			res.Newest = &t
		}
	}
	return res
}
