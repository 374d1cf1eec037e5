// Package query turns a logical feed filter into a request for the data
// service plus a client-side residual. The service indexes coarse
// categorical fields; score thresholds and platform-signal predicates are
// cheap to evaluate locally, so they stay out of the request.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hanssays/contentdesk/internal/model"
)

// Signal names a derived platform-fit predicate an operator can filter on.
type Signal string

const (
	SignalNone      Signal = ""
	SignalFacebook  Signal = "facebook"
	SignalInstagram Signal = "instagram"
	SignalX         Signal = "x"
	SignalYouTube   Signal = "youtube"
)

// Usage filter values.
const (
	UsedAll    = "all"
	UsedUnused = "unused"
)

// Filter is the logical dashboard filter.
type Filter struct {
	Source   string // "all", "news" or "social"
	MinScore float64
	Used     string // UsedAll or UsedUnused
	Search   string
	Signal   Signal
	SortBy   string // "", "timestamp", "final_score" or "controversy_score"
	Limit    int
}

// Build maps a filter onto the service's query surface. MinScore and Signal
// are deliberately absent: they are the residual evaluated by Apply.
func Build(f Filter) url.Values {
	vals := url.Values{}
	if f.Limit > 0 {
		vals.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Source != "" && f.Source != "all" {
		vals.Set("source_type", f.Source)
	}
	if f.Used == UsedUnused {
		vals.Set("used", "false")
	}
	if f.Search != "" {
		vals.Set("q", f.Search)
	}
	if f.SortBy != "" {
		vals.Set("sort_by", f.SortBy)
	}
	return vals
}

// Signals holds the four platform-fit booleans derived from item shape.
// Derivation is deterministic and local; no network, no clock.
type Signals struct {
	Facebook  bool
	Instagram bool
	X         bool
	YouTube   bool
}

// Thresholds behind the signal derivation.
const (
	facebookMinSummaryLen  = 140
	instagramMaxTitleWords = 12
	xMaxTitleLen           = 200
	youtubeMinSummaryLen   = 200
)

// Calculate derives the platform-fit signals for one item.
func Calculate(it model.Item) Signals {
	summary := it.SummaryText()
	return Signals{
		// Long-form: enough summary substance to carry a full post.
		Facebook: len(summary) >= facebookMinSummaryLen,
		// Punchy visual: a short title plus any summary to caption from.
		Instagram: wordLen(it.Title) <= instagramMaxTitleWords && summary != "",
		// The title must leave room for framing under the character cap.
		X: len(it.Title) > 0 && len(it.Title) <= xMaxTitleLen,
		// Scriptable: editorial sources with substantial summaries.
		YouTube: it.SourceType == model.SourceNews && len(summary) >= youtubeMinSummaryLen,
	}
}

// For returns the named signal, or false for SignalNone and unknown names.
func (s Signals) For(sig Signal) bool {
	switch sig {
	case SignalFacebook:
		return s.Facebook
	case SignalInstagram:
		return s.Instagram
	case SignalX:
		return s.X
	case SignalYouTube:
		return s.YouTube
	}
	return false
}

// Apply evaluates the client-side residual: an item survives iff its final
// score meets the threshold and, when a signal is requested, that signal is
// set for the item.
func Apply(items []model.Item, f Filter) []model.Item {
	kept := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.FinalScore < f.MinScore {
			continue
		}
		if f.Signal != SignalNone && !Calculate(it).For(f.Signal) {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

func wordLen(s string) int {
	return len(strings.Fields(s))
}
