// Package readiness evaluates an editable package against per-platform
// publishing rules. Evaluation is pure: the same package and clock always
// produce the same report, and a malformed or absent field is a finding in
// the report, never a failure of the evaluator.
package readiness

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hanssays/contentdesk/internal/model"
)

// Platform identifies one rule set. The set is closed: rules are dispatched
// by switch, so an unknown platform cannot reach evaluation.
type Platform int

const (
	Global Platform = iota
	Facebook
	Instagram
	X
)

// Platforms is the evaluation order. Every platform is always evaluated;
// no platform's findings suppress another's.
var Platforms = []Platform{Global, Facebook, Instagram, X}

func (p Platform) String() string {
	switch p {
	case Global:
		return "global"
	case Facebook:
		return "facebook"
	case Instagram:
		return "instagram"
	case X:
		return "x"
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// Rule thresholds. These are part of the publishing contract, boundary-exact.
const (
	FacebookMinWords      = 250
	FacebookMaxWords      = 500
	FacebookMinHeadlines  = 3
	InstagramMinBeats     = 6
	InstagramMaxBeatWords = 10
	XMaxChars             = 280
	MaxPackageAge         = 72 * time.Hour
)

// Status is the badge-level verdict derived from one platform's report.
type Status int

const (
	StatusReady Status = iota
	StatusWarning
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusWarning:
		return "warning"
	case StatusBlocked:
		return "blocked"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Report holds one platform's findings, in rule order.
type Report struct {
	Errors   []string
	Warnings []string
}

// Status collapses a report into its badge verdict.
func (r Report) Status() Status {
	switch {
	case len(r.Errors) > 0:
		return StatusBlocked
	case len(r.Warnings) > 0:
		return StatusWarning
	}
	return StatusReady
}

// Result is the aggregate readiness of a package across all platforms.
type Result struct {
	Report         map[Platform]Report
	OverallBlocked bool
}

// Evaluate runs every platform rule set against a package snapshot and
// aggregates the verdict. OverallBlocked is true iff at least one platform
// reported an error; warnings never block.
func Evaluate(pkg model.Package, now time.Time) Result {
	res := Result{Report: make(map[Platform]Report, len(Platforms))}
	for _, p := range Platforms {
		rep := ValidatePlatform(p, pkg, now)
		res.Report[p] = rep
		if len(rep.Errors) > 0 {
			res.OverallBlocked = true
		}
	}
	return res
}

// ValidatePlatform runs a single platform's rule set.
func ValidatePlatform(p Platform, pkg model.Package, now time.Time) Report {
	switch p {
	case Global:
		return validateGlobal(pkg, now)
	case Facebook:
		return validateFacebook(pkg.Facebook)
	case Instagram:
		return validateInstagram(pkg.Instagram)
	case X:
		return validateX(pkg.X)
	}
	return Report{}
}

func validateGlobal(pkg model.Package, now time.Time) Report {
	var r Report
	if pkg.UsedForContent {
		r.Warnings = append(r.Warnings, "package already marked as used")
	}
	if !pkg.GeneratedAt.IsZero() && now.Sub(pkg.GeneratedAt) > MaxPackageAge {
		r.Warnings = append(r.Warnings, fmt.Sprintf("package is older than %d hours", int(MaxPackageAge.Hours())))
	}
	return r
}

func validateFacebook(c model.FacebookContent) Report {
	var r Report
	if strings.TrimSpace(c.PostBody) == "" {
		r.Errors = append(r.Errors, "post body is missing")
	} else {
		words := wordCount(c.PostBody)
		if words < FacebookMinWords {
			r.Errors = append(r.Errors, fmt.Sprintf("post body too short: %d words (minimum %d)", words, FacebookMinWords))
		}
		if words > FacebookMaxWords {
			r.Errors = append(r.Errors, fmt.Sprintf("post body too long: %d words (maximum %d)", words, FacebookMaxWords))
		}
		if !hasParagraphBreak(c.PostBody) {
			r.Errors = append(r.Errors, "post body has no paragraph break")
		}
	}
	if strings.TrimSpace(c.PinnedComment) == "" {
		r.Errors = append(r.Errors, "pinned comment is missing")
	}
	if n := len(c.Headlines); n < FacebookMinHeadlines {
		r.Errors = append(r.Errors, fmt.Sprintf("need at least %d headlines (have %d)", FacebookMinHeadlines, n))
	}
	return r
}

func validateInstagram(c model.InstagramContent) Report {
	var r Report
	if n := len(c.OnScreenText); n < InstagramMinBeats {
		r.Errors = append(r.Errors, fmt.Sprintf("need at least %d on-screen text beats (have %d)", InstagramMinBeats, n))
	}
	for i, beat := range c.OnScreenText {
		if wordCount(beat) > InstagramMaxBeatWords {
			r.Errors = append(r.Errors, fmt.Sprintf("beat %d exceeds %d words", i+1, InstagramMaxBeatWords))
		}
	}
	if strings.TrimSpace(c.Caption) == "" {
		r.Errors = append(r.Errors, "caption is missing")
	}
	return r
}

func validateX(c model.XContent) Report {
	var r Report
	if strings.TrimSpace(c.PrimaryPost) == "" {
		r.Errors = append(r.Errors, "primary post is missing")
	} else if n := utf8.RuneCountInString(c.PrimaryPost); n > XMaxChars {
		r.Errors = append(r.Errors, fmt.Sprintf("primary post exceeds %d characters (%d)", XMaxChars, n))
	}
	return r
}

// wordCount tokenizes on whitespace. No locale-aware segmentation.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// hasParagraphBreak reports whether the body contains a blank-line separator.
func hasParagraphBreak(s string) bool {
	return strings.Contains(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
}
