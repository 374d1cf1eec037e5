package studio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/handoff"
	"github.com/hanssays/contentdesk/internal/model"
	"github.com/hanssays/contentdesk/internal/readiness"
	"github.com/hanssays/contentdesk/internal/ui"
)

type fakeJournal struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeJournal) RecordAction(kind, detail string) error {
	f.mu.Lock()
	f.entries = append(f.entries, kind+": "+detail)
	f.mu.Unlock()
	return nil
}

const validBody = `Opening paragraph with enough words to matter.

Second paragraph.`

// packageJSON is a service payload that passes every readiness rule except
// the Facebook word count, which tests adjust as needed.
func packageJSON(postBody string) string {
	return `{
		"cluster_id": "economy",
		"generated_at": "` + time.Now().UTC().Format(time.RFC3339) + `",
		"primary_topic": "Inflation",
		"facebook": {
			"post_body": ` + jsonString(postBody) + `,
			"pinned_comment": "Pinned.",
			"headlines": ["One", "Two", "Three"]
		},
		"instagram": {
			"on_screen_text": ["A", "B", "C", "D", "E", "F"],
			"caption": "Caption."
		},
		"x": {"primary_post": "Short."}
	}`
}

func jsonString(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "\n", `\n`) + `"`
}

func wordsBody(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	half := n / 2
	return strings.Join(words[:half], " ") + "\n\n" + strings.Join(words[half:], " ")
}

type fixture struct {
	ctrl    *Controller
	surface *ui.Surface
	slot    *handoff.Store
	journal *fakeJournal
	gen     uint64
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	surface := ui.New()
	gen := surface.Install([]string{
		RegionBanner, RegionClusters, RegionEditor, RegionAngles, RegionReadiness,
	})

	slot := handoff.NewStore()
	journal := &fakeJournal{}
	ctrl := New(api.New(srv.URL, 5*time.Second, 0), surface, slot, journal)
	return &fixture{ctrl: ctrl, surface: surface, slot: slot, journal: journal, gen: gen}
}

func packageHandler(postBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/package"):
			w.Write([]byte(packageJSON(postBody)))
		case strings.HasSuffix(r.URL.Path, "/angles"):
			w.Write([]byte(`{"angles": [{"type": "human", "content": "Angle"}], "strongest_angle_html": "<p>Strongest</p>"}`))
		case r.URL.Path == "/trending":
			w.Write([]byte(`{"economy": 4}`))
		default:
			w.Write([]byte(`{}`))
		}
	}
}

func (f *fixture) region(t *testing.T, id string) ui.Region {
	t.Helper()
	r, ok := f.surface.Snapshot(id)
	if !ok {
		t.Fatalf("region %q missing", id)
	}
	return r
}

// waitSettled blocks until the async region load from Init has landed, so a
// follow-up action's write cannot race it.
func (f *fixture) waitSettled(t *testing.T, id string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := f.surface.Snapshot(id); ok && r.State != ui.StateLoading {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("region %q never left loading", id)
}

func (f *fixture) panel(t *testing.T) *Panel {
	t.Helper()
	region := f.region(t, RegionReadiness)
	panel, ok := region.Data.(*Panel)
	if !ok {
		t.Fatalf("readiness region = %+v", region)
	}
	return panel
}

func TestInitWithHandoff(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))
	f.slot.Write("economy", 7)

	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	banner := f.region(t, RegionBanner)
	if banner.State != ui.StateReady || banner.Data != "ECONOMY" {
		t.Errorf("banner = %+v, want uppercase cluster id", banner)
	}

	editor := f.region(t, RegionEditor)
	if editor.State != ui.StateReady {
		t.Fatalf("editor = %+v", editor)
	}
	pkg := editor.Data.(model.Package)
	if pkg.ClusterID != "economy" {
		t.Errorf("package = %+v", pkg)
	}

	panel := f.panel(t)
	if !panel.PublishEnabled {
		t.Errorf("expected publishable package, report %+v", panel.Result.Report)
	}

	// The handoff was consumed.
	if _, ok := f.slot.Consume(); ok {
		t.Error("init must consume the pending handoff")
	}
}

func TestInitWithoutHandoff(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))

	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, id := range []string{RegionBanner, RegionEditor, RegionAngles, RegionReadiness} {
		if region := f.region(t, id); region.State != ui.StateEmpty {
			t.Errorf("%s = %s, want empty without a handoff", id, region.State)
		}
	}
	if f.ctrl.Document() != nil {
		t.Error("no document should be checked out")
	}
}

func TestInitPackageLoadFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/package") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	})
	f.slot.Write("economy", 7)

	if err := f.ctrl.Init(context.Background(), f.gen); err == nil {
		t.Fatal("expected init error")
	}

	editor := f.region(t, RegionEditor)
	if editor.State != ui.StateFailed || editor.Error == "" {
		t.Errorf("editor = %+v", editor)
	}
}

func TestEditRecomputesReadinessSynchronously(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if !f.panel(t).PublishEnabled {
		t.Fatal("precondition: package starts publishable")
	}

	// Shrink the post body below the minimum. The panel must reflect it
	// before SetField returns.
	if err := f.ctrl.SetField(model.FieldRef{Field: model.FieldFacebookPostBody}, validBody); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	panel := f.panel(t)
	if panel.PublishEnabled {
		t.Error("short post body must disable publishing immediately")
	}
	if panel.Badges[readiness.Facebook] != readiness.StatusBlocked {
		t.Errorf("facebook badge = %s", panel.Badges[readiness.Facebook])
	}

	// And fixing it re-enables, again synchronously.
	if err := f.ctrl.SetField(model.FieldRef{Field: model.FieldFacebookPostBody}, wordsBody(260)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !f.panel(t).PublishEnabled {
		t.Error("fixed post body must re-enable publishing")
	}
}

func TestSetFieldWithoutPackage(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	err := f.ctrl.SetField(model.FieldRef{Field: model.FieldFacebookPostBody}, "x")
	if err != ErrNoPackage {
		t.Errorf("err = %v, want ErrNoPackage", err)
	}
}

func TestRegenerateReplacesPlatform(t *testing.T) {
	regenerated := false
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/generate_full_package"):
			regenerated = true
			w.Write([]byte(packageJSON(wordsBody(280))))
		default:
			packageHandler(wordsBody(300))(w, r)
		}
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := f.ctrl.Regenerate(context.Background(), PlatformFacebook); err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if !regenerated {
		t.Fatal("generation endpoint was not called")
	}

	pkg := f.ctrl.Document().Package()
	if got := len(strings.Fields(pkg.Facebook.PostBody)); got != 280 {
		t.Errorf("post body has %d words, want the regenerated 280", got)
	}

	found := false
	for _, e := range f.journal.entries {
		if strings.HasPrefix(e, "regenerate:") {
			found = true
		}
	}
	if !found {
		t.Errorf("journal = %v, want a regenerate entry", f.journal.entries)
	}
}

func TestRegenerateFailureKeepsContent(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/generate_full_package") {
			http.Error(w, "llm down", http.StatusBadGateway)
			return
		}
		packageHandler(wordsBody(300))(w, r)
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	before := f.ctrl.Document().Package()

	if err := f.ctrl.Regenerate(context.Background(), PlatformFacebook); err == nil {
		t.Fatal("expected regenerate error")
	}

	after := f.ctrl.Document().Package()
	if after.Facebook.PostBody != before.Facebook.PostBody {
		t.Error("failed regeneration must leave existing content untouched")
	}

	panel := f.panel(t)
	if panel.Notice == "" {
		t.Error("failed regeneration must surface an inline notice")
	}
	if !panel.PublishEnabled {
		t.Error("the rest of the workflow keeps working after a failed regeneration")
	}

	// The next successful mutation clears the notice.
	if err := f.ctrl.SetField(model.FieldRef{Field: model.FieldInstagramCaption}, "New caption"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if f.panel(t).Notice != "" {
		t.Error("notice must not outlive the next recompute")
	}
}

func TestRegenerateYouTubeReplacesContent(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/generate_full_package"):
			w.Write([]byte(`{
				"cluster_id": "economy",
				"facebook": {"post_body": "short"},
				"youtube": {"title": "Fresh title", "shorts_script": "Fresh script"}
			}`))
		default:
			packageHandler(wordsBody(300))(w, r)
		}
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := f.ctrl.Regenerate(context.Background(), PlatformYouTube); err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}

	pkg := f.ctrl.Document().Package()
	if pkg.YouTube.Title != "Fresh title" || pkg.YouTube.ShortsScript != "Fresh script" {
		t.Errorf("youtube content = %+v, want regenerated values", pkg.YouTube)
	}
	// Only the YouTube block was spliced in.
	if got := len(strings.Fields(pkg.Facebook.PostBody)); got != 300 {
		t.Errorf("facebook post body has %d words, want the original 300", got)
	}
}

func TestRegenerateUnknownPlatformMakesNoRequest(t *testing.T) {
	generations := 0
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/generate_full_package") {
			generations++
		}
		packageHandler(wordsBody(300))(w, r)
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := f.ctrl.Regenerate(context.Background(), ContentPlatform("global")); err == nil {
		t.Error("global is not a regenerable platform")
	}
	if generations != 0 {
		t.Errorf("generation endpoint called %d times for an unknown platform", generations)
	}
}

func TestContentPlatformByName(t *testing.T) {
	for _, p := range ContentPlatforms {
		got, ok := ContentPlatformByName(string(p))
		if !ok || got != p {
			t.Errorf("ContentPlatformByName(%q) = %v, %v", p, got, ok)
		}
	}
	if _, ok := ContentPlatformByName("global"); ok {
		t.Error("global must not resolve to a content platform")
	}
}

func TestGenerateAnglesSwapsRail(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/generate_angles") {
			w.Write([]byte(`{"angles": [{"type": "critical", "content": "New angle"}], "strongest_angle_html": "<p>New strongest</p>"}`))
			return
		}
		packageHandler(wordsBody(300))(w, r)
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	f.waitSettled(t, RegionAngles)

	if err := f.ctrl.GenerateAngles(context.Background()); err != nil {
		t.Fatalf("generate angles failed: %v", err)
	}

	region := f.region(t, RegionAngles)
	if region.State != ui.StateReady {
		t.Fatalf("angle rail = %+v", region)
	}
	rail := region.Data.(*AngleRail)
	if rail.StrongestText != "New strongest" || len(rail.Angles) != 1 || rail.Angles[0].Content != "New angle" {
		t.Errorf("rail = %+v, want the freshly generated angles", rail)
	}

	found := false
	for _, e := range f.journal.entries {
		if strings.HasPrefix(e, "generate_angles:") {
			found = true
		}
	}
	if !found {
		t.Errorf("journal = %v, want a generate_angles entry", f.journal.entries)
	}
}

func TestGenerateAnglesFailureMarksRail(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/generate_angles") {
			http.Error(w, "llm down", http.StatusBadGateway)
			return
		}
		packageHandler(wordsBody(300))(w, r)
	})
	f.slot.Write("economy", 7)
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	f.waitSettled(t, RegionAngles)

	if err := f.ctrl.GenerateAngles(context.Background()); err == nil {
		t.Fatal("expected generation error")
	}

	region := f.region(t, RegionAngles)
	if region.State != ui.StateFailed || region.Error == "" {
		t.Errorf("angle rail = %+v, want failed with a retryable error", region)
	}
}

func TestGenerateAnglesWithoutPackage(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))
	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := f.ctrl.GenerateAngles(context.Background()); err != ErrNoPackage {
		t.Errorf("err = %v, want ErrNoPackage", err)
	}
}

func TestStalePackageWarnsButPublishes(t *testing.T) {
	f := newFixture(t, packageHandler(wordsBody(300)))
	f.slot.Write("economy", 7)

	// Pin the clock 80 hours past generation.
	f.ctrl.now = func() time.Time { return time.Now().Add(80 * time.Hour) }

	if err := f.ctrl.Init(context.Background(), f.gen); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	panel := f.panel(t)
	if panel.Badges[readiness.Global] != readiness.StatusWarning {
		t.Errorf("global badge = %s, want warning", panel.Badges[readiness.Global])
	}
	if !panel.PublishEnabled {
		t.Error("age warnings must not disable publishing")
	}
}

func TestStripHTML(t *testing.T) {
	if got := StripHTML("<p>The <b>strongest</b> angle.</p>"); got != "The strongest angle." {
		t.Errorf("got %q", got)
	}
	if got := StripHTML(""); got != "" {
		t.Errorf("empty input, got %q", got)
	}
}
