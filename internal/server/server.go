// Package server is the local operator console. It renders the surface and
// forwards operator actions to the controllers; all view state lives behind
// the router, not in HTTP session state.
package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hanssays/contentdesk/internal/admin"
	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/config"
	"github.com/hanssays/contentdesk/internal/feed"
	"github.com/hanssays/contentdesk/internal/handoff"
	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/model"
	"github.com/hanssays/contentdesk/internal/preview"
	"github.com/hanssays/contentdesk/internal/query"
	"github.com/hanssays/contentdesk/internal/router"
	"github.com/hanssays/contentdesk/internal/sourcecheck"
	"github.com/hanssays/contentdesk/internal/store"
	"github.com/hanssays/contentdesk/internal/studio"
	"github.com/hanssays/contentdesk/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server wires the console: one surface, one router, one controller per
// view, and the local store for preferences and the action journal.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	client  *api.Client
	surface *ui.Surface
	router  *router.Router
	feed    *feed.Controller
	studio  *studio.Controller
	admin   *admin.Controller
	preview *preview.Fetcher

	pages map[string]*template.Template
	mux   *http.ServeMux

	mu           sync.Mutex
	navCollapsed bool
}

// New builds the console. The nav-collapse preference is read once at
// startup and written through on toggle.
func New(cfg *config.Config, st *store.Store) (*Server, error) {
	client := api.New(cfg.Service.BaseURL, cfg.ServiceTimeout(), cfg.Service.RequestsPerSecond)
	surface := ui.New()
	rt := router.New(surface)
	slot := handoff.NewStore()

	baseFilter := query.Filter{
		Source:   "all",
		Used:     query.UsedAll,
		MinScore: cfg.Dashboard.MinScore,
		Limit:    cfg.Dashboard.FetchLimit,
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		client:  client,
		surface: surface,
		router:  rt,
		preview: preview.NewFetcher(cfg.ServiceTimeout()),
		mux:     http.NewServeMux(),
	}

	// A nil *store.Store stuffed into the Journal interfaces would compare
	// non-nil inside the controllers, so leave them untyped-nil instead.
	var feedJournal feed.Journal
	var studioJournal studio.Journal
	if st != nil {
		feedJournal = st
		studioJournal = st
	}

	s.feed = feed.New(client, surface, slot, rt, feedJournal, baseFilter)
	s.studio = studio.New(client, surface, slot, studioJournal)
	s.admin = admin.New(client, surface, sourcecheck.NewChecker(cfg.ServiceTimeout()))

	rt.Register(router.Dashboard, router.Spec{
		Regions: []string{feed.RegionGrid, feed.RegionTrending},
		Init:    s.feed.Init,
	})
	rt.Register(router.Studio, router.Spec{
		Regions: []string{
			studio.RegionBanner, studio.RegionClusters, studio.RegionEditor,
			studio.RegionAngles, studio.RegionReadiness,
		},
		Init: s.studio.Init,
	})
	rt.Register(router.Admin, router.Spec{
		Regions: []string{admin.RegionStats, admin.RegionSources},
		Init:    s.admin.Init,
		Bindings: map[string]func(){
			admin.ActionAddStream: func() {
				logger.Log.Info("add stream requested; configure sources on the data service")
			},
		},
	})

	if st != nil {
		collapsed, err := st.NavCollapsed()
		if err != nil {
			logger.Log.Warnf("reading nav preference: %v", err)
		}
		s.navCollapsed = collapsed
	}

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the console.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Router exposes the view router, mainly for tests and the CLI.
func (s *Server) Router() *router.Router {
	return s.router
}

func (s *Server) parseTemplates() error {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
		"statename": func(st ui.State) string { return st.String() },
		"fmttime": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so it can define its own
	// content and title blocks.
	pageNames := []string{"dashboard.html", "studio.html", "admin.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}
	s.pages = pages
	return nil
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleDashboard)
	s.mux.HandleFunc("/studio", s.handleStudio)
	s.mux.HandleFunc("/admin", s.handleAdmin)
	s.mux.HandleFunc("/navigate/", s.handleNavigate)
	s.mux.HandleFunc("/search", s.handleSearch)
	s.mux.HandleFunc("/items/", s.handleItemAction)
	s.mux.HandleFunc("/studio/field", s.handleStudioField)
	s.mux.HandleFunc("/studio/regenerate/", s.handleRegenerate)
	s.mux.HandleFunc("/studio/angles/generate", s.handleGenerateAngles)
	s.mux.HandleFunc("/admin/sources/", s.handleSourceProbe)
	s.mux.HandleFunc("/admin/streams/add", s.handleAddStream)
	s.mux.HandleFunc("/prefs/nav", s.handleNavPref)
}

// ensureView navigates if the console is not already showing the view.
// Being on a page does not re-run its initializer; explicit navigation does.
func (s *Server) ensureView(v router.View) {
	if s.router.Current() != v {
		<-s.router.Navigate(v)
	}
}

// pageData is the render payload common to all pages.
type pageData struct {
	Active       string
	NavCollapsed bool
	Regions      map[string]ui.Region
	Filter       query.Filter
}

func (s *Server) newPageData(regions ...string) pageData {
	s.mu.Lock()
	collapsed := s.navCollapsed
	s.mu.Unlock()

	data := pageData{
		Active:       s.surface.ActiveNav(),
		NavCollapsed: collapsed,
		Regions:      make(map[string]ui.Region, len(regions)),
		Filter:       s.feed.Filter(),
	}
	for _, id := range regions {
		if snap, ok := s.surface.Snapshot(id); ok {
			data.Regions[id] = snap
		}
	}
	return data
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.ensureView(router.Dashboard)

	if f, changed := s.filterFromForm(r); changed {
		// Pill and dropdown changes reload synchronously; they are never
		// debounced.
		if err := s.feed.Load(r.Context(), s.surface.Generation(), f); err != nil {
			logger.Log.Warnf("filtered reload: %v", err)
		}
	}

	s.render(w, "dashboard.html", s.newPageData(feed.RegionGrid, feed.RegionTrending))
}

func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	s.ensureView(router.Studio)
	s.render(w, "studio.html", s.newPageData(
		studio.RegionBanner, studio.RegionClusters, studio.RegionEditor,
		studio.RegionAngles, studio.RegionReadiness,
	))
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.ensureView(router.Admin)
	s.render(w, "admin.html", s.newPageData(admin.RegionStats, admin.RegionSources))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	target := router.View(strings.TrimPrefix(r.URL.Path, "/navigate/"))
	<-s.router.Navigate(target)
	http.Redirect(w, r, viewPath(s.router.Current()), http.StatusFound)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.FormValue("q"))
	if s.router.Current() == router.Dashboard {
		// Trailing-edge debounce; the page shows the previous state until
		// the quiet period elapses and the reload lands.
		s.feed.Search(context.Background(), s.surface.Generation(), text)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleItemAction serves /items/{id}/promote and /items/{id}/preview.
func (s *Server) handleItemAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/items/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "promote":
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		if err := s.feed.Promote(r.Context(), s.surface.Generation(), id); err != nil {
			logger.Log.Warnf("promote failed: %v", err)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/studio", http.StatusFound)
	case "preview":
		s.handlePreview(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, id int64) {
	item, err := s.client.Item(r.Context(), id)
	if err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	text, err := s.preview.Fetch(r.Context(), item.URL)
	if err != nil {
		logger.Log.Warnf("preview for item %d: %v", id, err)
		http.Error(w, "No readable preview available", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, item.Title)
	fmt.Fprintln(w)
	fmt.Fprintln(w, text)
}

func (s *Server) handleStudioField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/studio", http.StatusFound)
		return
	}

	fieldName := r.FormValue("field")
	field, ok := model.FieldByName(fieldName)
	if !ok {
		logger.Log.Warnf("unknown field %q", fieldName)
		http.Redirect(w, r, "/studio", http.StatusFound)
		return
	}
	index, _ := strconv.Atoi(r.FormValue("index"))

	err := s.studio.SetField(model.FieldRef{Field: field, Index: index}, r.FormValue("value"))
	if err != nil {
		logger.Log.Warnf("setting %s: %v", fieldName, err)
	}
	http.Redirect(w, r, "/studio", http.StatusFound)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/studio", http.StatusFound)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/studio/regenerate/")
	platform, ok := studio.ContentPlatformByName(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.studio.Regenerate(r.Context(), platform); err != nil {
		logger.Log.Warnf("regeneration: %v", err)
	}
	http.Redirect(w, r, "/studio", http.StatusFound)
}

func (s *Server) handleGenerateAngles(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := s.studio.GenerateAngles(r.Context()); err != nil {
			logger.Log.Warnf("angle generation: %v", err)
		}
	}
	http.Redirect(w, r, "/studio", http.StatusFound)
}

func (s *Server) handleSourceProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/admin/sources/")
	name, okSuffix := strings.CutSuffix(rest, "/probe")
	if !okSuffix || name == "" {
		http.NotFound(w, r)
		return
	}
	if err := s.admin.Probe(r.Context(), s.surface.Generation(), name); err != nil {
		logger.Log.Warnf("source probe: %v", err)
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) handleAddStream(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if !s.surface.Trigger(admin.ActionAddStream) {
			logger.Log.Warn("add-stream action not bound in current view")
		}
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) handleNavPref(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.mu.Lock()
	s.navCollapsed = !s.navCollapsed
	collapsed := s.navCollapsed
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SetNavCollapsed(collapsed); err != nil {
			logger.Log.Warnf("persisting nav preference: %v", err)
		}
	}

	ref := r.Header.Get("Referer")
	if ref == "" {
		ref = "/"
	}
	http.Redirect(w, r, ref, http.StatusFound)
}

// filterFromForm builds a filter from query parameters, reporting whether
// any filter parameter was present at all.
func (s *Server) filterFromForm(r *http.Request) (query.Filter, bool) {
	q := r.URL.Query()
	keys := []string{"source", "used", "min_score", "signal", "q", "sort_by"}
	present := false
	for _, k := range keys {
		if q.Has(k) {
			present = true
			break
		}
	}
	if !present {
		return query.Filter{}, false
	}

	f := s.feed.Filter()
	if q.Has("source") {
		f.Source = q.Get("source")
	}
	if q.Has("used") {
		f.Used = q.Get("used")
	}
	if q.Has("min_score") {
		if v, err := strconv.ParseFloat(q.Get("min_score"), 64); err == nil {
			f.MinScore = v
		}
	}
	if q.Has("signal") {
		f.Signal = query.Signal(q.Get("signal"))
	}
	if q.Has("q") {
		f.Search = q.Get("q")
	}
	if q.Has("sort_by") {
		f.SortBy = q.Get("sort_by")
	}
	return f, true
}

func viewPath(v router.View) string {
	switch v {
	case router.Studio:
		return "/studio"
	case router.Admin:
		return "/admin"
	}
	return "/"
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logger.Log.Errorf("template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Log.Errorf("rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the console on the configured port, bound to localhost. The
// first navigation lands on the dashboard.
func Serve(cfg *config.Config, st *store.Store) error {
	srv, err := New(cfg, st)
	if err != nil {
		return err
	}

	<-srv.Router().Navigate(router.Dashboard)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	logger.Log.Infof("console listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
