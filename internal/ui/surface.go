// Package ui is the boundary between controllers and whatever renders them.
// A Surface is a set of named regions plus view-scoped action bindings.
// Installing a scaffold replaces everything and bumps a generation counter;
// writes carrying a stale generation are discarded, which is what keeps a
// slow fetch from scribbling over a view the operator already left.
package ui

import "sync"

// State is the render state of one region. The three fetch-cycle states
// (loading, failed, empty) are mutually exclusive with ready.
type State int

const (
	StateLoading State = iota
	StateReady
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Region is one independently updated area of the installed scaffold.
// Data carries a view-owned snapshot; the surface never inspects it.
type Region struct {
	State State
	Error string
	Data  any
}

// Surface is the in-memory scaffold. One instance serves the whole process.
type Surface struct {
	mu      sync.Mutex
	gen     uint64
	active  string
	regions map[string]*Region
	actions map[string]func()
}

// New returns an empty surface with no scaffold installed.
func New() *Surface {
	return &Surface{
		regions: map[string]*Region{},
		actions: map[string]func(){},
	}
}

// MarkNav highlights the active navigation entry. Idempotent; nothing else
// depends on it.
func (s *Surface) MarkNav(name string) {
	s.mu.Lock()
	s.active = name
	s.mu.Unlock()
}

// ActiveNav returns the currently marked navigation entry.
func (s *Surface) ActiveNav() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Install discards the previous scaffold and creates the named regions in
// the loading state. It returns the new generation; every write made on
// behalf of this scaffold must carry it.
func (s *Surface) Install(regions []string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.regions = make(map[string]*Region, len(regions))
	for _, id := range regions {
		s.regions[id] = &Region{State: StateLoading}
	}
	s.actions = map[string]func(){}
	return s.gen
}

// Generation returns the current scaffold generation.
func (s *Surface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Apply mutates a region under the surface lock. It reports false, changing
// nothing, when gen is stale or the region does not exist in the current
// scaffold.
func (s *Surface) Apply(gen uint64, id string, fn func(*Region)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	r, ok := s.regions[id]
	if !ok {
		return false
	}
	fn(r)
	return true
}

// Snapshot returns a copy of a region, for rendering and assertions.
func (s *Surface) Snapshot(id string) (Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[id]
	if !ok {
		return Region{}, false
	}
	return *r, true
}

// Bind attaches a view-scoped action. Bindings do not survive Install, so a
// view re-binds on every transition.
func (s *Surface) Bind(gen uint64, name string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.actions[name] = fn
	return true
}

// Trigger invokes a bound action, reporting whether it existed.
func (s *Surface) Trigger(name string) bool {
	s.mu.Lock()
	fn, ok := s.actions[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}
