// Package handoff carries promotion state across a view transition. The
// store is a single slot with write/consume-once semantics: the promoting
// view writes it, the next Studio initialization consumes and clears it, and
// a later unrelated navigation into Studio sees nothing.
package handoff

import "sync"

// Handoff names the cluster and item a promotion selected.
type Handoff struct {
	ClusterID string
	ItemID    int64
}

// Store is the process-wide single-slot channel between the feed and the
// studio. It is passed explicitly to both sides, never reached as a global.
type Store struct {
	mu      sync.Mutex
	pending *Handoff
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Write overwrites the slot unconditionally. Last writer wins; at most one
// pending handoff survives a transition.
func (s *Store) Write(clusterID string, itemID int64) {
	s.mu.Lock()
	s.pending = &Handoff{ClusterID: clusterID, ItemID: itemID}
	s.mu.Unlock()
}

// Consume reads and atomically clears the slot. The second of two
// consecutive calls reports ok == false.
func (s *Store) Consume() (Handoff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Handoff{}, false
	}
	h := *s.pending
	s.pending = nil
	return h, true
}
