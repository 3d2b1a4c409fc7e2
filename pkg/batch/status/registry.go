package status

import "sync"

// Registry holds one register per run ID.
//
// Snapshots of unknown runs report the not_started phase rather than an
// error; absence of a run is a valid query result.
type Registry struct {
	mu        sync.RWMutex
	registers map[string]*Register
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{registers: make(map[string]*Register)}
}

// Create allocates a register for runID and returns it. An existing
// register for the same ID is returned unchanged so two starts for one
// run identity cannot split their status.
func (g *Registry) Create(runID string) *Register {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.registers[runID]; ok {
		return r
	}
	r := NewRegister()
	g.registers[runID] = r
	return r
}

// Get returns the register for runID, or nil when absent.
func (g *Registry) Get(runID string) *Register {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registers[runID]
}

// Snapshot reads the status of runID. Unknown IDs yield a zero snapshot
// in the not_started phase.
func (g *Registry) Snapshot(runID string) Snapshot {
	if r := g.Get(runID); r != nil {
		return r.Snapshot()
	}
	return Snapshot{Phase: PhaseNotStarted}
}
