// Package worldtest wires the full stack (world loop, chunk store, index
// database, event sink) against temporary directories for integration
// tests. Simulated time is driven explicitly, so tests control eviction
// windows without sleeping.
package worldtest

import (
	"path/filepath"
	"sync"
	"testing"

	"driftworld/internal/persistence/chunkfile"
	"driftworld/internal/persistence/indexdb"
	"driftworld/internal/sim/tuning"
	"driftworld/internal/sim/world"
)

// EventRecorder captures stream events for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	events []world.Event
}

func (r *EventRecorder) WriteEvent(ev world.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (r *EventRecorder) Events() []world.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]world.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of one kind were recorded.
func (r *EventRecorder) Count(kind string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Event == kind {
			n++
		}
	}
	return n
}

type Harness struct {
	W      *world.World
	Store  *chunkfile.Store
	Index  *indexdb.SQLiteIndex
	Events *EventRecorder

	Now float64
}

// Config returns a small deterministic configuration suited to tests.
func Config() tuning.Config {
	cfg := tuning.Default()
	cfg.Seed = 42
	cfg.ViewDistance = 1
	cfg.MemoryBudget = 100
	cfg.LoadBudget = 2
	return cfg
}

// New builds a fully wired harness in a temp directory. mutate may adjust
// the configuration before the world is created; pass nil to keep Config.
func New(t *testing.T, mutate func(*tuning.Config)) *Harness {
	t.Helper()

	cfg := Config()
	if mutate != nil {
		mutate(&cfg)
	}
	dir := t.TempDir()

	store, err := chunkfile.NewStore(filepath.Join(dir, "chunks"))
	if err != nil {
		t.Fatalf("chunk store: %v", err)
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("index db: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	rec := &EventRecorder{}

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.SetStore(store)
	w.SetIndex(idx)
	w.SetEventLogger(rec)
	t.Cleanup(w.Stop)

	return &Harness{W: w, Store: store, Index: idx, Events: rec}
}

// Tick advances one tick of dt simulated seconds and waits for every
// dispatched load to land.
func (h *Harness) Tick(dt float64) {
	h.Now += dt
	h.W.StepOnce(h.Now)
	h.W.AwaitLoads()
}

// Settle ticks until the required set around the viewpoint is resident.
func (h *Harness) Settle() {
	for i := 0; i < 30; i++ {
		h.Tick(0.1)
	}
}
