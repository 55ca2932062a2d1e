// Package world streams chunks of generated content around a moving
// viewpoint inside fixed memory and load budgets.
//
// World is a single-threaded authoritative simulation: the resident chunk
// table, the loading queue and every generator cache are touched only by
// the world-loop goroutine. Materialization (disk reads plus pure
// generation) runs on worker goroutines and reports back through a
// completions channel drained at the start of each tick.
package world

import (
	"context"
	"errors"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"driftworld/internal/sim/chunk"
	"driftworld/internal/sim/climate"
	"driftworld/internal/sim/scene"
	"driftworld/internal/sim/terrain"
	"driftworld/internal/sim/tuning"
	"driftworld/internal/sim/vegetation"
	"driftworld/internal/sim/water"
)

// Entry is one slot of the resident chunk table.
type Entry struct {
	Coord chunk.Coord
	State chunk.LoadState
	Data  *chunk.Data

	// LastAccess is in simulated seconds, the time base StepOnce runs on.
	LastAccess float64
}

// queued is a load candidate waiting for budget.
type queued struct {
	coord      chunk.Coord
	enqueuedAt float64
}

// completion is a finished materialization arriving from a worker.
type completion struct {
	coord    chunk.Coord
	data     *chunk.Data
	fromDisk bool
	// warn notes a recovered persistence failure (corrupt or unreadable
	// file); the data was regenerated.
	warn error
}

// Store persists chunks. chunkfile.Store satisfies it.
type Store interface {
	Save(c chunk.Coord, d *chunk.Data) (int, error)
	Load(c chunk.Coord) (*chunk.Data, error)
	Delete(c chunk.Coord) error
}

// Index records persisted-chunk accounting. indexdb.SQLiteIndex satisfies it.
type Index interface {
	RecordSave(c chunk.Coord, sizeBytes int, digest [32]byte, tick uint64)
	RecordDelete(c chunk.Coord)
}

// EventLogger receives structured stream events. May be nil.
type EventLogger interface {
	WriteEvent(Event) error
}

// Event is one JSONL stream event.
type Event struct {
	Tick   uint64 `json:"tick"`
	Event  string `json:"event"`
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	Detail string `json:"detail,omitempty"`
}

// Stream event names.
const (
	EventLoadStart    = "load_start"
	EventLoadDone     = "load_done"
	EventDiscardStale = "discard_stale"
	EventEvict        = "evict"
	EventSave         = "save"
	EventRegenerate   = "regenerate"
)

// EnvironmentParams describes one world cell.
type EnvironmentParams struct {
	Height      float64
	Temperature float64
	Moisture    float64
	Zone        climate.Zone
	Band        terrain.Band
	Tile        terrain.TileType
}

const (
	// cleanupInterval bounds how often eviction runs, in simulated seconds.
	cleanupInterval = 5.0
	// idleEvictAfter evicts chunks untouched for this long.
	idleEvictAfter = 30.0
)

// World owns the chunk stream for one seed.
type World struct {
	cfg tuning.Config

	tick atomic.Uint64
	now  float64

	viewpoint chunk.Coord

	chunks   map[chunk.Coord]*Entry
	queue    []queued
	inflight map[chunk.Coord]struct{}

	terrain    *terrain.Generator
	climate    *climate.System
	water      *water.Manager
	vegetation *vegetation.System
	scenes     *scene.Placer

	store  Store
	index  Index
	events EventLogger
	lg     *log.Logger

	jobs        chan job
	completions chan completion
	workers     sync.WaitGroup

	requests chan func(*World)
	stop     chan struct{}
	once     sync.Once

	lastCleanup float64
}

func New(cfg tuning.Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	placer, err := scene.NewPlacer(cfg.Seed, cfg.Scene)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:        cfg,
		chunks:     make(map[chunk.Coord]*Entry),
		inflight:   make(map[chunk.Coord]struct{}),
		terrain:    terrain.NewGenerator(cfg.Seed, cfg.Terrain),
		climate:    climate.NewSystem(cfg.Seed+1, cfg.Climate),
		water:      water.NewManager(cfg.Seed+2, cfg.Water),
		vegetation: vegetation.NewSystem(cfg.Seed+3, cfg.Vegetation),
		scenes:     placer,

		jobs:        make(chan job, 256),
		completions: make(chan completion, 256),
		requests:    make(chan func(*World), 64),
		stop:        make(chan struct{}),

		lastCleanup: -cleanupInterval,
	}

	workers := cfg.LoadBudget
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		w.workers.Add(1)
		go func() {
			defer w.workers.Done()
			w.workerLoop()
		}()
	}
	return w, nil
}

// SetStore attaches chunk persistence. Without one, every chunk is
// regenerated on load and nothing survives eviction.
func (w *World) SetStore(s Store) { w.store = s }

// SetIndex attaches the persisted-chunk index.
func (w *World) SetIndex(i Index) { w.index = i }

// SetEventLogger attaches the structured event sink.
func (w *World) SetEventLogger(l EventLogger) { w.events = l }

// SetLogger attaches the plain text logger.
func (w *World) SetLogger(l *log.Logger) { w.lg = l }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) logf(format string, args ...any) {
	if w.lg != nil {
		w.lg.Printf(format, args...)
	}
}

func (w *World) emit(ev Event) {
	if w.events == nil {
		return
	}
	if err := w.events.WriteEvent(ev); err != nil {
		w.logf("event log: %v", err)
	}
}

// Do schedules fn onto the world loop. It is the only safe way for other
// goroutines to touch world state while Run is active.
func (w *World) Do(fn func(*World)) {
	select {
	case w.requests <- fn:
	case <-w.stop:
	}
}

// Run drives the world at the configured tick rate until the context is
// cancelled or Stop is called.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case fn := <-w.requests:
			fn(w)
		case <-ticker.C:
			w.StepOnce(time.Since(start).Seconds())
		}
	}
}

// Stop shuts down the loop and the worker pool. Safe to call twice.
func (w *World) Stop() {
	w.once.Do(func() {
		close(w.stop)
		close(w.jobs)
		w.workers.Wait()
	})
}

// UpdateViewpoint moves the streaming center, in world cell coordinates.
// World-loop goroutine only; use Do from elsewhere.
func (w *World) UpdateViewpoint(x, y float64) {
	w.viewpoint = chunk.FromWorld(int(x), int(y))
}

// Viewpoint returns the current viewpoint chunk.
func (w *World) Viewpoint() chunk.Coord { return w.viewpoint }

// StepOnce runs a single tick at the given simulated time: drain worker
// completions, refresh the required set, dispatch loads within budget,
// then run eviction if due. World-loop goroutine only.
func (w *World) StepOnce(now float64) uint64 {
	tick := w.tick.Add(1)
	w.now = now

	w.drainCompletions(now)
	w.refreshRequiredSet(now)
	w.dispatchLoads(now, tick)

	if now-w.lastCleanup >= cleanupInterval {
		w.runEviction(now, tick)
		w.lastCleanup = now
	}
	return tick
}

// drainCompletions attaches finished loads, discarding results whose
// coordinate is no longer wanted.
func (w *World) drainCompletions(now float64) {
	for {
		select {
		case c := <-w.completions:
			w.handleCompletion(c, now)
		default:
			return
		}
	}
}

func (w *World) handleCompletion(c completion, now float64) {
	delete(w.inflight, c.coord)

	if c.warn != nil {
		w.logf("chunk %v: regenerated after persistence failure: %v", c.coord, c.warn)
		w.emit(Event{Tick: w.tick.Load(), Event: EventRegenerate, CX: c.coord.X, CY: c.coord.Y, Detail: c.warn.Error()})
	}

	e, ok := w.chunks[c.coord]
	if !ok || e.State != chunk.Loading {
		// The coordinate left the required set while the load was in
		// flight. Not an error; the result is simply dropped.
		w.emit(Event{Tick: w.tick.Load(), Event: EventDiscardStale, CX: c.coord.X, CY: c.coord.Y})
		return
	}

	e.Data = c.data
	e.State = chunk.Loaded
	e.LastAccess = now
	detail := "generated"
	if c.fromDisk {
		detail = "from_disk"
	}
	w.emit(Event{Tick: w.tick.Load(), Event: EventLoadDone, CX: c.coord.X, CY: c.coord.Y, Detail: detail})
}

// AwaitLoads blocks until no materialization is in flight, attaching
// completions as they arrive. Test and shutdown helper; the tick loop
// itself never blocks on workers.
func (w *World) AwaitLoads() {
	for len(w.inflight) > 0 {
		c := <-w.completions
		w.handleCompletion(c, w.now)
	}
}

// refreshRequiredSet enqueues every coordinate within view distance of
// the viewpoint that is neither resident nor already queued, and drops
// queued candidates that have left the required set.
func (w *World) refreshRequiredSet(now float64) {
	// Abandon in-flight loads the viewpoint has left far behind. The
	// worker still finishes, but the liveness check in handleCompletion
	// drops the result. There is no data to persist at this stage, so
	// this is cancellation, not eviction.
	for c, e := range w.chunks {
		if e.State == chunk.Loading && chunk.Manhattan(c, w.viewpoint) > 2*w.cfg.ViewDistance {
			delete(w.chunks, c)
		}
	}

	keep := w.queue[:0]
	for _, q := range w.queue {
		if w.inRequiredSet(q.coord) {
			keep = append(keep, q)
		}
	}
	w.queue = keep

	r := w.cfg.ViewDistance
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c := chunk.Coord{X: w.viewpoint.X + dx, Y: w.viewpoint.Y + dy}
			if _, resident := w.chunks[c]; resident {
				continue
			}
			// An abandoned load may still be in flight for this
			// coordinate; it gets one loader at a time. The discard of
			// the old completion clears the slot for a later tick.
			if _, busy := w.inflight[c]; busy {
				continue
			}
			if w.isQueued(c) {
				continue
			}
			w.queue = append(w.queue, queued{coord: c, enqueuedAt: now})
		}
	}
}

func (w *World) inRequiredSet(c chunk.Coord) bool {
	dx := c.X - w.viewpoint.X
	dy := c.Y - w.viewpoint.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= w.cfg.ViewDistance && dy <= w.cfg.ViewDistance
}

func (w *World) isQueued(c chunk.Coord) bool {
	for _, q := range w.queue {
		if q.coord == c {
			return true
		}
	}
	return false
}

// priority implements the starvation-resistant queue ordering: distance
// dominates, but waiting time slowly lifts far coordinates.
func (w *World) priority(q queued, now float64) int {
	base := 1000.0 / float64(chunk.Manhattan(q.coord, w.viewpoint)+1)
	timeBonus := 1.0 + (now-q.enqueuedAt)*0.1
	return int(base * timeBonus)
}

// dispatchLoads starts up to load_budget materializations, highest
// priority first.
func (w *World) dispatchLoads(now float64, tick uint64) {
	w.sortQueue(now)

	started := 0
	for started < w.cfg.LoadBudget && len(w.queue) > 0 {
		q := w.queue[0]
		w.queue = w.queue[1:]

		if _, busy := w.inflight[q.coord]; busy {
			continue
		}
		w.chunks[q.coord] = &Entry{
			Coord:      q.coord,
			State:      chunk.Loading,
			LastAccess: now,
		}
		w.inflight[q.coord] = struct{}{}

		select {
		case w.jobs <- job{kind: jobLoad, coord: q.coord, season: w.climate.Season()}:
			started++
			w.emit(Event{Tick: tick, Event: EventLoadStart, CX: q.coord.X, CY: q.coord.Y})
		default:
			// Worker backlog full; put the coordinate back and retry
			// next tick.
			delete(w.chunks, q.coord)
			delete(w.inflight, q.coord)
			w.queue = append([]queued{q}, w.queue...)
			return
		}
	}
}

// sortQueue orders by descending priority. Ties break toward the closer
// coordinate, then by coordinate, so the order is fully deterministic.
func (w *World) sortQueue(now float64) {
	q := w.queue
	vp := w.viewpoint
	sort.Slice(q, func(i, j int) bool {
		a, b := q[i], q[j]
		pa, pb := w.priority(a, now), w.priority(b, now)
		if pa != pb {
			return pa > pb
		}
		da, db := chunk.Manhattan(a.coord, vp), chunk.Manhattan(b.coord, vp)
		if da != db {
			return da < db
		}
		if a.coord.Y != b.coord.Y {
			return a.coord.Y < b.coord.Y
		}
		return a.coord.X < b.coord.X
	})
}

// runEviction drops chunks that are idle or far outside the view, then
// trims farthest-first while over the memory budget. Decisions come from
// a snapshot taken at cleanup start; Loading chunks are never touched.
func (w *World) runEviction(now float64, tick uint64) {
	type candidate struct {
		e    *Entry
		dist int
	}
	var loaded []candidate
	for _, e := range w.chunks {
		if e.State != chunk.Loaded {
			continue
		}
		loaded = append(loaded, candidate{e: e, dist: chunk.Manhattan(e.Coord, w.viewpoint)})
	}

	evict := func(c candidate, reason string) {
		w.evictEntry(c.e, tick, reason)
	}

	remaining := loaded[:0]
	for _, c := range loaded {
		switch {
		case c.dist > 2*w.cfg.ViewDistance:
			evict(c, "distance")
		case now-c.e.LastAccess > idleEvictAfter:
			evict(c, "idle")
		default:
			remaining = append(remaining, c)
		}
	}

	over := len(remaining) - w.cfg.MemoryBudget
	if over <= 0 {
		return
	}
	sort.Slice(remaining, func(i, j int) bool {
		a, b := remaining[i], remaining[j]
		if a.dist != b.dist {
			return a.dist > b.dist
		}
		if a.e.LastAccess != b.e.LastAccess {
			return a.e.LastAccess < b.e.LastAccess
		}
		if a.e.Coord.Y != b.e.Coord.Y {
			return a.e.Coord.Y > b.e.Coord.Y
		}
		return a.e.Coord.X > b.e.Coord.X
	})
	for i := 0; i < over; i++ {
		evict(remaining[i], "memory_budget")
	}
}

func (w *World) evictEntry(e *Entry, tick uint64, reason string) {
	e.State = chunk.Unloading

	if e.Data != nil && e.Data.Modified && w.store != nil {
		// Hand a deep copy to the save worker; the table entry is gone
		// by the time the write lands.
		select {
		case w.jobs <- job{kind: jobSave, coord: e.Coord, data: e.Data.Clone(), tick: tick}:
		default:
			// Backlog full: save inline rather than lose the edit.
			w.saveChunk(e.Coord, e.Data, tick)
		}
	}

	delete(w.chunks, e.Coord)
	w.emit(Event{Tick: tick, Event: EventEvict, CX: e.Coord.X, CY: e.Coord.Y, Detail: reason})
	w.logf("evict %v (%s)", e.Coord, reason)
}

// ChunkState reports the lifecycle state of a chunk coordinate.
func (w *World) ChunkState(c chunk.Coord) chunk.LoadState {
	e, ok := w.chunks[c]
	if !ok {
		return chunk.Unloaded
	}
	return e.State
}

// ResidentCount returns how many chunks occupy table slots.
func (w *World) ResidentCount() int { return len(w.chunks) }

// ChunkData returns the data of a loaded chunk, marking it accessed.
// Returns nil unless the chunk is Loaded.
func (w *World) ChunkData(c chunk.Coord) *chunk.Data {
	e, ok := w.chunks[c]
	if !ok || e.State != chunk.Loaded {
		return nil
	}
	e.LastAccess = w.now
	return e.Data
}

// Environment computes the full environment of a world cell. Values come
// from the generators, so they agree with chunk content whether or not
// the containing chunk is resident.
func (w *World) Environment(x, y int) EnvironmentParams {
	fx, fy := float64(x), float64(y)
	h := w.terrain.GenerateHeight(fx, fy)
	tile := w.terrain.TileTypeAt(h, fx, fy)
	if w.water.HasWaterAt(x, y) {
		tile = terrain.Water
	}
	return EnvironmentParams{
		Height:      h,
		Temperature: w.climate.Temperature(x, y),
		Moisture:    w.climate.Moisture(x, y),
		Zone:        w.climate.ZoneAt(x, y, h),
		Band:        terrain.BandOf(h),
		Tile:        tile,
	}
}

// SceneAt resolves the scene feature at a world cell, if any.
func (w *World) SceneAt(x, y int) (scene.Type, bool) {
	env := w.Environment(x, y)
	return w.scenes.SceneAt(x, y, scene.Env{
		Height:      env.Height,
		Temperature: env.Temperature,
		Moisture:    env.Moisture,
		Slope:       w.terrain.Slope(float64(x), float64(y)),
		Band:        env.Band,
	})
}

// SetSeason switches the climate season. Resident chunks keep their
// generated content; only environment queries change.
func (w *World) SetSeason(s climate.Season) { w.climate.SetSeason(s) }

// Season returns the active season.
func (w *World) Season() climate.Season { return w.climate.Season() }

// Params returns the active configuration.
func (w *World) Params() tuning.Config { return w.cfg }

// Flush synchronously persists every modified resident chunk. Run it on
// shutdown so edits survive without waiting for eviction. World-loop
// goroutine only (or after Stop).
func (w *World) Flush() {
	tick := w.tick.Load()
	for _, e := range w.chunks {
		if e.State != chunk.Loaded || e.Data == nil || !e.Data.Modified {
			continue
		}
		w.saveChunk(e.Coord, e.Data, tick)
		e.Data.Modified = false
	}
}

func (w *World) saveChunk(c chunk.Coord, d *chunk.Data, tick uint64) {
	if w.store == nil {
		return
	}
	n, err := w.store.Save(c, d)
	if err != nil {
		w.logf("save %v: %v", c, err)
		return
	}
	if w.index != nil {
		w.index.RecordSave(c, n, d.Digest(), tick)
	}
	w.emit(Event{Tick: tick, Event: EventSave, CX: c.X, CY: c.Y})
}

// isNotExist tolerates wrapped os.ErrNotExist from the store.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
