package physics

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// WorldID names the simulation world an engine belongs to.
type WorldID string

// Options configures a new engine.
type Options struct {
	CellSize        float64 // grid cell edge, default DefaultCellSize
	InitialCapacity int     // initial slot capacity, default 1024
}

// Engine owns the whole index for one world: SoA store, slot map, grid,
// oversized list, query and staging queue.
//
// OnTickStart, the *Direct methods, queries and Shutdown run on the tick
// goroutine. TrackEntity and UntrackEntity may be called from anywhere.
type Engine struct {
	world WorldID
	log   *zap.Logger

	data      *EntityData
	slots     *SlotMap
	grid      *Grid
	oversized *OversizedList
	query     *Query
	staging   *StagingQueue

	active atomic.Bool

	ticks   atomic.Uint64
	applied atomic.Uint64
	queries atomic.Uint64
	stats   atomic.Pointer[EngineStats] // published at the end of each tick
}

// EngineStats is a point-in-time view safe to read from any goroutine.
type EngineStats struct {
	World     WorldID       `json:"world"`
	Active    bool          `json:"active"`
	Tracked   int           `json:"tracked"`
	GridCells int           `json:"grid_cells"`
	GridSlots int           `json:"grid_slots"`
	Oversized int           `json:"oversized"`
	Capacity  int           `json:"capacity"`
	Pending   int           `json:"pending"`
	Ticks     uint64        `json:"ticks"`
	Applied   uint64        `json:"applied"`
	Queries   uint64        `json:"queries"`
	LastTick  time.Duration `json:"last_tick_ns"`
}

func NewEngine(world WorldID, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	data := NewEntityData(opts.InitialCapacity)
	slots := NewSlotMap(data)
	grid := NewGrid(opts.CellSize)
	oversized := NewOversizedList(grid.CellSize())

	e := &Engine{
		world:     world,
		log:       log.With(zap.String("world", string(world))),
		data:      data,
		slots:     slots,
		grid:      grid,
		oversized: oversized,
		query:     NewQuery(data, slots, grid, oversized),
		staging:   NewStagingQueue(),
	}
	e.active.Store(true)
	e.publish(0)
	return e
}

func (e *Engine) World() WorldID { return e.world }
func (e *Engine) IsActive() bool { return e.active.Load() }

// OnTickStart drains staged registrations, re-syncs every live entity into
// the SoA store and moves grid membership for entities that changed cell.
// Dead entities are not synced; their removal is staged for the next tick.
// A flush failure is returned after the resync, so entities already tracked
// are current even on a failed tick.
func (e *Engine) OnTickStart() error {
	if !e.active.Load() {
		return nil
	}
	start := time.Now()

	applied, flushErr := e.staging.Flush(e)
	e.applied.Add(uint64(applied))
	if applied > 0 {
		e.log.Debug("staging flushed", zap.Int("applied", applied), zap.Int("tracked", e.slots.ActiveCount()))
	}

	count := e.slots.ActiveCount()
	for slot := 0; slot < count; slot++ {
		ent := e.slots.Entity(slot)
		if ent == nil {
			continue
		}
		if !ent.Alive() {
			e.staging.EnqueueRemove(ent)
			continue
		}
		e.resync(ent, slot)
	}

	e.ticks.Add(1)
	e.publish(time.Since(start))
	if flushErr != nil {
		return fmt.Errorf("world %s: flush staging: %w", e.world, flushErr)
	}
	return nil
}

// resync mirrors ent into slot and repairs its spatial membership. A width
// change across the oversized threshold migrates the slot between containers.
func (e *Engine) resync(ent Entity, slot int) {
	oldX, oldZ := e.data.PosX(slot), e.data.PosZ(slot)
	wasOversized := e.oversized.IsOversized(2 * e.data.HalfWidth(slot))

	e.slots.SyncEntityToSlot(ent, slot)

	newX, newZ := e.data.PosX(slot), e.data.PosZ(slot)
	isOversized := e.oversized.IsOversized(2 * e.data.HalfWidth(slot))

	switch {
	case wasOversized && isOversized:
	case !wasOversized && !isOversized:
		e.grid.Update(slot, oldX, oldZ, newX, newZ)
	case wasOversized:
		e.oversized.Remove(slot)
		e.grid.Insert(slot, newX, newZ)
	default:
		e.grid.Remove(slot, oldX, oldZ)
		e.oversized.Add(slot)
	}
}

// TrackEntityDirect allocates a slot for ent and files it in the grid or the
// oversized list. Already tracked entities are ignored. Only slot capacity
// exhaustion is returned.
func (e *Engine) TrackEntityDirect(ent Entity) error {
	if !e.active.Load() || ent == nil {
		return nil
	}
	slot, err := e.slots.Allocate(ent)
	if errors.Is(err, ErrAlreadyTracked) {
		return nil
	}
	if err != nil {
		return err
	}
	e.attach(slot)
	return nil
}

// UntrackEntityDirect frees ent's slot. Both the freed slot and the last
// slot are detached while their records still hold pre-swap positions; the
// moved entity is re-attached under its new slot after the swap.
func (e *Engine) UntrackEntityDirect(ent Entity) {
	if !e.active.Load() || ent == nil {
		return
	}
	slot := e.slots.Slot(ent.ID())
	if slot < 0 {
		return
	}

	e.detach(slot)
	last := e.slots.ActiveCount() - 1
	if slot != last {
		e.detach(last)
	}

	res, err := e.slots.Free(ent)
	if err != nil {
		return
	}
	if res.Moved != nil {
		e.attach(res.Slot)
	}
}

// attach files slot under the container its stored width selects.
func (e *Engine) attach(slot int) {
	if e.oversized.IsOversized(2 * e.data.HalfWidth(slot)) {
		e.oversized.Add(slot)
		return
	}
	e.grid.Insert(slot, e.data.PosX(slot), e.data.PosZ(slot))
}

func (e *Engine) detach(slot int) {
	if e.oversized.IsOversized(2 * e.data.HalfWidth(slot)) {
		e.oversized.Remove(slot)
		return
	}
	e.grid.Remove(slot, e.data.PosX(slot), e.data.PosZ(slot))
}

// TrackEntity stages ent for registration at the next tick. Safe from any
// goroutine. Dropped once the engine has shut down.
func (e *Engine) TrackEntity(ent Entity) {
	if !e.active.Load() || ent == nil {
		return
	}
	e.staging.EnqueueAdd(ent)
}

// UntrackEntity stages ent for removal at the next tick. Safe from any goroutine.
func (e *Engine) UntrackEntity(ent Entity) {
	if !e.active.Load() || ent == nil {
		return
	}
	e.staging.EnqueueRemove(ent)
}

// EntitiesInBox returns nil on an inactive engine.
func (e *Engine) EntitiesInBox(except Entity, box Box, pred func(Entity) bool) []Entity {
	if !e.active.Load() {
		return nil
	}
	e.queries.Add(1)
	return e.query.EntitiesInBox(except, box, pred)
}

// CollisionShapes returns nil on an inactive engine.
func (e *Engine) CollisionShapes(querier Entity, box Box) []Box {
	if !e.active.Load() {
		return nil
	}
	e.queries.Add(1)
	return e.query.CollisionShapes(querier, box)
}

// Slot returns the current slot of id, or -1.
func (e *Engine) Slot(id EntityID) int { return e.slots.Slot(id) }

func (e *Engine) IsTracked(id EntityID) bool { return e.slots.IsTracked(id) }
func (e *Engine) TrackedCount() int          { return e.slots.ActiveCount() }
func (e *Engine) GridCellCount() int         { return e.grid.CellCount() }
func (e *Engine) OversizedCount() int        { return e.oversized.Len() }
func (e *Engine) PendingCount() int          { return e.staging.Len() }

// InGrid reports whether slot currently sits in a grid cell.
func (e *Engine) InGrid(slot int) bool {
	if slot < 0 || slot >= e.slots.ActiveCount() {
		return false
	}
	cell := e.grid.Cell(e.grid.CellCoord(e.data.PosX(slot)), e.grid.CellCoord(e.data.PosZ(slot)))
	for _, s := range cell {
		if int(s) == slot {
			return true
		}
	}
	return false
}

// InOversized reports whether slot is in the oversized list.
func (e *Engine) InOversized(slot int) bool { return e.oversized.Contains(slot) }

// GridStats exposes the grid counters.
func (e *Engine) GridStats() GridStats { return e.grid.Stats() }

// Stats returns the snapshot published by the last tick with live counters.
func (e *Engine) Stats() EngineStats {
	s := *e.stats.Load()
	s.Active = e.active.Load()
	s.Pending = e.staging.Len()
	s.Queries = e.queries.Load()
	return s
}

// Shutdown deactivates the engine and discards all index state together:
// pending requests, slots, grid, oversized list and SoA storage. Call it on
// the tick goroutine or after the tick loop has stopped.
func (e *Engine) Shutdown() {
	if !e.active.Swap(false) {
		return
	}
	e.staging.Clear()
	e.slots.Clear()
	e.grid.Clear()
	e.oversized.Clear()
	e.data.Free()
	e.publish(0)
}

func (e *Engine) publish(last time.Duration) {
	gs := e.grid.Stats()
	e.stats.Store(&EngineStats{
		World:     e.world,
		Active:    e.active.Load(),
		Tracked:   e.slots.ActiveCount(),
		GridCells: gs.Cells,
		GridSlots: gs.Slots,
		Oversized: e.oversized.Len(),
		Capacity:  e.data.Capacity(),
		Ticks:     e.ticks.Load(),
		Applied:   e.applied.Load(),
		Queries:   e.queries.Load(),
		LastTick:  last,
	})
}
