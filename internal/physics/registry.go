package physics

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry maps world identity to its engine. The host owns it and passes
// it to whoever needs an engine; there is no package-level instance.
// Lifecycle calls are safe from any goroutine. TickAll, Remove and
// RemoveAll shut engines down and belong to the tick goroutine.
type Registry struct {
	mu      sync.RWMutex
	engines map[WorldID]*Engine
	opts    Options
	log     *zap.Logger
}

func NewRegistry(opts Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		engines: make(map[WorldID]*Engine),
		opts:    opts,
		log:     log,
	}
}

// Get returns the engine for world, or nil.
func (r *Registry) Get(world WorldID) *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[world]
}

// GetOrCreate returns the engine for world, creating it on first use.
func (r *Registry) GetOrCreate(world WorldID) *Engine {
	if e := r.Get(world); e != nil {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[world]; ok {
		return e
	}
	e := NewEngine(world, r.opts, r.log)
	r.engines[world] = e
	r.log.Info("physics engine created",
		zap.String("world", string(world)),
		zap.Float64("cell_size", e.grid.CellSize()),
	)
	return e
}

// Remove unregisters and shuts down the engine for world.
func (r *Registry) Remove(world WorldID) {
	r.mu.Lock()
	e, ok := r.engines[world]
	delete(r.engines, world)
	r.mu.Unlock()

	if !ok {
		return
	}
	e.Shutdown()
	r.log.Info("physics engine removed", zap.String("world", string(world)))
}

// RemoveAll shuts down every engine.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[WorldID]*Engine)
	r.mu.Unlock()

	for world, e := range engines {
		e.Shutdown()
		r.log.Info("physics engine removed", zap.String("world", string(world)))
	}
}

// TickAll runs OnTickStart on every engine in world order. Every engine is
// ticked even if one fails; the failures are joined.
func (r *Registry) TickAll() error {
	var errs []error
	for _, e := range r.engineList() {
		if err := e.OnTickStart(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Worlds returns the registered world IDs, sorted.
func (r *Registry) Worlds() []WorldID {
	r.mu.RLock()
	worlds := make([]WorldID, 0, len(r.engines))
	for w := range r.engines {
		worlds = append(worlds, w)
	}
	r.mu.RUnlock()
	sort.Slice(worlds, func(i, j int) bool { return worlds[i] < worlds[j] })
	return worlds
}

// Each calls fn for every engine in world order.
func (r *Registry) Each(fn func(*Engine)) {
	for _, e := range r.engineList() {
		fn(e)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

func (r *Registry) engineList() []*Engine {
	r.mu.RLock()
	list := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		list = append(list, e)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].world < list[j].world })
	return list
}
