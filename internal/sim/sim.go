// Package sim is a reference host for the physics engine: bodies spawned by
// async loaders, moved and probed by a phase-ordered system runner.
package sim

import (
	"fmt"
	"time"

	"github.com/flatcollision/flatcollision/internal/core/event"
	coresys "github.com/flatcollision/flatcollision/internal/core/system"
	"github.com/flatcollision/flatcollision/internal/data"
	"github.com/flatcollision/flatcollision/internal/physics"
	"go.uber.org/zap"
)

// Options configures a Simulation.
type Options struct {
	Worlds        []string
	Bounds        float64 // half extent on X and Z; <= 0 is unbounded
	ProbesPerTick int
	ProbeRadius   float64
	DespawnChance float64
	InboxSize     int
	Seed          int64
	Loader        LoaderOptions
}

// Simulation owns the worlds it drives. The physics registry belongs to the
// caller, which may share it with other hosts.
type Simulation struct {
	opts     Options
	log      *zap.Logger
	registry *physics.Registry
	spawns   *data.SpawnTable
	probe    func(physics.Entity) bool
	metrics  *Metrics
	runner   *coresys.Runner
	bus      *event.Bus
	worlds   []*World
	byName   map[physics.WorldID]*World

	population map[physics.WorldID]map[string]int // tick goroutine only
}

// New creates an engine per configured world and registers the tick systems.
// spawns and probe may be nil; metrics may be nil for unregistered metrics.
func New(registry *physics.Registry, spawns *data.SpawnTable, probe func(physics.Entity) bool,
	metrics *Metrics, opts Options, log *zap.Logger) (*Simulation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if len(opts.Worlds) == 0 {
		return nil, fmt.Errorf("simulation needs at least one world")
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}

	s := &Simulation{
		opts:     opts,
		log:      log,
		registry: registry,
		spawns:   spawns,
		probe:    probe,
		metrics:  metrics,
		runner:   coresys.NewRunner(),
		bus:      event.NewBus(),
		byName:   make(map[physics.WorldID]*World, len(opts.Worlds)),

		population: make(map[physics.WorldID]map[string]int, len(opts.Worlds)),
	}
	for i, name := range opts.Worlds {
		id := physics.WorldID(name)
		if _, dup := s.byName[id]; dup {
			return nil, fmt.Errorf("duplicate world %q", name)
		}
		w := newWorld(id, registry.GetOrCreate(id), s.bus, opts.InboxSize, opts.Seed+int64(i)*7919)
		s.worlds = append(s.worlds, w)
		s.byName[id] = w
		s.population[id] = make(map[string]int)
	}
	s.subscribe()

	s.runner.Register(&EventDispatchSystem{s: s})
	s.runner.Register(&InputSystem{s: s})
	s.runner.Register(&PhysicsSystem{s: s})
	s.runner.Register(&QuerySystem{s: s})
	s.runner.Register(&MovementSystem{s: s})
	s.runner.Register(&CleanupSystem{s: s})
	return s, nil
}

// Tick runs one simulation step. Tick goroutine only.
func (s *Simulation) Tick(dt time.Duration) error {
	start := time.Now()
	err := s.runner.Tick(dt)
	s.metrics.tickDuration.Observe(time.Since(start).Seconds())
	return err
}

func (s *Simulation) subscribe() {
	event.Subscribe(s.bus, func(ev event.BodySpawned) {
		s.population[ev.World][ev.Archetype]++
	})
	event.Subscribe(s.bus, func(ev event.BodyDespawned) {
		pop := s.population[ev.World]
		if pop[ev.Archetype]--; pop[ev.Archetype] <= 0 {
			delete(pop, ev.Archetype)
		}
	})
	event.Subscribe(s.bus, func(ev event.ProbeContact) {
		s.log.Debug("probe contact",
			zap.String("world", string(ev.World)),
			zap.Uint64("entity", uint64(ev.EntityID)),
			zap.Int("contacts", ev.Contacts),
			zap.Float64("x", ev.At.X),
			zap.Float64("y", ev.At.Y),
			zap.Float64("z", ev.At.Z))
	})
}

// Population returns live bodies per archetype in world as of the last
// dispatched events, one tick behind the dense store. Tick goroutine only.
func (s *Simulation) Population(world string) map[string]int {
	out := make(map[string]int, len(s.population[physics.WorldID(world)]))
	for k, v := range s.population[physics.WorldID(world)] {
		out[k] = v
	}
	return out
}

func (s *Simulation) World(name string) *World {
	return s.byName[physics.WorldID(name)]
}

func (s *Simulation) Worlds() []*World { return s.worlds }

// Stats returns counters for every world in configuration order.
func (s *Simulation) Stats() []WorldStats {
	out := make([]WorldStats, 0, len(s.worlds))
	for _, w := range s.worlds {
		out = append(out, w.Stats())
	}
	return out
}

// Shutdown unloads every world this simulation created. Loaders must be
// stopped first.
func (s *Simulation) Shutdown() {
	for _, w := range s.worlds {
		s.registry.Remove(w.name)
	}
}
