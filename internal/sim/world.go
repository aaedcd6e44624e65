package sim

import (
	"math/rand"
	"sync/atomic"

	"github.com/flatcollision/flatcollision/internal/core/ecs"
	"github.com/flatcollision/flatcollision/internal/core/event"
	"github.com/flatcollision/flatcollision/internal/physics"
)

// World is the host-side state of one simulated world: its engine, entity
// pool, dense body store and the inbox loaders deliver new bodies through.
type World struct {
	name   physics.WorldID
	engine *physics.Engine
	ecs    *ecs.World
	bodies *ecs.DenseStore[*Body]
	inbox  chan *Body
	bus    *event.Bus
	rng    *rand.Rand // tick goroutine only

	spawned   atomic.Uint64
	despawned atomic.Uint64
	probes    atomic.Uint64
	hits      atomic.Uint64
	shapes    atomic.Uint64
	contacts  atomic.Uint64
}

// WorldStats is a point-in-time copy of a world's counters.
type WorldStats struct {
	World     physics.WorldID `json:"world"`
	Bodies    int64           `json:"bodies"`
	Spawned   uint64          `json:"spawned"`
	Despawned uint64          `json:"despawned"`
	Probes    uint64          `json:"probes"`
	Hits      uint64          `json:"hits"`
	Shapes    uint64          `json:"shapes"`
	Contacts  uint64          `json:"contacts"`
}

func newWorld(name physics.WorldID, engine *physics.Engine, bus *event.Bus, inboxSize int, seed int64) *World {
	w := &World{
		name:   name,
		engine: engine,
		ecs:    ecs.NewWorld(),
		bodies: ecs.NewDenseStore[*Body](1024),
		inbox:  make(chan *Body, inboxSize),
		bus:    bus,
		rng:    rand.New(rand.NewSource(seed)),
	}
	w.ecs.Registry().Register(w.bodies)
	w.ecs.OnDestroy(func(id ecs.EntityID) {
		b, ok := w.bodies.Get(id)
		if !ok {
			return
		}
		w.engine.UntrackEntity(b)
		event.Emit(w.bus, event.BodyDespawned{World: w.name, EntityID: id, Archetype: b.archetype})
	})
	return w
}

func (w *World) Name() physics.WorldID   { return w.name }
func (w *World) Engine() *physics.Engine { return w.engine }
func (w *World) BodyCount() int          { return w.bodies.Len() }

// Body returns the live body with the given ID.
func (w *World) Body(id ecs.EntityID) (*Body, bool) {
	return w.bodies.Get(id)
}

// Spawn mints an ID, registers the body with the engine through the staging
// queue and returns it. Safe from any goroutine; the caller still has to
// deliver the body to the tick goroutine with Deliver or Adopt.
func (w *World) Spawn(archetype string, pos, vel physics.Vec3, width, height float64, solid bool) *Body {
	b := NewBody(w.ecs.CreateEntity(), archetype, pos, vel, width, height, solid)
	w.engine.TrackEntity(b)
	w.spawned.Add(1)
	return b
}

// Adopt puts b into the dense store. Tick goroutine only.
func (w *World) Adopt(b *Body) {
	w.bodies.Set(b.id, b)
	event.Emit(w.bus, event.BodySpawned{World: w.name, EntityID: b.id, Archetype: b.archetype})
}

// drainInbox adopts every body waiting in the inbox without blocking.
func (w *World) drainInbox() int {
	n := 0
	for {
		select {
		case b := <-w.inbox:
			w.Adopt(b)
			n++
		default:
			return n
		}
	}
}

// Despawn kills b and queues it for the cleanup phase.
func (w *World) Despawn(b *Body) {
	b.Kill()
	w.ecs.MarkForDestruction(b.id)
}

// Stats returns the world's counters. Safe from any goroutine. Bodies counts
// minted IDs not yet destroyed, including bodies still in the inbox.
func (w *World) Stats() WorldStats {
	return WorldStats{
		World:     w.name,
		Bodies:    int64(w.ecs.Pool().Live()),
		Spawned:   w.spawned.Load(),
		Despawned: w.despawned.Load(),
		Probes:    w.probes.Load(),
		Hits:      w.hits.Load(),
		Shapes:    w.shapes.Load(),
		Contacts:  w.contacts.Load(),
	}
}
