package sim

import (
	"time"

	"github.com/flatcollision/flatcollision/internal/core/event"
	coresys "github.com/flatcollision/flatcollision/internal/core/system"
	"github.com/flatcollision/flatcollision/internal/physics"
)

// EventDispatchSystem delivers last tick's events. Phase 0, registered
// before InputSystem.
type EventDispatchSystem struct{ s *Simulation }

func (sys *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (sys *EventDispatchSystem) Update(_ time.Duration) error {
	sys.s.bus.SwapBuffers()
	sys.s.bus.DispatchAll()
	return nil
}

// InputSystem moves loader-delivered bodies from the inbox into the dense
// store. Phase 0.
type InputSystem struct{ s *Simulation }

func (sys *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (sys *InputSystem) Update(_ time.Duration) error {
	for _, w := range sys.s.worlds {
		w.drainInbox()
	}
	return nil
}

// PhysicsSystem starts the engine tick for every world: staging drain,
// resync and grid maintenance. Phase 1.
type PhysicsSystem struct{ s *Simulation }

func (sys *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (sys *PhysicsSystem) Update(_ time.Duration) error {
	return sys.s.registry.TickAll()
}

// QuerySystem issues broad-phase probes around randomly chosen bodies,
// filtered by the scripted predicate. Phase 2.
type QuerySystem struct{ s *Simulation }

func (sys *QuerySystem) Phase() coresys.Phase { return coresys.PhaseQuery }

func (sys *QuerySystem) Update(_ time.Duration) error {
	s := sys.s
	for _, w := range s.worlds {
		if !w.engine.IsActive() || w.bodies.Len() == 0 {
			continue
		}
		label := string(w.name)
		for i := 0; i < s.opts.ProbesPerTick; i++ {
			_, b := w.bodies.At(w.rng.Intn(w.bodies.Len()))
			if !b.alive {
				continue
			}
			own := physics.EntityBox(b)
			box := own.Expand(s.opts.ProbeRadius)

			hits := w.engine.EntitiesInBox(b, box, s.probe)
			shapes := w.engine.CollisionShapes(b, box)
			contacts := 0
			for _, sh := range shapes {
				if sh.Overlaps(own) {
					contacts++
				}
			}

			w.probes.Add(1)
			w.hits.Add(uint64(len(hits)))
			w.shapes.Add(uint64(len(shapes)))
			w.contacts.Add(uint64(contacts))
			if contacts > 0 {
				event.Emit(s.bus, event.ProbeContact{World: w.name, EntityID: b.id, Contacts: contacts, At: own.Center()})
			}
			s.metrics.probes.WithLabelValues(label).Inc()
			s.metrics.hits.WithLabelValues(label).Add(float64(len(hits)))
			s.metrics.contacts.WithLabelValues(label).Add(float64(contacts))
		}
	}
	return nil
}

// MovementSystem integrates velocity, bounces bodies off the world bounds
// and rolls random despawns. Phase 3.
type MovementSystem struct{ s *Simulation }

func (sys *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (sys *MovementSystem) Update(dt time.Duration) error {
	s := sys.s
	secs := dt.Seconds()
	for _, w := range s.worlds {
		for i := 0; i < w.bodies.Len(); i++ {
			_, b := w.bodies.At(i)
			if !b.alive {
				continue
			}
			b.Step(secs, s.opts.Bounds)
			if s.opts.DespawnChance > 0 && w.rng.Float64() < s.opts.DespawnChance {
				w.Despawn(b)
			}
		}
	}
	return nil
}

// CleanupSystem flushes each world's destroy queue; the destroy hook stages
// the engine removal. Phase 4.
type CleanupSystem struct{ s *Simulation }

func (sys *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (sys *CleanupSystem) Update(_ time.Duration) error {
	for _, w := range sys.s.worlds {
		n := w.ecs.FlushDestroyQueue()
		if n == 0 {
			continue
		}
		w.despawned.Add(uint64(n))
		sys.s.metrics.despawned.WithLabelValues(string(w.name)).Add(float64(n))
	}
	return nil
}
