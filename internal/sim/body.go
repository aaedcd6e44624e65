package sim

import (
	"github.com/flatcollision/flatcollision/internal/core/ecs"
	"github.com/flatcollision/flatcollision/internal/physics"
)

// Body is a simulated entity. Position is the bottom center of its box.
//
// A loader goroutine fills a Body before handing it to the engine and the
// tick goroutine; from then on only the tick goroutine touches it.
type Body struct {
	id        ecs.EntityID
	archetype string
	pos       physics.Vec3
	vel       physics.Vec3
	width     float64
	height    float64
	solid     bool
	alive     bool
}

// NewBody returns a live body.
func NewBody(id ecs.EntityID, archetype string, pos, vel physics.Vec3, width, height float64, solid bool) *Body {
	return &Body{
		id:        id,
		archetype: archetype,
		pos:       pos,
		vel:       vel,
		width:     width,
		height:    height,
		solid:     solid,
		alive:     true,
	}
}

func (b *Body) ID() physics.EntityID   { return physics.EntityID(b.id) }
func (b *Body) EntityID() ecs.EntityID { return b.id }
func (b *Body) Archetype() string      { return b.archetype }
func (b *Body) Position() physics.Vec3 { return b.pos }
func (b *Body) Velocity() physics.Vec3 { return b.vel }
func (b *Body) Width() float64         { return b.width }
func (b *Body) Height() float64        { return b.height }
func (b *Body) Alive() bool            { return b.alive }
func (b *Body) Solid() bool            { return b.solid }

// CollidableWith reports whether b blocks querier. Non-solid bodies never
// block and never get blocked.
func (b *Body) CollidableWith(querier physics.Entity) bool {
	if !b.solid {
		return false
	}
	if q, ok := querier.(*Body); ok && !q.solid {
		return false
	}
	return true
}

// Kill marks the body dead. The engine drops it from the index on a later
// tick.
func (b *Body) Kill() { b.alive = false }

// Step advances the body by dt seconds and reflects it off the square
// [-bound, bound] on X and Z.
func (b *Body) Step(dt, bound float64) {
	b.pos.X += b.vel.X * dt
	b.pos.Y += b.vel.Y * dt
	b.pos.Z += b.vel.Z * dt
	if bound <= 0 {
		return
	}
	b.pos.X, b.vel.X = reflect(b.pos.X, b.vel.X, bound)
	b.pos.Z, b.vel.Z = reflect(b.pos.Z, b.vel.Z, bound)
}

func reflect(p, v, bound float64) (float64, float64) {
	switch {
	case p > bound:
		return 2*bound - p, -v
	case p < -bound:
		return -2*bound - p, -v
	}
	return p, v
}

// SetPosition and SetWidth are for hosts that teleport or resize bodies
// between ticks.
func (b *Body) SetPosition(p physics.Vec3) { b.pos = p }
func (b *Body) SetWidth(w float64)         { b.width = w }
