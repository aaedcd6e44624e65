// Package physics is the per-world broad-phase index for entity spatial
// queries. Hot physics fields live in structure-of-arrays storage indexed by
// dense slot; a uniform grid plus an oversized fallback list narrows a query
// box to a small candidate set before any entity is dereferenced.
//
// Everything except Engine.TrackEntity / Engine.UntrackEntity must be called
// from the tick goroutine. Nothing here takes a lock on the hot path.
package physics

import "errors"

var (
	ErrAlreadyTracked   = errors.New("entity already tracked")
	ErrNotTracked       = errors.New("entity not tracked")
	ErrCapacityExceeded = errors.New("slot capacity exceeded")
)

// EntityID is the host's stable identity for an entity. Used as map key only.
type EntityID uint64

// Vec3 is a world-space vector.
type Vec3 struct {
	X, Y, Z float64
}

// Box is an axis-aligned bounding box.
type Box struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// NewBox returns the box spanning the two corners in any order.
func NewBox(x1, y1, z1, x2, y2, z2 float64) Box {
	return Box{
		MinX: min(x1, x2), MinY: min(y1, y2), MinZ: min(z1, z2),
		MaxX: max(x1, x2), MaxY: max(y1, y2), MaxZ: max(z1, z2),
	}
}

// Overlaps reports whether b and o share volume. Touching faces do not count.
func (b Box) Overlaps(o Box) bool {
	return b.MaxX > o.MinX && b.MinX < o.MaxX &&
		b.MaxY > o.MinY && b.MinY < o.MaxY &&
		b.MaxZ > o.MinZ && b.MinZ < o.MaxZ
}

// Expand grows the box by d on every side.
func (b Box) Expand(d float64) Box {
	return Box{
		MinX: b.MinX - d, MinY: b.MinY - d, MinZ: b.MinZ - d,
		MaxX: b.MaxX + d, MaxY: b.MaxY + d, MaxZ: b.MaxZ + d,
	}
}

// Center is the midpoint of the box on every axis.
func (b Box) Center() Vec3 {
	return Vec3{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
		Z: (b.MinZ + b.MaxZ) / 2,
	}
}

// Entity is the read-only view the engine needs of a host entity. The host
// owns the object; the engine only mirrors its fields into SoA slots.
type Entity interface {
	ID() EntityID
	Position() Vec3
	Velocity() Vec3
	Width() float64
	Height() float64
	Alive() bool
	// CollidableWith is the host rule for solid entity-vs-entity contact.
	// querier may be nil.
	CollidableWith(querier Entity) bool
}

// EntityBox derives the AABB of e from its live fields. Position is the
// bottom center of the box.
func EntityBox(e Entity) Box {
	p := e.Position()
	hw := e.Width() / 2
	return Box{
		MinX: p.X - hw, MinY: p.Y, MinZ: p.Z - hw,
		MaxX: p.X + hw, MaxY: p.Y + e.Height(), MaxZ: p.Z + hw,
	}
}
