package event

import (
	"github.com/flatcollision/flatcollision/internal/core/ecs"
	"github.com/flatcollision/flatcollision/internal/physics"
)

// BodySpawned is emitted when a loader-delivered body joins the tick loop.
type BodySpawned struct {
	World     physics.WorldID
	EntityID  ecs.EntityID
	Archetype string
}

// BodyDespawned is emitted when the cleanup phase destroys a body.
type BodyDespawned struct {
	World     physics.WorldID
	EntityID  ecs.EntityID
	Archetype string
}

// ProbeContact is emitted when a probe finds collision shapes overlapping
// the probing body itself.
type ProbeContact struct {
	World    physics.WorldID
	EntityID ecs.EntityID
	Contacts int
	At       physics.Vec3 // center of the probing body's box
}
