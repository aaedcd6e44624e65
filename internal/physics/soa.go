package physics

import (
	"fmt"
	"math"
)

const (
	defaultCapacity = 1024

	// MaxSlots bounds the dense region. Slots are stored as int32 in grid cells.
	MaxSlots = math.MaxInt32
)

// EntityData is structure-of-arrays storage for the hot physics fields of
// every tracked entity. Each field is its own contiguous slice so a scan over
// one field walks memory linearly. All slices share one capacity and are
// always grown together, so slot s addresses the same entity in every field.
type EntityData struct {
	capacity int
	size     int
	limit    int // slot ceiling, MaxSlots outside tests

	posX, posY, posZ []float64
	velX, velY, velZ []float64
	halfWidth        []float64
	height           []float64
}

// NewEntityData allocates storage for capacity slots (default 1024 when <= 0).
func NewEntityData(capacity int) *EntityData {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	d := &EntityData{limit: MaxSlots}
	d.allocate(capacity)
	return d
}

func (d *EntityData) Capacity() int { return d.capacity }
func (d *EntityData) Len() int      { return d.size }

// SetLen records how many leading slots are live. Owned by SlotMap.
func (d *EntityData) SetLen(n int) { d.size = n }

// Freed reports whether Free has released the backing storage.
func (d *EntityData) Freed() bool { return d.posX == nil }

// EnsureCapacity grows every field to hold at least required slots, doubling
// or jumping straight to required when doubling is not enough. Existing slot
// contents are preserved and slot indices stay valid.
func (d *EntityData) EnsureCapacity(required int) error {
	if required <= d.capacity {
		return nil
	}
	if required > d.limit {
		return fmt.Errorf("ensure capacity %d: %w", required, ErrCapacityExceeded)
	}
	newCap := d.capacity * 2
	if newCap < required {
		newCap = required
	}
	if newCap > d.limit {
		newCap = d.limit
	}
	d.grow(newCap)
	return nil
}

func (d *EntityData) SetPosition(slot int, x, y, z float64) {
	d.posX[slot] = x
	d.posY[slot] = y
	d.posZ[slot] = z
}

func (d *EntityData) SetVelocity(slot int, vx, vy, vz float64) {
	d.velX[slot] = vx
	d.velY[slot] = vy
	d.velZ[slot] = vz
}

func (d *EntityData) SetDimensions(slot int, halfWidth, height float64) {
	d.halfWidth[slot] = halfWidth
	d.height[slot] = height
}

func (d *EntityData) PosX(slot int) float64 { return d.posX[slot] }
func (d *EntityData) PosY(slot int) float64 { return d.posY[slot] }
func (d *EntityData) PosZ(slot int) float64 { return d.posZ[slot] }

func (d *EntityData) Position(slot int) Vec3 {
	return Vec3{X: d.posX[slot], Y: d.posY[slot], Z: d.posZ[slot]}
}

func (d *EntityData) Velocity(slot int) Vec3 {
	return Vec3{X: d.velX[slot], Y: d.velY[slot], Z: d.velZ[slot]}
}

func (d *EntityData) HalfWidth(slot int) float64 { return d.halfWidth[slot] }
func (d *EntityData) Height(slot int) float64    { return d.height[slot] }

// Bounds returns the stored AABB of slot.
func (d *EntityData) Bounds(slot int) Box {
	x, y, z := d.posX[slot], d.posY[slot], d.posZ[slot]
	hw := d.halfWidth[slot]
	return Box{
		MinX: x - hw, MinY: y, MinZ: z - hw,
		MaxX: x + hw, MaxY: y + d.height[slot], MaxZ: z + hw,
	}
}

// OverlapsBox tests the stored AABB of slot against b without touching the
// entity. Axes are rejected one at a time, X first, so most misses read only
// two fields.
func (d *EntityData) OverlapsBox(slot int, b Box) bool {
	hw := d.halfWidth[slot]

	x := d.posX[slot]
	if x+hw <= b.MinX || x-hw >= b.MaxX {
		return false
	}

	y := d.posY[slot]
	if y+d.height[slot] <= b.MinY || y >= b.MaxY {
		return false
	}

	z := d.posZ[slot]
	return z+hw > b.MinZ && z-hw < b.MaxZ
}

// CopySlot copies every field of src into dst.
func (d *EntityData) CopySlot(src, dst int) {
	d.posX[dst] = d.posX[src]
	d.posY[dst] = d.posY[src]
	d.posZ[dst] = d.posZ[src]

	d.velX[dst] = d.velX[src]
	d.velY[dst] = d.velY[src]
	d.velZ[dst] = d.velZ[src]

	d.halfWidth[dst] = d.halfWidth[src]
	d.height[dst] = d.height[src]
}

// Free drops all backing storage. The store is unusable until reconstructed.
func (d *EntityData) Free() {
	d.posX, d.posY, d.posZ = nil, nil, nil
	d.velX, d.velY, d.velZ = nil, nil, nil
	d.halfWidth, d.height = nil, nil
	d.size = 0
	d.capacity = 0
}

func (d *EntityData) allocate(n int) {
	d.posX = make([]float64, n)
	d.posY = make([]float64, n)
	d.posZ = make([]float64, n)
	d.velX = make([]float64, n)
	d.velY = make([]float64, n)
	d.velZ = make([]float64, n)
	d.halfWidth = make([]float64, n)
	d.height = make([]float64, n)
	d.capacity = n
}

func (d *EntityData) grow(n int) {
	d.posX = growField(d.posX, n)
	d.posY = growField(d.posY, n)
	d.posZ = growField(d.posZ, n)
	d.velX = growField(d.velX, n)
	d.velY = growField(d.velY, n)
	d.velZ = growField(d.velZ, n)
	d.halfWidth = growField(d.halfWidth, n)
	d.height = growField(d.height, n)
	d.capacity = n
}

func growField(old []float64, n int) []float64 {
	buf := make([]float64, n)
	copy(buf, old)
	return buf
}
