package physics

import "testing"

type testEntity struct {
	id     EntityID
	pos    Vec3
	vel    Vec3
	width  float64
	height float64
	dead   bool
	solid  bool
}

func newTestEntity(id EntityID, x, y, z, width, height float64) *testEntity {
	return &testEntity{id: id, pos: Vec3{X: x, Y: y, Z: z}, width: width, height: height, solid: true}
}

func (e *testEntity) ID() EntityID                 { return e.id }
func (e *testEntity) Position() Vec3               { return e.pos }
func (e *testEntity) Velocity() Vec3               { return e.vel }
func (e *testEntity) Width() float64               { return e.width }
func (e *testEntity) Height() float64              { return e.height }
func (e *testEntity) Alive() bool                  { return !e.dead }
func (e *testEntity) CollidableWith(_ Entity) bool { return e.solid }

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return NewEngine("test", opts, nil)
}

// gridOccurrences counts how many cells hold slot.
func gridOccurrences(g *Grid, slot int) int {
	n := 0
	for _, cell := range g.cells {
		for _, s := range cell {
			if int(s) == slot {
				n++
			}
		}
	}
	return n
}

// checkInvariants verifies dense packing, mutual inverse mapping and the
// exactly-one-container rule for every active slot.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()

	n := e.slots.ActiveCount()
	if e.data.Len() != n {
		t.Fatalf("data len %d != active count %d", e.data.Len(), n)
	}
	if len(e.slots.entityToSlot) != n {
		t.Fatalf("entity map has %d entries, active count %d", len(e.slots.entityToSlot), n)
	}

	for slot := 0; slot < n; slot++ {
		ent := e.slots.Entity(slot)
		if ent == nil {
			t.Fatalf("slot %d has no entity", slot)
		}
		if got := e.slots.Slot(ent.ID()); got != slot {
			t.Fatalf("entity %d maps to slot %d, slot table says %d", ent.ID(), got, slot)
		}

		inGrid := gridOccurrences(e.grid, slot)
		inOversized := e.oversized.Contains(slot)
		if e.oversized.IsOversized(2 * e.data.HalfWidth(slot)) {
			if inGrid != 0 || !inOversized {
				t.Fatalf("oversized slot %d: grid=%d oversized=%v", slot, inGrid, inOversized)
			}
			continue
		}
		if inGrid != 1 || inOversized {
			t.Fatalf("slot %d: grid=%d oversized=%v", slot, inGrid, inOversized)
		}
		if !e.InGrid(slot) {
			t.Fatalf("slot %d is not in the cell of its stored center", slot)
		}
	}

	if gs := e.grid.Stats(); gs.Slots+e.oversized.Len() != n {
		t.Fatalf("grid slots %d + oversized %d != active %d", gs.Slots, e.oversized.Len(), n)
	}
}
