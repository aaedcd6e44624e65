package physics

import (
	"errors"
	"math/rand"
	"testing"
)

func TestSlotMapAllocate(t *testing.T) {
	m := NewSlotMap(NewEntityData(2))

	a := newTestEntity(10, 1, 2, 3, 0.6, 1.8)
	slot, err := m.Allocate(a)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if slot != 0 {
		t.Errorf("expected slot 0, got %d", slot)
	}
	if m.data.Position(0) != a.pos {
		t.Errorf("fields not written on allocate")
	}
	if m.data.HalfWidth(0) != 0.3 {
		t.Errorf("expected half-width 0.3, got %v", m.data.HalfWidth(0))
	}

	if _, err := m.Allocate(a); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("expected ErrAlreadyTracked, got %v", err)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("duplicate allocate changed active count to %d", m.ActiveCount())
	}
}

func TestSlotMapGrowsPastCapacity(t *testing.T) {
	m := NewSlotMap(NewEntityData(2))
	for i := 0; i < 50; i++ {
		if _, err := m.Allocate(newTestEntity(EntityID(i), float64(i), 0, 0, 1, 1)); err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
	}
	for i := 0; i < 50; i++ {
		if m.Slot(EntityID(i)) != i {
			t.Fatalf("entity %d at slot %d", i, m.Slot(EntityID(i)))
		}
		if m.data.PosX(i) != float64(i) {
			t.Fatalf("slot %d lost x after growth", i)
		}
	}
}

func TestSlotMapFreeReportsMovedEntity(t *testing.T) {
	m := NewSlotMap(NewEntityData(4))
	a := newTestEntity(1, 1, 0, 0, 1, 1)
	b := newTestEntity(2, 2, 0, 0, 1, 1)
	c := newTestEntity(3, 3, 0, 0, 1, 1)
	for _, e := range []*testEntity{a, b, c} {
		if _, err := m.Allocate(e); err != nil {
			t.Fatal(err)
		}
	}

	res, err := m.Free(a)
	if err != nil {
		t.Fatalf("Free: %v", err)
	}
	if res.Slot != 0 || res.MovedFrom != 2 {
		t.Errorf("expected slot 0 filled from 2, got %+v", res)
	}
	if res.Moved != c {
		t.Errorf("expected entity 3 to move, got %v", res.Moved)
	}
	if m.Slot(3) != 0 || m.Entity(0) != c {
		t.Errorf("moved entity not re-pointed")
	}
	if m.data.PosX(0) != 3 {
		t.Errorf("moved record not copied, x=%v", m.data.PosX(0))
	}
	if m.Entity(2) != nil {
		t.Errorf("slot 2 should be outside the active region")
	}
	if m.IsTracked(1) {
		t.Errorf("freed entity still tracked")
	}
}

func TestSlotMapFreeLastSlot(t *testing.T) {
	m := NewSlotMap(NewEntityData(4))
	a := newTestEntity(1, 0, 0, 0, 1, 1)
	b := newTestEntity(2, 0, 0, 0, 1, 1)
	m.Allocate(a)
	m.Allocate(b)

	res, err := m.Free(b)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved != nil || res.Slot != 1 || res.MovedFrom != -1 {
		t.Errorf("freeing last slot should move nothing, got %+v", res)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("expected 1 active, got %d", m.ActiveCount())
	}
}

func TestSlotMapFreeUntracked(t *testing.T) {
	m := NewSlotMap(NewEntityData(4))
	if _, err := m.Free(newTestEntity(9, 0, 0, 0, 1, 1)); !errors.Is(err, ErrNotTracked) {
		t.Errorf("expected ErrNotTracked, got %v", err)
	}
}

// TestSlotMapDensePacking runs a random allocate/free sequence and checks
// that [0, ActiveCount) stays gapless with both directions inverse.
func TestSlotMapDensePacking(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := NewSlotMap(NewEntityData(8))
	live := map[EntityID]*testEntity{}
	nextID := EntityID(1)

	for step := 0; step < 2000; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			e := newTestEntity(nextID, rng.Float64()*100, 0, rng.Float64()*100, 1, 1)
			nextID++
			if _, err := m.Allocate(e); err != nil {
				t.Fatal(err)
			}
			live[e.id] = e
		} else {
			for id, e := range live {
				if _, err := m.Free(e); err != nil {
					t.Fatal(err)
				}
				delete(live, id)
				break
			}
		}

		if m.ActiveCount() != len(live) {
			t.Fatalf("step %d: active %d, live %d", step, m.ActiveCount(), len(live))
		}
		for slot := 0; slot < m.ActiveCount(); slot++ {
			e := m.Entity(slot)
			if e == nil {
				t.Fatalf("step %d: hole at slot %d", step, slot)
			}
			if m.Slot(e.ID()) != slot {
				t.Fatalf("step %d: mapping not inverse at slot %d", step, slot)
			}
			if m.data.PosX(slot) != e.Position().X {
				t.Fatalf("step %d: slot %d record does not mirror entity %d", step, slot, e.ID())
			}
		}
	}
}

func TestSlotMapSyncAllSkipsDead(t *testing.T) {
	m := NewSlotMap(NewEntityData(4))
	a := newTestEntity(1, 0, 0, 0, 1, 1)
	b := newTestEntity(2, 0, 0, 0, 1, 1)
	m.Allocate(a)
	m.Allocate(b)

	a.pos.X = 5
	b.pos.X = 7
	b.dead = true
	m.SyncAll()

	if m.data.PosX(0) != 5 {
		t.Errorf("live entity not synced")
	}
	if m.data.PosX(1) != 0 {
		t.Errorf("dead entity synced")
	}
}

func TestSlotMapClear(t *testing.T) {
	m := NewSlotMap(NewEntityData(4))
	m.Allocate(newTestEntity(1, 0, 0, 0, 1, 1))
	m.Allocate(newTestEntity(2, 0, 0, 0, 1, 1))
	m.Clear()

	if m.ActiveCount() != 0 || m.data.Len() != 0 {
		t.Errorf("expected empty map after Clear")
	}
	if m.IsTracked(1) || m.Entity(0) != nil {
		t.Errorf("entity survived Clear")
	}
}
