package physics

import "fmt"

// SlotMap is the bidirectional mapping between entity identity and dense
// slot index. The active region [0, ActiveCount) never has holes: Free moves
// the last active entity into the vacated slot.
//
// SlotMap mirrors entity fields into EntityData but never touches spatial
// containers. Callers that index slots elsewhere use FreeResult to repair
// their back-references.
type SlotMap struct {
	data         *EntityData
	entityToSlot map[EntityID]int
	slotToEntity []Entity
	activeCount  int
}

// FreeResult describes a swap-and-pop. Moved is nil when the freed slot was
// the last active slot and nothing had to move.
type FreeResult struct {
	Slot      int    // slot that was vacated and now holds Moved
	Moved     Entity // entity relocated into Slot
	MovedFrom int    // Moved's previous slot (the old last active slot)
}

func NewSlotMap(data *EntityData) *SlotMap {
	return &SlotMap{
		data:         data,
		entityToSlot: make(map[EntityID]int, data.Capacity()),
		slotToEntity: make([]Entity, data.Capacity()),
	}
}

func (m *SlotMap) ActiveCount() int { return m.activeCount }

// Slot returns the slot of id, or -1 when id is not tracked.
func (m *SlotMap) Slot(id EntityID) int {
	if slot, ok := m.entityToSlot[id]; ok {
		return slot
	}
	return -1
}

// Entity returns the entity at slot, or nil outside the active region.
func (m *SlotMap) Entity(slot int) Entity {
	if slot < 0 || slot >= m.activeCount {
		return nil
	}
	return m.slotToEntity[slot]
}

func (m *SlotMap) IsTracked(id EntityID) bool {
	_, ok := m.entityToSlot[id]
	return ok
}

// Allocate appends e at slot ActiveCount and writes its current fields.
func (m *SlotMap) Allocate(e Entity) (int, error) {
	id := e.ID()
	if _, ok := m.entityToSlot[id]; ok {
		return -1, ErrAlreadyTracked
	}

	slot := m.activeCount
	if err := m.ensureSlotCapacity(slot + 1); err != nil {
		return -1, fmt.Errorf("allocate entity %d: %w", id, err)
	}

	m.entityToSlot[id] = slot
	m.slotToEntity[slot] = e
	m.activeCount++

	m.SyncEntityToSlot(e, slot)
	m.data.SetLen(m.activeCount)
	return slot, nil
}

// Free removes e by swap-and-pop. The last active entity's record is copied
// into the vacated slot and its mapping re-pointed there.
func (m *SlotMap) Free(e Entity) (FreeResult, error) {
	id := e.ID()
	slot, ok := m.entityToSlot[id]
	if !ok {
		return FreeResult{Slot: -1, MovedFrom: -1}, ErrNotTracked
	}
	delete(m.entityToSlot, id)

	res := FreeResult{Slot: slot, MovedFrom: -1}
	last := m.activeCount - 1
	if slot != last {
		moved := m.slotToEntity[last]
		m.slotToEntity[slot] = moved
		m.entityToSlot[moved.ID()] = slot
		m.data.CopySlot(last, slot)

		res.Moved = moved
		res.MovedFrom = last
	}

	m.slotToEntity[last] = nil
	m.activeCount--
	m.data.SetLen(m.activeCount)
	return res, nil
}

// SyncEntityToSlot copies e's live fields into slot.
func (m *SlotMap) SyncEntityToSlot(e Entity, slot int) {
	p := e.Position()
	v := e.Velocity()
	m.data.SetPosition(slot, p.X, p.Y, p.Z)
	m.data.SetVelocity(slot, v.X, v.Y, v.Z)
	m.data.SetDimensions(slot, e.Width()/2, e.Height())
}

// SyncAll re-mirrors every live tracked entity.
func (m *SlotMap) SyncAll() {
	for i := 0; i < m.activeCount; i++ {
		if e := m.slotToEntity[i]; e != nil && e.Alive() {
			m.SyncEntityToSlot(e, i)
		}
	}
}

// Clear forgets every entity. Backing storage is kept.
func (m *SlotMap) Clear() {
	clear(m.entityToSlot)
	clear(m.slotToEntity[:m.activeCount])
	m.activeCount = 0
	m.data.SetLen(0)
}

func (m *SlotMap) ensureSlotCapacity(required int) error {
	if err := m.data.EnsureCapacity(required); err != nil {
		return err
	}
	if required > len(m.slotToEntity) {
		grown := make([]Entity, m.data.Capacity())
		copy(grown, m.slotToEntity[:m.activeCount])
		m.slotToEntity = grown
	}
	return nil
}
