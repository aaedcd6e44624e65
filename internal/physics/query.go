package physics

const initialScratch = 256

// Query combines grid and oversized candidates, rejects them with the SoA
// AABB test, and only then resolves survivors to entities for host filters.
type Query struct {
	data      *EntityData
	slots     *SlotMap
	grid      *Grid
	oversized *OversizedList

	scratch []int32 // reused between calls
}

func NewQuery(data *EntityData, slots *SlotMap, grid *Grid, oversized *OversizedList) *Query {
	return &Query{
		data:      data,
		slots:     slots,
		grid:      grid,
		oversized: oversized,
		scratch:   make([]int32, 0, initialScratch),
	}
}

// EntitiesInBox returns the tracked entities whose stored AABB overlaps box,
// minus except, that pass pred. A nil pred accepts everything.
func (q *Query) EntitiesInBox(except Entity, box Box, pred func(Entity) bool) []Entity {
	var result []Entity
	q.collectCandidates(box)

	exceptID, hasExcept := entityKey(except)
	active := q.slots.ActiveCount()

	for _, s := range q.scratch {
		slot := int(s)
		if slot < 0 || slot >= active {
			continue
		}
		if !q.data.OverlapsBox(slot, box) {
			continue
		}

		e := q.slots.Entity(slot)
		if e == nil || (hasExcept && e.ID() == exceptID) {
			continue
		}
		if pred != nil && !pred(e) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// CollisionShapes returns the live bounding box of every tracked entity that
// overlaps box and that the host considers collidable with querier.
func (q *Query) CollisionShapes(querier Entity, box Box) []Box {
	var shapes []Box
	q.collectCandidates(box)

	querierID, hasQuerier := entityKey(querier)
	active := q.slots.ActiveCount()

	for _, s := range q.scratch {
		slot := int(s)
		if slot < 0 || slot >= active {
			continue
		}
		if !q.data.OverlapsBox(slot, box) {
			continue
		}

		e := q.slots.Entity(slot)
		if e == nil || (hasQuerier && e.ID() == querierID) {
			continue
		}
		if !e.CollidableWith(querier) {
			continue
		}
		shapes = append(shapes, EntityBox(e))
	}
	return shapes
}

func (q *Query) collectCandidates(box Box) {
	q.scratch = q.scratch[:0]
	q.scratch = q.grid.CollectSlotsInBox(box.MinX, box.MinZ, box.MaxX, box.MaxZ, q.scratch)
	q.scratch = q.oversized.CollectAll(q.scratch)
}

func entityKey(e Entity) (EntityID, bool) {
	if e == nil {
		return 0, false
	}
	return e.ID(), true
}
