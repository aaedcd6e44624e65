package physics

// OversizedFraction of the cell size is the widest entity the grid accepts.
const OversizedFraction = 0.75

// OversizedList holds slots of entities too wide for single-cell membership.
// Every query scans it in full; this assumes oversized entities stay rare.
type OversizedList struct {
	threshold float64
	slots     []int32
}

// NewOversizedList returns a list for a grid with the given cell size.
func NewOversizedList(cellSize float64) *OversizedList {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &OversizedList{threshold: cellSize * OversizedFraction}
}

func (l *OversizedList) Threshold() float64 { return l.threshold }

// IsOversized reports whether an entity of the given full width bypasses the grid.
func (l *OversizedList) IsOversized(width float64) bool {
	return width > l.threshold
}

// Add inserts slot unless already present.
func (l *OversizedList) Add(slot int) {
	if l.Contains(slot) {
		return
	}
	l.slots = append(l.slots, int32(slot))
}

func (l *OversizedList) Remove(slot int) {
	s := int32(slot)
	for i, v := range l.slots {
		if v == s {
			last := len(l.slots) - 1
			l.slots[i] = l.slots[last]
			l.slots = l.slots[:last]
			return
		}
	}
}

func (l *OversizedList) Contains(slot int) bool {
	s := int32(slot)
	for _, v := range l.slots {
		if v == s {
			return true
		}
	}
	return false
}

// CollectAll appends every oversized slot to out.
func (l *OversizedList) CollectAll(out []int32) []int32 {
	return append(out, l.slots...)
}

func (l *OversizedList) Len() int { return len(l.slots) }

func (l *OversizedList) Clear() { l.slots = l.slots[:0] }
