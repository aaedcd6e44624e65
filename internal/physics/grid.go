package physics

import "math"

// DefaultCellSize is chunk aligned.
const DefaultCellSize = 16.0

// Grid is a uniform-cell broad-phase index. Each non-oversized slot lives in
// exactly one cell: the one containing its most recently synced center.
// Only occupied cells are kept, so memory tracks population, not world size.
type Grid struct {
	cellSize float64
	cells    map[int64][]int32 // packed cell key → unordered slots

	inserts uint64
	removes uint64
}

// GridStats is a debugging snapshot.
type GridStats struct {
	Cells   int
	Slots   int
	Inserts uint64 // cumulative cell insertions
	Removes uint64 // cumulative cell removals
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[int64][]int32),
	}
}

func (g *Grid) CellSize() float64 { return g.cellSize }

// Cell coordinates are clamped one short of the int32 limits so a query can
// widen any cell by one on each side without overflowing.
const (
	MinCellCoord = math.MinInt32 + 1
	MaxCellCoord = math.MaxInt32 - 1
)

// CellCoord floors v / cellSize, so -0.5 lands in cell -1. Coordinates
// beyond the cell range saturate at MinCellCoord or MaxCellCoord; NaN maps
// to cell 0.
func (g *Grid) CellCoord(v float64) int32 {
	c := math.Floor(v / g.cellSize)
	switch {
	case c != c:
		return 0
	case c <= MinCellCoord:
		return MinCellCoord
	case c >= MaxCellCoord:
		return MaxCellCoord
	}
	return int32(c)
}

// PackKey packs two cell coordinates into one map key.
func PackKey(cx, cz int32) int64 {
	return int64(cx)<<32 | int64(uint32(cz))
}

func UnpackKey(key int64) (cx, cz int32) {
	return int32(key >> 32), int32(uint32(key))
}

func (g *Grid) key(x, z float64) int64 {
	return PackKey(g.CellCoord(x), g.CellCoord(z))
}

// Insert places slot in the cell containing (x, z) and returns its key.
func (g *Grid) Insert(slot int, x, z float64) int64 {
	k := g.key(x, z)
	g.insertKey(slot, k)
	return k
}

// Remove takes slot out of the cell containing (x, z). Empty cells are dropped.
func (g *Grid) Remove(slot int, x, z float64) {
	g.removeKey(slot, g.key(x, z))
}

// Update moves slot between cells when its position crossed a cell boundary.
// Movement within a cell is free.
func (g *Grid) Update(slot int, oldX, oldZ, newX, newZ float64) int64 {
	oldK := g.key(oldX, oldZ)
	newK := g.key(newX, newZ)
	if oldK == newK {
		return newK
	}
	g.removeKey(slot, oldK)
	g.insertKey(slot, newK)
	return newK
}

// Cell returns the slots of a cell, or nil when it is empty. The slice is
// owned by the grid.
func (g *Grid) Cell(cx, cz int32) []int32 {
	return g.cells[PackKey(cx, cz)]
}

// CollectNeighborSlots appends the slots of the 3x3 neighbourhood around a
// cell. Neighbours past the int32 range are skipped.
func (g *Grid) CollectNeighborSlots(cx, cz int32, out []int32) []int32 {
	return g.collectRange(int64(cx)-1, int64(cz)-1, int64(cx)+1, int64(cz)+1, out)
}

// CollectSlotsInBox appends every slot in the cells covering the horizontal
// box, widened by one cell on each side: an entity centered just outside the
// box can still reach into it.
func (g *Grid) CollectSlotsInBox(minX, minZ, maxX, maxZ float64, out []int32) []int32 {
	return g.collectRange(
		int64(g.CellCoord(minX))-1, int64(g.CellCoord(minZ))-1,
		int64(g.CellCoord(maxX))+1, int64(g.CellCoord(maxZ))+1,
		out)
}

// collectRange iterates in int64 so the loop bounds cannot wrap.
func (g *Grid) collectRange(cMinX, cMinZ, cMaxX, cMaxZ int64, out []int32) []int32 {
	cMinX, cMaxX = max(cMinX, math.MinInt32), min(cMaxX, math.MaxInt32)
	cMinZ, cMaxZ = max(cMinZ, math.MinInt32), min(cMaxZ, math.MaxInt32)
	for cx := cMinX; cx <= cMaxX; cx++ {
		for cz := cMinZ; cz <= cMaxZ; cz++ {
			if cell, ok := g.cells[PackKey(int32(cx), int32(cz))]; ok {
				out = append(out, cell...)
			}
		}
	}
	return out
}

func (g *Grid) CellCount() int { return len(g.cells) }

func (g *Grid) Stats() GridStats {
	s := GridStats{Cells: len(g.cells), Inserts: g.inserts, Removes: g.removes}
	for _, cell := range g.cells {
		s.Slots += len(cell)
	}
	return s
}

func (g *Grid) Clear() {
	clear(g.cells)
}

func (g *Grid) insertKey(slot int, k int64) {
	g.cells[k] = append(g.cells[k], int32(slot))
	g.inserts++
}

func (g *Grid) removeKey(slot int, k int64) {
	cell, ok := g.cells[k]
	if !ok {
		return
	}
	s := int32(slot)
	for i, v := range cell {
		if v != s {
			continue
		}
		last := len(cell) - 1
		cell[i] = cell[last]
		cell = cell[:last]
		g.removes++
		break
	}
	if len(cell) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = cell
}
