package physics

import (
	"math"
	"testing"
	"time"
)

func TestGridCellCoord(t *testing.T) {
	g := NewGrid(16)
	tests := []struct {
		v    float64
		want int32
	}{
		{0, 0},
		{15.99, 0},
		{16, 1},
		{-0.5, -1},
		{-16, -1},
		{-16.01, -2},
		{33, 2},
		{math.MaxInt32*16 + 8, MaxCellCoord},
		{-math.MaxInt32*16 - 8, MinCellCoord},
		{1e300, MaxCellCoord},
		{-1e300, MinCellCoord},
		{math.Inf(1), MaxCellCoord},
		{math.Inf(-1), MinCellCoord},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := g.CellCoord(tt.v); got != tt.want {
			t.Errorf("CellCoord(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestPackKeyRoundTrip(t *testing.T) {
	for _, c := range [][2]int32{{0, 0}, {-1, 1}, {1, -1}, {-2147483648, 2147483647}} {
		cx, cz := UnpackKey(PackKey(c[0], c[1]))
		if cx != c[0] || cz != c[1] {
			t.Errorf("pack/unpack (%d,%d) gave (%d,%d)", c[0], c[1], cx, cz)
		}
	}
	if PackKey(1, -1) == PackKey(-1, 1) {
		t.Error("distinct cells packed to the same key")
	}
}

func TestGridInsertRemove(t *testing.T) {
	g := NewGrid(16)
	g.Insert(0, 1, 1)
	g.Insert(1, 2, 2)
	g.Insert(2, -1, 1)

	if g.CellCount() != 2 {
		t.Fatalf("expected 2 cells, got %d", g.CellCount())
	}
	if len(g.Cell(0, 0)) != 2 {
		t.Errorf("expected 2 slots in (0,0), got %v", g.Cell(0, 0))
	}

	g.Remove(2, -1, 1)
	if g.CellCount() != 1 {
		t.Errorf("empty cell not dropped, %d cells", g.CellCount())
	}
	if g.Cell(-1, 0) != nil {
		t.Errorf("cell (-1,0) still present")
	}

	// removing from an empty cell is harmless
	g.Remove(7, 100, 100)
	if g.CellCount() != 1 {
		t.Errorf("remove from empty cell created state")
	}
}

// TestGridUpdateCrossesBoundary: half-width 2 entity at (15,_,15) sits in
// (0,0); moved to (17,_,15) it belongs to (1,0) and nowhere else.
func TestGridUpdateCrossesBoundary(t *testing.T) {
	g := NewGrid(16)
	g.Insert(0, 15, 15)
	if len(g.Cell(0, 0)) != 1 {
		t.Fatalf("expected slot in (0,0)")
	}

	key := g.Update(0, 15, 15, 17, 15)
	if key != PackKey(1, 0) {
		t.Errorf("Update returned wrong key")
	}
	if g.Cell(0, 0) != nil {
		t.Errorf("slot still in (0,0): %v", g.Cell(0, 0))
	}
	if cell := g.Cell(1, 0); len(cell) != 1 || cell[0] != 0 {
		t.Errorf("slot not in (1,0): %v", cell)
	}
}

func TestGridUpdateSameCellIsFree(t *testing.T) {
	g := NewGrid(16)
	g.Insert(0, 5, 5)
	before := g.Stats()

	g.Update(0, 5, 5, 5, 5)
	g.Update(0, 5, 5, 12, 9)

	after := g.Stats()
	if after.Inserts != before.Inserts || after.Removes != before.Removes {
		t.Errorf("same-cell update cost %d inserts, %d removes",
			after.Inserts-before.Inserts, after.Removes-before.Removes)
	}
	if cell := g.Cell(0, 0); len(cell) != 1 || cell[0] != 0 {
		t.Errorf("slot left its cell: %v", cell)
	}
}

func TestGridCollectSlotsInBox(t *testing.T) {
	g := NewGrid(16)
	g.Insert(0, 8, 8)   // (0,0)
	g.Insert(1, 17, 8)  // (1,0), adjacent ring
	g.Insert(2, 40, 8)  // (2,0), adjacent ring of a box ending in cell 1
	g.Insert(3, 100, 8) // (6,0), far away
	g.Insert(4, -8, -8) // (-1,-1), adjacent ring

	got := g.CollectSlotsInBox(0, 0, 10, 10, nil)
	want := map[int32]bool{0: true, 1: true, 4: true}
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected slot %d", s)
		}
	}

	got = g.CollectSlotsInBox(0, 0, 20, 10, nil)
	found := false
	for _, s := range got {
		if s == 2 {
			found = true
		}
		if s == 3 {
			t.Errorf("far slot collected")
		}
	}
	if !found {
		t.Errorf("slot in expanded ring not collected: %v", got)
	}
}

func TestGridCollectNeighborSlots(t *testing.T) {
	g := NewGrid(16)
	g.Insert(0, 8, 8)
	g.Insert(1, -8, 24)
	g.Insert(2, 40, 8)

	got := g.CollectNeighborSlots(0, 0, nil)
	if len(got) != 2 {
		t.Errorf("expected 2 neighbour slots, got %v", got)
	}
}

func TestGridCollectAtCoordinateLimits(t *testing.T) {
	const edge = float64(1<<31) * 16
	tests := []struct {
		name string
		x    float64
	}{
		{"last cell", edge - 8},
		{"next to last cell", edge - 24},
		{"beyond range", edge * 4},
		{"first cell", -edge + 8},
		{"beyond negative range", -edge * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(16)
			g.Insert(7, tt.x, 0)

			done := make(chan []int32, 1)
			go func() { done <- g.CollectSlotsInBox(tt.x, 0, tt.x+1, 1, nil) }()
			var got []int32
			select {
			case got = <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("CollectSlotsInBox did not return")
			}
			if len(got) != 1 || got[0] != 7 {
				t.Errorf("expected slot 7, got %v", got)
			}

			cx := g.CellCoord(tt.x)
			if got := g.CollectNeighborSlots(cx, 0, nil); len(got) != 1 {
				t.Errorf("expected slot 7 around cell %d, got %v", cx, got)
			}
		})
	}
}

func TestGridCollectNeighborSlotsAtInt32Limits(t *testing.T) {
	g := NewGrid(16)
	g.cells[PackKey(math.MaxInt32, 0)] = []int32{1}
	g.cells[PackKey(math.MinInt32, 0)] = []int32{2}

	if got := g.CollectNeighborSlots(math.MaxInt32, 0, nil); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected slot 1, got %v", got)
	}
	if got := g.CollectNeighborSlots(math.MinInt32, 0, nil); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected slot 2, got %v", got)
	}
}

func TestGridClear(t *testing.T) {
	g := NewGrid(0)
	if g.CellSize() != DefaultCellSize {
		t.Errorf("expected default cell size")
	}
	g.Insert(0, 1, 1)
	g.Clear()
	if g.CellCount() != 0 {
		t.Errorf("expected no cells after Clear")
	}
}

func TestOversizedList(t *testing.T) {
	l := NewOversizedList(16)
	if l.Threshold() != 12 {
		t.Fatalf("expected threshold 12, got %v", l.Threshold())
	}

	tests := []struct {
		width float64
		want  bool
	}{
		{4, false},
		{12, false},
		{12.01, true},
		{26, true},
	}
	for _, tt := range tests {
		if got := l.IsOversized(tt.width); got != tt.want {
			t.Errorf("IsOversized(%v) = %v, want %v", tt.width, got, tt.want)
		}
	}

	l.Add(3)
	l.Add(3)
	l.Add(5)
	if l.Len() != 2 {
		t.Errorf("duplicate add, len %d", l.Len())
	}
	l.Remove(3)
	if l.Contains(3) || !l.Contains(5) {
		t.Errorf("remove by value failed")
	}
	if got := l.CollectAll([]int32{9}); len(got) != 2 || got[0] != 9 || got[1] != 5 {
		t.Errorf("CollectAll should append, got %v", got)
	}
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("expected empty after Clear")
	}
}
