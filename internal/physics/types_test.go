package physics

import "testing"

func TestBoxHelpers(t *testing.T) {
	b := Box{MinX: -2, MinY: 0, MinZ: 4, MaxX: 6, MaxY: 3, MaxZ: 8}

	if got, want := b.Center(), (Vec3{X: 2, Y: 1.5, Z: 6}); got != want {
		t.Errorf("Center() = %+v, want %+v", got, want)
	}

	grown := b.Expand(1)
	if grown.MinX != -3 || grown.MaxY != 4 || grown.MaxZ != 9 {
		t.Errorf("unexpected Expand(1) %+v", grown)
	}
	if grown.Center() != b.Center() {
		t.Errorf("Expand moved the center")
	}

	tests := []struct {
		name string
		o    Box
		want bool
	}{
		{"inside", Box{MinX: 0, MinY: 1, MinZ: 5, MaxX: 1, MaxY: 2, MaxZ: 6}, true},
		{"touching face", Box{MinX: 6, MinY: 0, MinZ: 4, MaxX: 7, MaxY: 3, MaxZ: 8}, false},
		{"apart on y", Box{MinX: -2, MinY: 3.5, MinZ: 4, MaxX: 6, MaxY: 5, MaxZ: 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Overlaps(tt.o); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
