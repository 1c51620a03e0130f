package hexgrid

import "testing"

func TestOffsetRoundTrip(t *testing.T) {
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			h := FromOffset(row, col)
			gotRow, gotCol := h.ToOffset()
			if gotRow != row || gotCol != col {
				t.Errorf("Round trip of (%d,%d) gave (%d,%d)", row, col, gotRow, gotCol)
			}
		}
	}
}

func TestAddSubInverse(t *testing.T) {
	a := FromOffset(3, 4)
	b := FromOffset(1, 2)
	if got := a.Add(b.Sub(b)); !got.Equal(a) {
		t.Errorf("Adding a zero displacement moved the cell: %+v", got)
	}
	if got := b.Add(a.Sub(b)); !got.Equal(a) {
		t.Errorf("Expected b + (a-b) = a, got %+v", got)
	}
}

func TestNeighborsAreDistinctAndAdjacent(t *testing.T) {
	center := FromOffset(4, 4)
	neighbors := center.Neighbors()
	if len(neighbors) != 6 {
		t.Fatalf("Expected 6 neighbors, got %d", len(neighbors))
	}
	seen := map[HecsCoord]bool{center: true}
	for _, n := range neighbors {
		if seen[n] {
			t.Errorf("Duplicate or self neighbor %+v", n)
		}
		seen[n] = true
	}
}
