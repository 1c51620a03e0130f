// Package hexgrid implements the HECS (Hexagonal Efficient Coordinate
// System) coordinates used by the game board. Every actor pose and prop
// location on the wire is a HecsCoord.
package hexgrid

// HecsCoord is a hex cell address. A is the interlacing bit (0 or 1),
// R the row and C the column within that lattice.
type HecsCoord struct {
	A int `json:"a"`
	R int `json:"r"`
	C int `json:"c"`
}

// Origin returns the zero coordinate.
func Origin() HecsCoord {
	return HecsCoord{}
}

// FromOffset converts row/col offset coordinates to HECS.
func FromOffset(row, col int) HecsCoord {
	return HecsCoord{A: row % 2, R: row / 2, C: col}
}

// ToOffset converts back to row/col offset coordinates.
func (h HecsCoord) ToOffset() (row, col int) {
	return h.R*2 + h.A, h.C
}

// Add returns the cell displaced by d. Displacements are how actions
// encode movement.
func (h HecsCoord) Add(d HecsCoord) HecsCoord {
	row, col := h.ToOffset()
	drow, dcol := d.ToOffset()
	return FromOffset(row+drow, col+dcol)
}

// Sub returns the displacement from o to h.
func (h HecsCoord) Sub(o HecsCoord) HecsCoord {
	row, col := h.ToOffset()
	orow, ocol := o.ToOffset()
	return FromOffset(row-orow, col-ocol)
}

// Equal reports whether two coordinates address the same cell.
func (h HecsCoord) Equal(o HecsCoord) bool {
	return h.A == o.A && h.R == o.R && h.C == o.C
}

// Neighbors returns the six adjacent cells.
func (h HecsCoord) Neighbors() []HecsCoord {
	u := h.UpRight()
	d := h.DownRight()
	return []HecsCoord{
		h.Left(), h.Right(),
		u, u.Left(),
		d, d.Left(),
	}
}

// Left returns the cell one column to the left.
func (h HecsCoord) Left() HecsCoord {
	return HecsCoord{A: h.A, R: h.R, C: h.C - 1}
}

// Right returns the cell one column to the right.
func (h HecsCoord) Right() HecsCoord {
	return HecsCoord{A: h.A, R: h.R, C: h.C + 1}
}

// UpRight returns the upper-right neighbor.
func (h HecsCoord) UpRight() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R - (1 - h.A), C: h.C + h.A}
}

// DownRight returns the lower-right neighbor.
func (h HecsCoord) DownRight() HecsCoord {
	return HecsCoord{A: 1 - h.A, R: h.R + h.A, C: h.C + h.A}
}
