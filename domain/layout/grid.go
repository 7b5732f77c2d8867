package layout

import "sort"

// Cell is a positioned piece of rendered output.
type Cell[T any] struct {
	X, Y  int
	Value T
}

// Row is one horizontal band of cells sharing a y coordinate.
type Row[T any] struct {
	Y     int
	Cells []T
}

// Arrange groups cells by y ascending and orders each row by x ascending.
// Equal coordinates keep their input order.
func Arrange[T any](cells []Cell[T]) []Row[T] {
	sorted := make([]Cell[T], len(cells))
	copy(sorted, cells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []Row[T]
	for _, c := range sorted {
		if n := len(rows); n == 0 || rows[n-1].Y != c.Y {
			rows = append(rows, Row[T]{Y: c.Y})
		}
		last := &rows[len(rows)-1]
		last.Cells = append(last.Cells, c.Value)
	}
	return rows
}
