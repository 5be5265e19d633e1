package combat

import "math"

const (
	SpatialCellSize = 4.0 // ~2x the widest melee arc
	maxSpatialCells = 256 // per axis
)

// SpatialGrid is a uniform grid on the horizontal plane for broad-phase
// candidate queries. Cells hold indices into the owning snapshot.
type SpatialGrid struct {
	minX, minZ float64
	cellSize   float64
	cols, rows int
	cells      [][]int
}

// NewSpatialGrid creates a grid covering the XZ rectangle [min, max].
func NewSpatialGrid(min, max Vec3, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = SpatialCellSize
	}
	cols := int(math.Ceil((max.X-min.X)/cellSize)) + 1
	rows := int(math.Ceil((max.Z-min.Z)/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	// Very sparse rosters get coarser cells instead of a huge grid
	for cols > maxSpatialCells || rows > maxSpatialCells {
		cellSize *= 2
		cols = int(math.Ceil((max.X-min.X)/cellSize)) + 1
		rows = int(math.Ceil((max.Z-min.Z)/cellSize)) + 1
	}
	return &SpatialGrid{
		minX:     min.X,
		minZ:     min.Z,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellCoord(x, z float64) (int, int) {
	return cellIndex(x-g.minX, g.cellSize, g.cols), cellIndex(z-g.minZ, g.cellSize, g.rows)
}

// cellIndex clamps before converting; huge or infinite offsets do not fit in
// an int.
func cellIndex(offset, cellSize float64, n int) int {
	f := math.Floor(offset / cellSize)
	switch {
	case !(f >= 0): // negative or NaN
		return 0
	case f >= float64(n):
		return n - 1
	default:
		return int(f)
	}
}

// Insert adds an index at the given position
func (g *SpatialGrid) Insert(p Vec3, idx int) {
	cx, cz := g.cellCoord(p.X, p.Z)
	i := cz*g.cols + cx
	g.cells[i] = append(g.cells[i], idx)
}

// QueryBuf appends every index in cells overlapping the horizontal bounding
// box of the circle to buf. The result is a superset of the true hits.
func (g *SpatialGrid) QueryBuf(center Vec3, radius float64, buf []int) []int {
	if radius < 0 {
		return buf
	}
	minCX, minCZ := g.cellCoord(center.X-radius, center.Z-radius)
	maxCX, maxCZ := g.cellCoord(center.X+radius, center.Z+radius)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cz*g.cols+cx]...)
		}
	}
	return buf
}

// Query returns the candidate indices near center
func (g *SpatialGrid) Query(center Vec3, radius float64) []int {
	return g.QueryBuf(center, radius, nil)
}
