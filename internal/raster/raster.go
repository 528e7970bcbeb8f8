package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultNoData is the sentinel used when a source omits NODATA_value.
const DefaultNoData = -9999.0

// Grid is a single-band raster: a row-major 2-D array of float64 cell
// values plus the georeferencing header. Row 0 is the northernmost row,
// matching ASCII grid order.
type Grid struct {
	Rows, Cols int
	CellSize   float64
	XLL, YLL   float64 // lower-left corner of the lower-left cell
	NoData     float64
	Data       []float64
}

// New allocates a grid with every cell set to noData.
func New(rows, cols int, cellSize, xll, yll, noData float64) *Grid {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = noData
	}
	return &Grid{
		Rows:     rows,
		Cols:     cols,
		CellSize: cellSize,
		XLL:      xll,
		YLL:      yll,
		NoData:   noData,
		Data:     data,
	}
}

// NewLike allocates a grid sharing ref's shape and header, filled with
// ref's NoData sentinel.
func NewLike(ref *Grid) *Grid {
	return New(ref.Rows, ref.Cols, ref.CellSize, ref.XLL, ref.YLL, ref.NoData)
}

// At returns the value at row r, column c.
func (g *Grid) At(r, c int) float64 {
	return g.Data[r*g.Cols+c]
}

// Set stores v at row r, column c.
func (g *Grid) Set(r, c int, v float64) {
	g.Data[r*g.Cols+c] = v
}

// IsNoData reports whether v equals the grid's NoData sentinel. NaN is
// treated as NoData as well, since it can only arise from an upstream
// sentinel leaking into arithmetic.
func (g *Grid) IsNoData(v float64) bool {
	return v == g.NoData || math.IsNaN(v)
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := *g
	out.Data = make([]float64, len(g.Data))
	copy(out.Data, g.Data)
	return &out
}

// SameShape reports whether two grids have identical row/column counts.
// Cellwise algebra is only defined for same-shape grids.
func (g *Grid) SameShape(o *Grid) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols
}

// SameHeader reports whether two grids share extent and resolution within
// half a cell of tolerance. A mismatch is a spatial-consistency warning,
// not an error: the algebra itself only requires SameShape.
func (g *Grid) SameHeader(o *Grid) bool {
	tol := g.CellSize / 2
	return g.SameShape(o) &&
		math.Abs(g.CellSize-o.CellSize) < tol &&
		math.Abs(g.XLL-o.XLL) < tol &&
		math.Abs(g.YLL-o.YLL) < tol
}

// CellCenter returns the map coordinates of the center of cell (r, c).
func (g *Grid) CellCenter(r, c int) (x, y float64) {
	x = g.XLL + (float64(c)+0.5)*g.CellSize
	y = g.YLL + (float64(g.Rows-1-r)+0.5)*g.CellSize
	return x, y
}

// CellAt returns the row/column containing map coordinate (x, y), and
// false when the point falls outside the grid extent.
func (g *Grid) CellAt(x, y float64) (r, c int, ok bool) {
	c = int(math.Floor((x - g.XLL) / g.CellSize))
	rowFromBottom := int(math.Floor((y - g.YLL) / g.CellSize))
	r = g.Rows - 1 - rowFromBottom
	if r < 0 || r >= g.Rows || c < 0 || c >= g.Cols {
		return 0, 0, false
	}
	return r, c, true
}

// Validate checks internal consistency of the header against the data
// length.
func (g *Grid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return eris.Errorf("raster: invalid dimensions %dx%d", g.Rows, g.Cols)
	}
	if g.CellSize <= 0 {
		return eris.Errorf("raster: invalid cell size %g", g.CellSize)
	}
	if len(g.Data) != g.Rows*g.Cols {
		return eris.Errorf("raster: data length %d does not match %dx%d", len(g.Data), g.Rows, g.Cols)
	}
	return nil
}
