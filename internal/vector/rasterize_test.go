package vector

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/suitability-cli/internal/raster"
)

func squareZone(t *testing.T, id int, minX, minY, maxX, maxY float64) Zone {
	t.Helper()
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: minX, Y: minY},
			{X: minX, Y: maxY},
			{X: maxX, Y: maxY},
			{X: maxX, Y: minY},
			{X: minX, Y: minY}, // closed ring
		},
	}
	mp := polygonToMultiPolygon(poly)
	require.NotNil(t, mp)
	return Zone{ID: id, Geom: mp}
}

func TestRasterizeSquare(t *testing.T) {
	// 4x4 grid, cell size 10, extent (0,0)-(40,40). The zone covers the
	// lower-left quadrant, i.e. the bottom two rows of the left two columns.
	ref := raster.New(4, 4, 10, 0, 0, raster.DefaultNoData)
	zone := squareZone(t, 7, 0, 0, 20, 20)

	out := Rasterize([]Zone{zone}, ref)

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := raster.DefaultNoData
			if r >= 2 && c < 2 {
				want = 7
			}
			assert.Equal(t, want, out.At(r, c), "cell %d,%d", r, c)
		}
	}
}

func TestRasterizeFirstZoneWinsOnOverlap(t *testing.T) {
	ref := raster.New(2, 2, 10, 0, 0, raster.DefaultNoData)
	a := squareZone(t, 1, 0, 0, 20, 20)
	b := squareZone(t, 2, 0, 0, 20, 20)

	out := Rasterize([]Zone{a, b}, ref)
	for _, v := range out.Data {
		assert.Equal(t, 1.0, v)
	}
}

func TestRasterizeHole(t *testing.T) {
	// Outer ring covering the full extent with an inner hole over the
	// center cell: even-odd parity leaves the hole NoData.
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			// Outer ring
			{X: 0, Y: 0},
			{X: 0, Y: 30},
			{X: 30, Y: 30},
			{X: 30, Y: 0},
			{X: 0, Y: 0},
			// Hole around the center cell
			{X: 10, Y: 10},
			{X: 10, Y: 20},
			{X: 20, Y: 20},
			{X: 20, Y: 10},
			{X: 10, Y: 10},
		},
	}
	mp := polygonToMultiPolygon(poly)
	require.NotNil(t, mp)

	ref := raster.New(3, 3, 10, 0, 0, raster.DefaultNoData)
	out := Rasterize([]Zone{{ID: 3, Geom: mp}}, ref)

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 3.0
			if r == 1 && c == 1 {
				want = raster.DefaultNoData
			}
			assert.Equal(t, want, out.At(r, c), "cell %d,%d", r, c)
		}
	}
}

func TestPolygonToMultiPolygonEmpty(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}
