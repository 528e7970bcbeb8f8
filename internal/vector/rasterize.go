package vector

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/suitability-cli/internal/raster"
)

// Rasterize burns zone ids into a grid aligned to ref: each cell whose
// center falls inside a zone polygon takes that zone's id, all other
// cells stay NoData. When zones overlap, the first zone in input order
// wins.
func Rasterize(zones []Zone, ref *raster.Grid) *raster.Grid {
	out := raster.NewLike(ref)

	bounds := make([]*geom.Bounds, len(zones))
	for i, z := range zones {
		bounds[i] = z.Geom.Bounds()
	}

	for r := 0; r < ref.Rows; r++ {
		for c := 0; c < ref.Cols; c++ {
			x, y := ref.CellCenter(r, c)
			for i, z := range zones {
				if !bounds[i].OverlapsPoint(geom.XY, geom.Coord{x, y}) {
					continue
				}
				if containsPoint(z.Geom, x, y) {
					out.Set(r, c, float64(z.ID))
					break
				}
			}
		}
	}
	return out
}

// containsPoint tests point-in-polygon by even-odd parity across every
// ring of the multipolygon, which makes holes subtract naturally.
func containsPoint(mp *geom.MultiPolygon, x, y float64) bool {
	p := geom.Coord{x, y}
	inside := false
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			if xy.IsPointInRing(geom.XY, p, poly.LinearRing(j).FlatCoords()) {
				inside = !inside
			}
		}
	}
	return inside
}
