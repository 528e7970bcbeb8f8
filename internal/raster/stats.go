package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Extrema holds the observed value range of a grid.
type Extrema struct {
	Min, Max float64
}

// Stats scans the grid and returns its min/max over valid cells. An
// all-NoData grid has no statistics and is reported as an error.
func (g *Grid) Stats() (Extrema, error) {
	min, max := math.Inf(1), math.Inf(-1)
	found := false
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		found = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !found {
		return Extrema{}, eris.New("raster: no valid cells, statistics undefined")
	}
	return Extrema{Min: min, Max: max}, nil
}

// ReclassifyEqualInterval bins valid cells into classes 1..k by equal
// intervals over the grid's own value range. A degenerate range (min ==
// max) puts every valid cell in class 1.
func ReclassifyEqualInterval(g *Grid, k int) (*Grid, error) {
	if k < 1 {
		return nil, eris.Errorf("raster: class count %d must be >= 1", k)
	}
	ext, err := g.Stats()
	if err != nil {
		return nil, err
	}
	span := ext.Max - ext.Min
	return Apply(g, func(v float64) float64 {
		if span == 0 {
			return 1
		}
		class := int(math.Floor((v-ext.Min)/span*float64(k))) + 1
		if class > k {
			class = k // v == max lands here
		}
		return float64(class)
	}), nil
}
