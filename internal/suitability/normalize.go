package suitability

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/suitability-cli/internal/raster"
)

// NormalizedLayer holds the two distance-from-edge ratio grids of one
// layer, each clamped to [0, 1], and their cellwise minimum. A cell only
// scores high when it is acceptable on both sides of the optimal window.
type NormalizedLayer struct {
	Layer Layer
	Below *raster.Grid
	Above *raster.Grid
	Score *raster.Grid
}

// Normalize computes the normalized suitability ratios for one layer.
// It is a pure function of (layer, grid): running it twice yields
// identical output.
//
// below = clamp((v - min) / (optimal_from - min), 0, 1)
// above = clamp((max - v) / (max - optimal_to), 0, 1)
//
// Zero denominators divide by 1 instead (degenerate-range policy). An
// unset optimal bound makes that side's ratio constant 1: the full range
// up to (or from) the raw extremum counts as optimal.
func Normalize(layer Layer, g *raster.Grid) (*NormalizedLayer, error) {
	min, max, err := resolveExtrema(layer, g)
	if err != nil {
		return nil, err
	}

	var below *raster.Grid
	if layer.OptimalFrom == nil {
		below = raster.Constant(g, 1)
	} else {
		below = raster.Clamp01(raster.DivScalar(raster.SubScalar(g, min), *layer.OptimalFrom-min))
	}

	var above *raster.Grid
	if layer.OptimalTo == nil {
		above = raster.Constant(g, 1)
	} else {
		above = raster.Clamp01(raster.DivScalar(raster.ScalarSub(max, g), max-*layer.OptimalTo))
	}

	score, err := raster.Min(below, above)
	if err != nil {
		return nil, eris.Wrapf(err, "suitability: normalize layer %d", layer.Index)
	}

	return &NormalizedLayer{Layer: layer, Below: below, Above: above, Score: score}, nil
}

// resolveExtrema returns the layer's min/max, computing them from the
// raster's own statistics when unset.
func resolveExtrema(layer Layer, g *raster.Grid) (min, max float64, err error) {
	if layer.Min != nil && layer.Max != nil {
		return *layer.Min, *layer.Max, nil
	}
	ext, err := g.Stats()
	if err != nil {
		return 0, 0, eris.Wrapf(err, "suitability: layer %d statistics", layer.Index)
	}
	min, max = ext.Min, ext.Max
	if layer.Min != nil {
		min = *layer.Min
	}
	if layer.Max != nil {
		max = *layer.Max
	}
	return min, max, nil
}
