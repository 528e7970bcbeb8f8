// Package zonal merges a classified suitability raster with a rasterized
// zone dataset through a compound per-cell code and aggregates value
// rasters into one table keyed by (zone, suitability class).
package zonal

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/raster"
	"github.com/sells-group/suitability-cli/internal/vector"
)

// ClassModulus packs the suitability class into the low three decimal
// digits of the compound cell code. Classes must fit 0-999 or codes
// collide across zones.
const ClassModulus = 1000

// CellCode builds the compound code for a zone/class pair.
func CellCode(zoneID, class int) int {
	return zoneID*ClassModulus + class
}

// SplitCode recovers the zone id and suitability class from a compound
// code.
func SplitCode(code int) (zoneID, class int) {
	class = code % ClassModulus
	return (code - class) / ClassModulus, class
}

// ValueInput is one value raster to aggregate, with its selected
// statistics and the short field prefix used to keep column names unique
// when several rasters are combined into one table.
type ValueInput struct {
	Name   string
	Prefix string
	Grid   *raster.Grid
	Stats  []Stat
}

// Options configures one zonal aggregation.
type Options struct {
	Suitability *raster.Grid
	Classes     int           // equal-interval class count, 1..999
	Zones       []vector.Zone // optional; without zones every cell is zone 0
	Values      []ValueInput
	// IncludeNoData makes a NoData value cell poison its code's row for
	// that raster (the row's stats become undefined). When false, NoData
	// cells are simply skipped.
	IncludeNoData bool
}

// Aggregate runs the zonal statistics pipeline and returns the combined
// wide table, one row per (zone, suitability class) present in the data.
func Aggregate(opts Options) (*Table, error) {
	if opts.Suitability == nil {
		return nil, eris.New("zonal: suitability raster is required")
	}
	if opts.Classes < 1 || opts.Classes >= ClassModulus {
		return nil, eris.Errorf("zonal: class count %d outside 1..%d", opts.Classes, ClassModulus-1)
	}
	if len(opts.Values) == 0 {
		return nil, eris.New("zonal: at least one value raster is required")
	}
	prefixes := make(map[string]string, len(opts.Values))
	for _, vi := range opts.Values {
		if other, dup := prefixes[vi.Prefix]; dup {
			return nil, eris.Errorf("zonal: value rasters %s and %s share column prefix %q", other, vi.Name, vi.Prefix)
		}
		prefixes[vi.Prefix] = vi.Name
	}

	codes, err := codeGrid(opts)
	if err != nil {
		return nil, err
	}

	table := newTable(len(opts.Zones) > 0)
	names := zoneNames(opts.Zones)

	for _, vi := range opts.Values {
		if !vi.Grid.SameShape(opts.Suitability) {
			return nil, eris.Errorf("zonal: value raster %s shape differs from suitability raster", vi.Name)
		}
		if len(vi.Stats) == 0 {
			return nil, eris.Errorf("zonal: value raster %s has no statistics selected", vi.Name)
		}
		acc := accumulate(codes, vi.Grid, opts.IncludeNoData)
		table.merge(vi, acc, names)
	}

	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i].Code < table.Rows[j].Code })
	zap.L().Debug("zonal aggregation complete",
		zap.Int("rows", len(table.Rows)),
		zap.Int("value_rasters", len(opts.Values)),
	)
	return table, nil
}

// codeGrid reclassifies the suitability raster and merges it with the
// rasterized zones: code = zone_id*1000 + class.
func codeGrid(opts Options) (*raster.Grid, error) {
	classes, err := raster.ReclassifyEqualInterval(opts.Suitability, opts.Classes)
	if err != nil {
		return nil, eris.Wrap(err, "zonal: reclassify suitability")
	}

	var zoneGrid *raster.Grid
	if len(opts.Zones) > 0 {
		zoneGrid = vector.Rasterize(opts.Zones, opts.Suitability)
	} else {
		zoneGrid = raster.Constant(opts.Suitability, 0)
	}

	codes, err := raster.Add(raster.MulScalar(zoneGrid, ClassModulus), classes)
	if err != nil {
		return nil, eris.Wrap(err, "zonal: merge zone and class grids")
	}
	return codes, nil
}

// accum collects running statistics for one compound code.
type accum struct {
	count    int
	sum      float64
	sumSq    float64
	min, max float64
	freq     map[float64]int
	poisoned bool
}

func accumulate(codes, values *raster.Grid, includeNoData bool) map[int]*accum {
	out := make(map[int]*accum)
	for i, c := range codes.Data {
		if codes.IsNoData(c) {
			continue
		}
		code := int(c)
		a := out[code]
		if a == nil {
			a = &accum{min: math.Inf(1), max: math.Inf(-1), freq: make(map[float64]int)}
			out[code] = a
		}

		v := values.Data[i]
		if values.IsNoData(v) {
			if includeNoData {
				a.poisoned = true
			}
			continue
		}
		a.count++
		a.sum += v
		a.sumSq += v * v
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
		a.freq[v]++
	}
	return out
}

func (a *accum) stat(s Stat) (float64, bool) {
	if a.poisoned || a.count == 0 {
		return 0, false
	}
	switch s {
	case StatCount:
		return float64(a.count), true
	case StatSum:
		return a.sum, true
	case StatMean:
		return a.sum / float64(a.count), true
	case StatMin:
		return a.min, true
	case StatMax:
		return a.max, true
	case StatRange:
		return a.max - a.min, true
	case StatStd:
		mean := a.sum / float64(a.count)
		variance := a.sumSq/float64(a.count) - mean*mean
		if variance < 0 {
			variance = 0 // guard rounding
		}
		return math.Sqrt(variance), true
	case StatMajority:
		return a.majority(), true
	default:
		return 0, false
	}
}

// majority returns the most frequent value; ties break toward the
// smaller value so the result is deterministic.
func (a *accum) majority() float64 {
	best := math.Inf(1)
	bestCount := 0
	for v, n := range a.freq {
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best
}

func zoneNames(zones []vector.Zone) map[int]string {
	if len(zones) == 0 {
		return nil
	}
	names := make(map[int]string, len(zones))
	for _, z := range zones {
		names[z.ID] = z.Name
	}
	return names
}
