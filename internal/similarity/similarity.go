// Package similarity rates every cell of a covariate stack against a
// reference sample: Mahalanobis D² for multivariate atypicality and MESS
// for extrapolation risk.
package similarity

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/suitability-cli/internal/raster"
	"github.com/sells-group/suitability-cli/internal/vector"
)

// Covariate is one environmental input raster. All covariates must share
// the same grid shape (aligned on a common grid).
type Covariate struct {
	Name string
	Grid *raster.Grid
}

// Options configures one similarity analysis.
type Options struct {
	Covariates []Covariate
	Points     []vector.Point
	Backend    Backend // nil means GonumBackend
}

// Result holds the output rasters, sharing the covariates' geometry.
type Result struct {
	Distance *raster.Grid // Mahalanobis D²
	MESS     *raster.Grid // nil when fewer than 2 usable samples
	Samples  int          // usable sample points
	Skipped  int          // points off-grid or on NoData
}

// Analyze samples the covariates at the reference points, fits the
// statistics model, and scores every cell.
func Analyze(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Covariates) == 0 {
		return nil, eris.New("similarity: at least one covariate raster is required")
	}
	if len(opts.Points) == 0 {
		return nil, eris.New("similarity: reference sample points are required")
	}
	backend := opts.Backend
	if backend == nil {
		backend = GonumBackend{}
	}

	ref := opts.Covariates[0].Grid
	for _, cov := range opts.Covariates[1:] {
		if !cov.Grid.SameShape(ref) {
			return nil, eris.Errorf("similarity: covariate %s shape differs from %s", cov.Name, opts.Covariates[0].Name)
		}
	}

	samples, skipped, err := Sample(opts.Covariates, opts.Points)
	if err != nil {
		return nil, err
	}
	m, _ := samples.Dims()
	if skipped > 0 {
		zap.L().Warn("similarity: dropped sample points outside the grid or on NoData",
			zap.Int("skipped", skipped),
			zap.Int("kept", m),
		)
	}

	model, err := backend.Fit(ctx, samples)
	if err != nil {
		return nil, err
	}

	dist, err := mahalanobisGrid(opts.Covariates, model)
	if err != nil {
		return nil, err
	}

	res := &Result{Distance: dist, Samples: m, Skipped: skipped}
	if m >= 2 {
		res.MESS = messGrid(opts.Covariates, samples)
	}
	return res, nil
}

// Sample extracts each covariate's value at each reference point,
// producing the m×n sample matrix. Points outside the grid or hitting
// NoData in any covariate are dropped.
func Sample(covs []Covariate, points []vector.Point) (*mat.Dense, int, error) {
	ref := covs[0].Grid
	var rows [][]float64
	skipped := 0

	for _, p := range points {
		r, c, ok := ref.CellAt(p.X, p.Y)
		if !ok {
			skipped++
			continue
		}
		row := make([]float64, len(covs))
		valid := true
		for j, cov := range covs {
			v := cov.Grid.At(r, c)
			if cov.Grid.IsNoData(v) {
				valid = false
				break
			}
			row[j] = v
		}
		if !valid {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) < 2 {
		return nil, skipped, eris.Errorf("similarity: only %d usable sample point(s) after dropping %d", len(rows), skipped)
	}

	out := mat.NewDense(len(rows), len(covs), nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out, skipped, nil
}

// mahalanobisGrid computes D² of every cell's covariate vector from the
// model mean under the model covariance.
func mahalanobisGrid(covs []Covariate, model *Model) (*raster.Grid, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(model.Cov); !ok {
		return nil, eris.New("similarity: covariance matrix is not positive definite (degenerate or collinear samples)")
	}

	ref := covs[0].Grid
	out := raster.NewLike(ref)
	mean := mat.NewVecDense(len(model.Mean), model.Mean)
	cell := make([]float64, len(covs))

	for i := range ref.Data {
		valid := true
		for j, cov := range covs {
			v := cov.Grid.Data[i]
			if cov.Grid.IsNoData(v) {
				valid = false
				break
			}
			cell[j] = v
		}
		if !valid {
			continue
		}
		d := stat.Mahalanobis(mat.NewVecDense(len(cell), cell), mean, &chol)
		out.Data[i] = d * d
	}
	return out, nil
}

// covariateRange holds one covariate's sorted sample values.
type covariateRange struct {
	sorted   []float64
	min, max float64
}

// messGrid computes the multivariate environmental similarity surface:
// per cell, the minimum over covariates of the standard MESS similarity,
// where negative values flag extrapolation beyond the sampled range.
func messGrid(covs []Covariate, samples *mat.Dense) *raster.Grid {
	m, n := samples.Dims()

	ranges := make([]covariateRange, n)
	for j := 0; j < n; j++ {
		col := mat.Col(nil, j, samples)
		sort.Float64s(col)
		ranges[j] = covariateRange{sorted: col, min: col[0], max: col[m-1]}
	}

	ref := covs[0].Grid
	out := raster.NewLike(ref)

	for i := range ref.Data {
		mess := 0.0
		valid := true
		for j, cov := range covs {
			v := cov.Grid.Data[i]
			if cov.Grid.IsNoData(v) {
				valid = false
				break
			}
			sim := similarityScore(v, ranges[j])
			if j == 0 || sim < mess {
				mess = sim
			}
		}
		if !valid {
			continue
		}
		out.Data[i] = mess
	}
	return out
}

// similarityScore is the per-covariate MESS term: f is the percentage of
// sample values below v; values beyond the sampled range score negative
// in proportion to how far they extrapolate.
func similarityScore(v float64, r covariateRange) float64 {
	m := float64(len(r.sorted))
	f := float64(sort.SearchFloat64s(r.sorted, v)) / m * 100

	span := raster.NonzeroDenom(r.max - r.min)
	switch {
	case f == 0:
		return (v - r.min) / span * 100
	case f <= 50:
		return 2 * f
	case f < 100:
		return 2 * (100 - f)
	default:
		return (r.max - v) / span * 100
	}
}
