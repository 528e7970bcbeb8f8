package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// NonzeroDenom replaces a zero denominator with exactly 1. The normalized
// ratio then collapses to the raw delta instead of dividing by zero. This
// is the degenerate-range policy for the whole pipeline; do not substitute
// an epsilon.
func NonzeroDenom(d float64) float64 {
	if d == 0 {
		return 1
	}
	return d
}

// Apply2 computes f cellwise over two same-shape grids. NoData in either
// operand yields NoData. The result inherits a's header.
func Apply2(a, b *Grid, f func(x, y float64) float64) (*Grid, error) {
	if !a.SameShape(b) {
		return nil, eris.Errorf("raster: shape mismatch %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := NewLike(a)
	for i, x := range a.Data {
		y := b.Data[i]
		if a.IsNoData(x) || b.IsNoData(y) {
			continue
		}
		out.Data[i] = f(x, y)
	}
	return out, nil
}

// Apply computes f cellwise over one grid, propagating NoData.
func Apply(a *Grid, f func(x float64) float64) *Grid {
	out := NewLike(a)
	for i, x := range a.Data {
		if a.IsNoData(x) {
			continue
		}
		out.Data[i] = f(x)
	}
	return out
}

// Add returns a + b cellwise.
func Add(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b cellwise.
func Sub(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b cellwise.
func Mul(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b cellwise. Zero divisors are replaced with 1 per the
// degenerate-range policy.
func Div(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, func(x, y float64) float64 { return x / NonzeroDenom(y) })
}

// Min returns the cellwise minimum of a and b.
func Min(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, math.Min)
}

// Max returns the cellwise maximum of a and b.
func Max(a, b *Grid) (*Grid, error) {
	return Apply2(a, b, math.Max)
}

// SubScalar returns a - s cellwise.
func SubScalar(a *Grid, s float64) *Grid {
	return Apply(a, func(x float64) float64 { return x - s })
}

// ScalarSub returns s - a cellwise.
func ScalarSub(s float64, a *Grid) *Grid {
	return Apply(a, func(x float64) float64 { return s - x })
}

// DivScalar returns a / s cellwise, with the zero-denominator fallback.
func DivScalar(a *Grid, s float64) *Grid {
	d := NonzeroDenom(s)
	return Apply(a, func(x float64) float64 { return x / d })
}

// MulScalar returns a * s cellwise.
func MulScalar(a *Grid, s float64) *Grid {
	return Apply(a, func(x float64) float64 { return x * s })
}

// PowScalar returns a^p cellwise.
func PowScalar(a *Grid, p float64) *Grid {
	return Apply(a, func(x float64) float64 { return math.Pow(x, p) })
}

// Clamp01 clips every cell to the [0, 1] interval.
func Clamp01(a *Grid) *Grid {
	return Apply(a, func(x float64) float64 {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	})
}

// Constant returns a grid shaped like ref with every valid cell set to v.
// Cells that are NoData in ref stay NoData.
func Constant(ref *Grid, v float64) *Grid {
	return Apply(ref, func(float64) float64 { return v })
}
