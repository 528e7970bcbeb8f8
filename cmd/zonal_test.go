//go:build !integration

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/raster"
	"github.com/sells-group/suitability-cli/internal/zonal"
)

func writeTestGrid(t *testing.T, path string, rows, cols int) *raster.Grid {
	t.Helper()
	g := raster.New(rows, cols, 10, 0, 0, raster.DefaultNoData)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	require.NoError(t, raster.WriteASC(path, g))
	return g
}

func TestLoadValueInputs(t *testing.T) {
	dir := t.TempDir()
	suit := writeTestGrid(t, filepath.Join(dir, "suit.asc"), 3, 3)
	writeTestGrid(t, filepath.Join(dir, "elevation.asc"), 3, 3)

	defaults := []zonal.Stat{zonal.StatMean}
	specs := []string{
		filepath.Join(dir, "elevation.asc") + "=min,max,std",
	}

	inputs, err := loadValueInputs(specs, suit, defaults, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "elev", inputs[0].Prefix)
	assert.Equal(t, []zonal.Stat{zonal.StatMin, zonal.StatMax, zonal.StatStd}, inputs[0].Stats)
}

func TestLoadValueInputs_DefaultStats(t *testing.T) {
	dir := t.TempDir()
	suit := writeTestGrid(t, filepath.Join(dir, "suit.asc"), 2, 2)
	writeTestGrid(t, filepath.Join(dir, "cost.asc"), 2, 2)

	defaults := []zonal.Stat{zonal.StatMean, zonal.StatCount}
	inputs, err := loadValueInputs([]string{filepath.Join(dir, "cost.asc")}, suit, defaults, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, defaults, inputs[0].Stats)
}

func TestLoadValueInputs_PrefixCollision(t *testing.T) {
	dir := t.TempDir()
	suit := writeTestGrid(t, filepath.Join(dir, "suit.asc"), 2, 2)
	writeTestGrid(t, filepath.Join(dir, "elevation1.asc"), 2, 2)
	writeTestGrid(t, filepath.Join(dir, "elevation2.asc"), 2, 2)
	writeTestGrid(t, filepath.Join(dir, "elevation3.asc"), 2, 2)

	specs := []string{
		filepath.Join(dir, "elevation1.asc"),
		filepath.Join(dir, "elevation2.asc"),
		filepath.Join(dir, "elevation3.asc"),
	}
	inputs, err := loadValueInputs(specs, suit, []zonal.Stat{zonal.StatMean}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, inputs, 3)

	assert.Equal(t, "elev", inputs[0].Prefix)
	assert.Equal(t, "elev2", inputs[1].Prefix)
	assert.Equal(t, "elev3", inputs[2].Prefix)
}

func TestLoadValueInputs_ShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	suit := writeTestGrid(t, filepath.Join(dir, "suit.asc"), 3, 3)
	writeTestGrid(t, filepath.Join(dir, "small.asc"), 2, 2)

	_, err := loadValueInputs([]string{filepath.Join(dir, "small.asc")}, suit, []zonal.Stat{zonal.StatMean}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differs from suitability grid")
}

func TestLoadValueInputs_BadStat(t *testing.T) {
	dir := t.TempDir()
	suit := writeTestGrid(t, filepath.Join(dir, "suit.asc"), 2, 2)
	writeTestGrid(t, filepath.Join(dir, "v.asc"), 2, 2)

	_, err := loadValueInputs([]string{filepath.Join(dir, "v.asc") + "=median"}, suit, []zonal.Stat{zonal.StatMean}, zap.NewNop())
	assert.Error(t, err)
}
