package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "suitability_runs.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Suitability.Workers)
	assert.Equal(t, 5, cfg.Zonal.Classes)
	assert.Equal(t, "mean,min,max,count", cfg.Zonal.Stats)
	assert.False(t, cfg.Zonal.IncludeNoData)
	assert.Equal(t, "gonum", cfg.Similarity.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	yaml := `
scratch:
  dir: /tmp/suit-scratch
  keep_intermediates: true
suitability:
  workers: 8
zonal:
  classes: 9
  stats: mean,majority
similarity:
  backend: exec
  exec_command: ["Rscript", "fit.R"]
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/suit-scratch", cfg.Scratch.Dir)
	assert.True(t, cfg.Scratch.KeepIntermediates)
	assert.Equal(t, 8, cfg.Suitability.Workers)
	assert.Equal(t, 9, cfg.Zonal.Classes)
	assert.Equal(t, "mean,majority", cfg.Zonal.Stats)
	assert.Equal(t, "exec", cfg.Similarity.Backend)
	assert.Equal(t, []string{"Rscript", "fit.R"}, cfg.Similarity.ExecCommand)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := Config{
		Suitability: SuitabilityConfig{Workers: 4},
		Similarity:  SimilarityConfig{Backend: "gonum"},
	}
	assert.NoError(t, base.Validate())

	bad := base
	bad.Similarity.Backend = "scipy"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Similarity.Backend = "exec"
	assert.Error(t, bad.Validate(), "exec backend needs a command")
	bad.Similarity.ExecCommand = []string{"Rscript", "fit.R"}
	assert.NoError(t, bad.Validate())

	bad = base
	bad.Suitability.Workers = 0
	assert.Error(t, bad.Validate())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "verbose", Format: "json"}))
}
