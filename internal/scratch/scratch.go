// Package scratch manages the per-run temporary workspace for
// intermediate rasters. Each run gets its own directory; no two steps of
// one run write the same path, and the directory is removed when the run
// ends, successfully or not.
package scratch

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Dir is one run's scratch workspace.
type Dir struct {
	path string
	keep bool
}

// New creates a fresh scratch directory under root (the OS temp dir when
// root is empty). When keep is set the directory survives Cleanup, for
// debugging intermediate grids.
func New(root, prefix string, keep bool) (*Dir, error) {
	path, err := os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return nil, eris.Wrap(err, "scratch: create dir")
	}
	return &Dir{path: path, keep: keep}, nil
}

// Path returns the scratch directory path.
func (d *Dir) Path() string {
	return d.path
}

// Cleanup removes the scratch directory. Removal is best-effort: a
// failure is logged but never masks the run's own error, so call it via
// defer without checking.
func (d *Dir) Cleanup() {
	if d.keep {
		zap.L().Info("keeping scratch dir", zap.String("path", d.path))
		return
	}
	if err := os.RemoveAll(d.path); err != nil {
		zap.L().Warn("scratch cleanup failed", zap.String("path", d.path), zap.Error(err))
	}
}
