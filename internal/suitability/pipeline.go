package suitability

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/suitability-cli/internal/raster"
)

// Options configures one suitability pipeline run. All state is passed
// explicitly; there is no ambient per-run global.
type Options struct {
	Layers     []Layer
	OutputPath string
	RunLogPath string // defaults to OutputPath + ".log"
	ScratchDir string // per-run scratch dir for intermediate grids; optional
	Workers    int    // normalization parallelism; <=1 means sequential
}

// Result summarizes a completed pipeline run.
type Result struct {
	OutputPath string
	RunLogPath string
	Groups     int
	Layers     int
}

// Run executes the full suitability pipeline: read every layer raster,
// normalize each against its optimal range, group by combine flags,
// aggregate into the geometric-mean suitability raster, and write the
// output plus the per-layer run log. Normalization is parallelized
// across layers (they are independent); grouping and aggregation are
// strictly sequential and preserve input order.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Layers) == 0 {
		return nil, eris.New("suitability: no input layers")
	}
	if opts.OutputPath == "" {
		return nil, eris.New("suitability: output path is required")
	}
	if opts.RunLogPath == "" {
		opts.RunLogPath = opts.OutputPath + ".log"
	}

	log := zap.L().With(zap.String("output", opts.OutputPath))

	grids, err := readLayers(opts.Layers)
	if err != nil {
		return nil, err
	}
	checkAlignment(log, opts.Layers, grids)

	norm, err := normalizeAll(ctx, opts.Layers, grids, opts.Workers)
	if err != nil {
		return nil, err
	}

	flags := make([]Combine, len(opts.Layers))
	for i, l := range opts.Layers {
		flags[i] = l.Combine
	}
	groups := BuildGroups(flags)

	terms, err := GroupTerms(norm, groups)
	if err != nil {
		return nil, err
	}
	if err := writeIntermediates(opts.ScratchDir, groups, terms); err != nil {
		return nil, err
	}

	out, err := Aggregate(terms)
	if err != nil {
		return nil, err
	}

	if err := raster.WriteASC(opts.OutputPath, out); err != nil {
		return nil, err
	}
	if err := WriteRunLog(opts.RunLogPath, opts.Layers); err != nil {
		return nil, err
	}

	log.Info("suitability pipeline complete",
		zap.Int("layers", len(opts.Layers)),
		zap.Int("groups", len(groups)),
	)
	return &Result{
		OutputPath: opts.OutputPath,
		RunLogPath: opts.RunLogPath,
		Groups:     len(groups),
		Layers:     len(opts.Layers),
	}, nil
}

func readLayers(layers []Layer) ([]*raster.Grid, error) {
	grids := make([]*raster.Grid, len(layers))
	for i, l := range layers {
		g, err := raster.ReadASC(l.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "suitability: read layer %d", l.Index)
		}
		grids[i] = g
	}
	return grids, nil
}

// checkAlignment warns on extent/resolution drift between layers. The
// algebra only requires matching shapes, which readLayers' consumers
// enforce; differing headers are a known risk the user accepts.
func checkAlignment(log *zap.Logger, layers []Layer, grids []*raster.Grid) {
	ref := grids[0]
	for i := 1; i < len(grids); i++ {
		if !ref.SameHeader(grids[i]) {
			log.Warn("layer extent or resolution differs from first layer; proceeding",
				zap.String("layer", layers[i].Path),
			)
		}
	}
}

func normalizeAll(ctx context.Context, layers []Layer, grids []*raster.Grid, workers int) ([]*NormalizedLayer, error) {
	norm := make([]*NormalizedLayer, len(layers))

	g, _ := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range layers {
		i := i
		g.Go(func() error {
			nl, err := Normalize(layers[i], grids[i])
			if err != nil {
				return err
			}
			norm[i] = nl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return norm, nil
}

// writeIntermediates persists each multi-member group's maximum grid to
// the scratch dir. These are audit artifacts only; the scratch dir owner
// removes them after the run.
func writeIntermediates(scratchDir string, groups []Group, terms []*raster.Grid) error {
	if scratchDir == "" {
		return nil
	}
	for i, grp := range groups {
		if len(grp.Members) < 2 {
			continue
		}
		path := filepath.Join(scratchDir, fmt.Sprintf("group_max_%02d.asc", i))
		if err := raster.WriteASC(path, terms[i]); err != nil {
			return eris.Wrapf(err, "suitability: write intermediate group %d", i)
		}
	}
	return nil
}

// WriteRunLog records one line per input layer in the fixed audit
// format understood by downstream log tooling.
func WriteRunLog(path string, layers []Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "suitability: create run log %s", path)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	for _, l := range layers {
		if _, err := w.WriteString(l.LogLine() + "\n"); err != nil {
			return eris.Wrapf(err, "suitability: write run log %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "suitability: flush run log %s", path)
	}
	return nil
}
