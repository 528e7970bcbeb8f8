package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/scratch"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the suitability pipeline",
	Long: `Derive a land suitability raster from a layer table.

The layer table is a CSV with columns path, min, optimal_from,
optimal_to, max, combine. Each row names an input ASCII grid and the
optimal value range for that layer; the combine flag ("Yes") merges the
layer with the preceding one into an OR group. Group scores are
aggregated by geometric mean into the output raster.

Examples:
  # Run with defaults from config.yaml
  run --layers layers.csv --output suitability.asc

  # Custom run log location and higher parallelism
  run --layers layers.csv --output out.asc --run-log out.log --workers 8`,
	RunE: runSuitability,
}

func init() {
	f := runCmd.Flags()
	f.String("layers", "", "path to the layer table CSV (required)")
	f.String("output", "", "path for the output suitability grid (required)")
	f.String("run-log", "", "path for the per-layer run log (default: <output>.log)")
	f.Int("workers", 0, "normalization parallelism (0=use config default)")

	_ = runCmd.MarkFlagRequired("layers")
	_ = runCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(runCmd)
}

type runParams struct {
	Layers  string `json:"layers"`
	Output  string `json:"output"`
	RunLog  string `json:"run_log,omitempty"`
	Workers int    `json:"workers"`
}

func runSuitability(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "run"))

	layersPath, _ := cmd.Flags().GetString("layers")
	outputPath, _ := cmd.Flags().GetString("output")
	runLogPath, _ := cmd.Flags().GetString("run-log")
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Suitability.Workers
	}

	layers, warnings, err := loadLayerTable(layersPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn("layer table issue", zap.String("detail", w))
	}

	scratchDir, err := scratch.New(cfg.Scratch.Dir, "suitability", cfg.Scratch.KeepIntermediates)
	if err != nil {
		return err
	}
	defer scratchDir.Cleanup()

	st := openRegistry(ctx, log)
	defer closeStore(st, log)
	run := recordStart(ctx, st, log, "run", runParams{
		Layers:  layersPath,
		Output:  outputPath,
		RunLog:  runLogPath,
		Workers: workers,
	})

	log.Info("starting suitability run",
		zap.Int("layers", len(layers)),
		zap.Int("workers", workers),
	)

	result, err := suitability.Run(ctx, suitability.Options{
		Layers:     layers,
		OutputPath: outputPath,
		RunLogPath: runLogPath,
		ScratchDir: scratchDir.Path(),
		Workers:    workers,
	})
	if err != nil {
		recordOutcome(ctx, st, log, run, "", err)
		return err
	}
	recordOutcome(ctx, st, log, run, result.OutputPath, nil)

	log.Info("suitability run complete",
		zap.Int("layers", result.Layers),
		zap.Int("groups", result.Groups),
		zap.String("run_log", result.RunLogPath),
	)
	fmt.Printf("Wrote %s (%d layers in %d groups)\n", result.OutputPath, result.Layers, result.Groups)
	return nil
}

// loadLayerTable parses and validates the layer table CSV.
func loadLayerTable(path string) ([]suitability.Layer, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "run: open layer table %s", path)
	}
	defer f.Close() //nolint:errcheck

	return suitability.ParseTable(f)
}
