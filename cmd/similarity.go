package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/raster"
	"github.com/sells-group/suitability-cli/internal/similarity"
	"github.com/sells-group/suitability-cli/internal/vector"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Score environmental similarity to reference sites",
	Long: `Sample covariate rasters at reference points, fit a mean and
covariance model, and score every cell of the study area:

  - a squared Mahalanobis distance grid (low = similar), and
  - a MESS grid (multivariate environmental similarity surface; negative
    values mark extrapolation beyond the sampled range).

The statistics backend is in-process by default; set
similarity.backend: exec in the config to delegate fitting to an
external command speaking JSON on stdin/stdout.

Examples:
  similarity --covariates elev.asc,slope.asc,twi.asc --points sites.shp \
    --dist-output mahal.asc --mess-output mess.asc`,
	RunE: runSimilarity,
}

func init() {
	f := similarityCmd.Flags()
	f.String("covariates", "", "comma-separated covariate grid paths (required)")
	f.String("points", "", "reference point shapefile (required)")
	f.String("dist-output", "", "path for the Mahalanobis distance grid (required)")
	f.String("mess-output", "", "path for the MESS grid (optional)")

	_ = similarityCmd.MarkFlagRequired("covariates")
	_ = similarityCmd.MarkFlagRequired("points")
	_ = similarityCmd.MarkFlagRequired("dist-output")

	rootCmd.AddCommand(similarityCmd)
}

type similarityParams struct {
	Covariates []string `json:"covariates"`
	Points     string   `json:"points"`
	DistOutput string   `json:"dist_output"`
	MESSOutput string   `json:"mess_output,omitempty"`
	Backend    string   `json:"backend"`
}

func runSimilarity(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "similarity"))

	covList, _ := cmd.Flags().GetString("covariates")
	pointsPath, _ := cmd.Flags().GetString("points")
	distPath, _ := cmd.Flags().GetString("dist-output")
	messPath, _ := cmd.Flags().GetString("mess-output")

	covPaths := splitAndTrim(covList)
	if len(covPaths) == 0 {
		return eris.New("similarity: --covariates must name at least one grid")
	}

	covs := make([]similarity.Covariate, 0, len(covPaths))
	for _, path := range covPaths {
		g, err := raster.ReadASC(path)
		if err != nil {
			return err
		}
		covs = append(covs, similarity.Covariate{Name: path, Grid: g})
	}

	points, err := vector.ReadPoints(pointsPath)
	if err != nil {
		return err
	}
	log.Info("loaded reference points",
		zap.String("path", pointsPath),
		zap.Int("count", len(points)),
	)

	var backend similarity.Backend
	if cfg.Similarity.Backend == "exec" {
		backend = similarity.ExecBackend{Command: cfg.Similarity.ExecCommand}
	}

	st := openRegistry(ctx, log)
	defer closeStore(st, log)
	run := recordStart(ctx, st, log, "similarity", similarityParams{
		Covariates: covPaths,
		Points:     pointsPath,
		DistOutput: distPath,
		MESSOutput: messPath,
		Backend:    cfg.Similarity.Backend,
	})

	result, err := similarity.Analyze(ctx, similarity.Options{
		Covariates: covs,
		Points:     points,
		Backend:    backend,
	})
	if err != nil {
		recordOutcome(ctx, st, log, run, "", err)
		return err
	}

	if err := raster.WriteASC(distPath, result.Distance); err != nil {
		recordOutcome(ctx, st, log, run, "", err)
		return err
	}
	if messPath != "" {
		if result.MESS == nil {
			log.Warn("MESS grid unavailable, too few usable samples",
				zap.Int("samples", result.Samples),
			)
		} else if err := raster.WriteASC(messPath, result.MESS); err != nil {
			recordOutcome(ctx, st, log, run, "", err)
			return err
		}
	}
	recordOutcome(ctx, st, log, run, distPath, nil)

	log.Info("similarity analysis complete",
		zap.Int("samples", result.Samples),
		zap.Int("skipped", result.Skipped),
	)
	fmt.Printf("Wrote %s (%d samples, %d skipped)\n", distPath, result.Samples, result.Skipped)
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
