package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/raster"
	"github.com/sells-group/suitability-cli/internal/vector"
	"github.com/sells-group/suitability-cli/internal/zonal"
)

var zonalCmd = &cobra.Command{
	Use:   "zonal",
	Short: "Compute zonal statistics over suitability classes",
	Long: `Reclassify a suitability raster into equal-interval classes, cross it
with a zone shapefile, and aggregate one or more value rasters into a
wide table keyed by (zone, class).

Each --value flag names a value raster and, optionally, the statistics
to compute for it:

  --value elevation.asc
  --value "slope.asc=mean,std,majority"

Without an explicit list, the statistics come from zonal.stats in the
config. Column names are <prefix>_<stat> where the prefix is the first
four characters of the raster's file name.

Examples:
  # Classes and stats from config, zones from a shapefile
  zonal --suitability out.asc --zones parcels.shp --value elevation.asc --output zonal.csv

  # No zones: one row per suitability class
  zonal --suitability out.asc --classes 10 --value cost.asc --output zonal.xlsx --format xlsx`,
	RunE: runZonal,
}

func init() {
	f := zonalCmd.Flags()
	f.String("suitability", "", "path to the suitability grid (required)")
	f.Int("classes", 0, "equal-interval class count, 1-999 (0=use config default)")
	f.String("zones", "", "path to a polygon zone shapefile (optional)")
	f.String("zone-id-field", "", "attribute holding the numeric zone ID (default: feature order)")
	f.String("zone-name-field", "", "attribute holding the zone display name")
	f.StringArray("value", nil, "value raster as path[=stat,...]; repeatable (required)")
	f.Bool("include-nodata", false, "NoData cells poison their row instead of being skipped")
	f.String("output", "", "output table path (default: stdout)")
	f.String("format", "csv", "output format: csv or xlsx")

	_ = zonalCmd.MarkFlagRequired("suitability")
	_ = zonalCmd.MarkFlagRequired("value")

	rootCmd.AddCommand(zonalCmd)
}

type zonalParams struct {
	Suitability string   `json:"suitability"`
	Classes     int      `json:"classes"`
	Zones       string   `json:"zones,omitempty"`
	Values      []string `json:"values"`
	Output      string   `json:"output,omitempty"`
}

func runZonal(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "zonal"))

	suitPath, _ := cmd.Flags().GetString("suitability")
	classes, _ := cmd.Flags().GetInt("classes")
	zonesPath, _ := cmd.Flags().GetString("zones")
	idField, _ := cmd.Flags().GetString("zone-id-field")
	nameField, _ := cmd.Flags().GetString("zone-name-field")
	valueSpecs, _ := cmd.Flags().GetStringArray("value")
	includeNoData, _ := cmd.Flags().GetBool("include-nodata")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if classes == 0 {
		classes = cfg.Zonal.Classes
	}
	if idField == "" {
		idField = cfg.Zonal.ZoneIDField
	}
	if nameField == "" {
		nameField = cfg.Zonal.ZoneNameField
	}
	if !cmd.Flags().Changed("include-nodata") {
		includeNoData = cfg.Zonal.IncludeNoData
	}
	if format != "csv" && format != "xlsx" {
		return eris.Errorf("zonal: --format must be csv or xlsx (got %q)", format)
	}
	if format == "xlsx" && outputPath == "" {
		return eris.New("zonal: --output is required for xlsx format")
	}

	defaultStats, err := zonal.ParseStats(cfg.Zonal.Stats)
	if err != nil {
		return err
	}

	suit, err := raster.ReadASC(suitPath)
	if err != nil {
		return err
	}

	var zones []vector.Zone
	if zonesPath != "" {
		zones, err = vector.ReadZones(zonesPath, idField, nameField)
		if err != nil {
			return err
		}
		log.Info("loaded zones", zap.String("path", zonesPath), zap.Int("count", len(zones)))
	}

	values, err := loadValueInputs(valueSpecs, suit, defaultStats, log)
	if err != nil {
		return err
	}

	st := openRegistry(ctx, log)
	defer closeStore(st, log)
	run := recordStart(ctx, st, log, "zonal", zonalParams{
		Suitability: suitPath,
		Classes:     classes,
		Zones:       zonesPath,
		Values:      valueSpecs,
		Output:      outputPath,
	})

	table, err := zonal.Aggregate(zonal.Options{
		Suitability:   suit,
		Classes:       classes,
		Zones:         zones,
		Values:        values,
		IncludeNoData: includeNoData,
	})
	if err != nil {
		recordOutcome(ctx, st, log, run, "", err)
		return err
	}

	if err := writeZonalTable(table, format, outputPath); err != nil {
		recordOutcome(ctx, st, log, run, "", err)
		return err
	}
	recordOutcome(ctx, st, log, run, outputPath, nil)

	log.Info("zonal statistics complete",
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)),
	)
	return nil
}

// loadValueInputs parses each --value spec ("path" or "path=stat,...")
// and reads the raster, checking its shape against the suitability grid.
// Rasters whose file names map to the same column prefix get a numeric
// suffix so their statistic columns stay distinct.
func loadValueInputs(specs []string, suit *raster.Grid, defaults []zonal.Stat, log *zap.Logger) ([]zonal.ValueInput, error) {
	inputs := make([]zonal.ValueInput, 0, len(specs))
	taken := make(map[string]bool, len(specs))
	for _, spec := range specs {
		path := spec
		stats := defaults
		if eq := strings.IndexByte(spec, '='); eq >= 0 {
			path = spec[:eq]
			parsed, err := zonal.ParseStats(spec[eq+1:])
			if err != nil {
				return nil, err
			}
			stats = parsed
		}

		g, err := raster.ReadASC(path)
		if err != nil {
			return nil, err
		}
		if !suit.SameShape(g) {
			return nil, eris.Errorf("zonal: value raster %s shape %dx%d differs from suitability grid (%dx%d)",
				path, g.Rows, g.Cols, suit.Rows, suit.Cols)
		}
		if !suit.SameHeader(g) {
			log.Warn("value raster extent drifts from suitability grid", zap.String("path", path))
		}

		prefix := zonal.DefaultPrefix(path)
		for i := 2; taken[prefix]; i++ {
			prefix = zonal.DefaultPrefix(path) + strconv.Itoa(i)
		}
		taken[prefix] = true

		inputs = append(inputs, zonal.ValueInput{
			Name:   path,
			Prefix: prefix,
			Grid:   g,
			Stats:  stats,
		})
	}
	return inputs, nil
}

func writeZonalTable(table *zonal.Table, format, outputPath string) error {
	if format == "xlsx" {
		return table.WriteXLSX(outputPath)
	}

	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "zonal: create output file %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	if err := table.WriteCSV(w); err != nil {
		return err
	}
	if outputPath != "" {
		fmt.Printf("Wrote %s (%d rows)\n", outputPath, len(table.Rows))
	}
	return nil
}
