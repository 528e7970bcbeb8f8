package suitability

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// Combine controls how a layer enters the suitability chain: No layers
// multiply into the running product on their own, Yes layers join the
// preceding layer's group and are combined by cellwise maximum first.
type Combine string

const (
	CombineNo  Combine = "No"
	CombineYes Combine = "Yes"
)

// ParseCombine parses a combine flag, case-insensitively. The empty
// string defaults to No.
func ParseCombine(s string) (Combine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no":
		return CombineNo, nil
	case "yes":
		return CombineYes, nil
	default:
		return "", eris.Errorf("suitability: invalid combine flag %q (want Yes or No)", s)
	}
}

// Layer is one input raster plus its suitability parameters. Nil range
// fields mean "unset": min/max default to the raster's own statistics,
// and an unset optimal bound treats that side of the range as fully
// optimal. Index is the position in the user-entered sequence; it is
// load-bearing for grouping, not a sort key.
type Layer struct {
	Index       int
	Path        string
	Min         *float64
	Max         *float64
	OptimalFrom *float64
	OptimalTo   *float64
	Combine     Combine
}

// layerRow is the typed CSV record for one table row.
type layerRow struct {
	Path        string   `csv:"path"`
	Min         *float64 `csv:"min,omitempty"`
	OptimalFrom *float64 `csv:"optimal_from,omitempty"`
	OptimalTo   *float64 `csv:"optimal_to,omitempty"`
	Max         *float64 `csv:"max,omitempty"`
	Combine     string   `csv:"combine,omitempty"`
}

// ParseTable reads the ordered layer table from CSV with columns
// path, min, optimal_from, optimal_to, max, combine. Hard violations
// return an error; best-effort violations are returned as warnings and
// processing may proceed. The first layer's combine flag is always
// forced to No.
func ParseTable(r io.Reader) ([]Layer, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, nil, eris.Wrap(err, "suitability: read layer table header")
	}

	var layers []Layer
	var warnings []string

	for i := 0; ; i++ {
		var row layerRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, eris.Wrapf(err, "suitability: parse layer table row %d", i)
		}

		combine, err := ParseCombine(row.Combine)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "suitability: layer table row %d", i)
		}

		layer := Layer{
			Index:       i,
			Path:        strings.TrimSpace(row.Path),
			Min:         row.Min,
			Max:         row.Max,
			OptimalFrom: row.OptimalFrom,
			OptimalTo:   row.OptimalTo,
			Combine:     combine,
		}

		if i == 0 && layer.Combine == CombineYes {
			warnings = append(warnings, "layer 0: combine flag Yes overridden to No (first layer is always a group anchor)")
			layer.Combine = CombineNo
		}

		w, err := layer.validate()
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)

		layers = append(layers, layer)
	}

	if len(layers) == 0 {
		return nil, nil, eris.New("suitability: layer table is empty")
	}
	return layers, warnings, nil
}

// validate applies the configuration-time checks. Hard errors stop the
// run before execution; range violations against user-supplied extrema
// are reported as warnings, never silently corrected.
func (l Layer) validate() ([]string, error) {
	if l.Path == "" {
		return nil, eris.Errorf("suitability: layer %d: raster path is required", l.Index)
	}
	if l.OptimalFrom != nil && l.OptimalTo != nil && *l.OptimalFrom > *l.OptimalTo {
		return nil, eris.Errorf("suitability: layer %d: optimal_from %g > optimal_to %g", l.Index, *l.OptimalFrom, *l.OptimalTo)
	}

	var warnings []string
	if l.Min != nil && l.OptimalFrom != nil && *l.OptimalFrom < *l.Min {
		warnings = append(warnings, fmt.Sprintf("layer %d: optimal_from %g below min %g", l.Index, *l.OptimalFrom, *l.Min))
	}
	if l.Max != nil && l.OptimalTo != nil && *l.OptimalTo > *l.Max {
		warnings = append(warnings, fmt.Sprintf("layer %d: optimal_to %g above max %g", l.Index, *l.OptimalTo, *l.Max))
	}
	if l.Min != nil && l.Max != nil && *l.Min > *l.Max {
		warnings = append(warnings, fmt.Sprintf("layer %d: min %g > max %g", l.Index, *l.Min, *l.Max))
	}
	return warnings, nil
}

// LogLine renders the layer as one run-log line. The field order is
// fixed for compatibility with downstream log tooling:
// index: path ; min ; optimal_from ; max ; optimal_to ; combine.
func (l Layer) LogLine() string {
	return fmt.Sprintf("%d: %s ; %s ; %s ; %s ; %s ; %s",
		l.Index, l.Path, fmtOpt(l.Min), fmtOpt(l.OptimalFrom), fmtOpt(l.Max), fmtOpt(l.OptimalTo), l.Combine)
}

func fmtOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
