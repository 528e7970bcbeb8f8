package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadASC reads an ESRI ASCII grid: a header of ncols, nrows, xllcorner,
// yllcorner, cellsize and optional NODATA_value lines, followed by
// row-major cell values starting at the northernmost row.
func ReadASC(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs with a non-numeric key.
		if len(fields) == 2 {
			if _, numErr := strconv.ParseFloat(fields[0], 64); numErr != nil {
				v, parseErr := strconv.ParseFloat(fields[1], 64)
				if parseErr != nil {
					return nil, eris.Wrapf(parseErr, "raster: parse header %q in %s", line, path)
				}
				header[strings.ToLower(fields[0])] = v
				continue
			}
		}

		for _, fld := range fields {
			v, parseErr := strconv.ParseFloat(fld, 64)
			if parseErr != nil {
				return nil, eris.Wrapf(parseErr, "raster: parse cell %q in %s", fld, path)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: read %s", path)
	}

	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, eris.Errorf("raster: %s missing header field %s", path, key)
		}
	}

	g := &Grid{
		Rows:     int(header["nrows"]),
		Cols:     int(header["ncols"]),
		CellSize: header["cellsize"],
		XLL:      header["xllcorner"],
		YLL:      header["yllcorner"],
		NoData:   DefaultNoData,
		Data:     values,
	}
	if nd, ok := header["nodata_value"]; ok {
		g.NoData = nd
	}
	if err := g.Validate(); err != nil {
		return nil, eris.Wrapf(err, "raster: %s", path)
	}
	return g, nil
}

// WriteASC writes the grid as an ESRI ASCII grid with the 6-line header.
func WriteASC(path string, g *Grid) error {
	if err := g.Validate(); err != nil {
		return eris.Wrapf(err, "raster: write %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", g.Cols)
	fmt.Fprintf(w, "nrows %d\n", g.Rows)
	fmt.Fprintf(w, "xllcorner %s\n", strconv.FormatFloat(g.XLL, 'f', -1, 64))
	fmt.Fprintf(w, "yllcorner %s\n", strconv.FormatFloat(g.YLL, 'f', -1, 64))
	fmt.Fprintf(w, "cellsize %s\n", strconv.FormatFloat(g.CellSize, 'f', -1, 64))
	fmt.Fprintf(w, "NODATA_value %s\n", strconv.FormatFloat(g.NoData, 'f', -1, 64))

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					return eris.Wrapf(err, "raster: write %s", path)
				}
			}
			if _, err := w.WriteString(strconv.FormatFloat(g.At(r, c), 'g', -1, 64)); err != nil {
				return eris.Wrapf(err, "raster: write %s", path)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return eris.Wrapf(err, "raster: write %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "raster: flush %s", path)
	}
	return nil
}
