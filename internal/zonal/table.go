package zonal

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Stat selects one per-zone statistic of a value raster.
type Stat string

const (
	StatCount    Stat = "count"
	StatMean     Stat = "mean"
	StatMin      Stat = "min"
	StatMax      Stat = "max"
	StatSum      Stat = "sum"
	StatStd      Stat = "std"
	StatRange    Stat = "range"
	StatMajority Stat = "majority"
)

var allStats = map[Stat]bool{
	StatCount: true, StatMean: true, StatMin: true, StatMax: true,
	StatSum: true, StatStd: true, StatRange: true, StatMajority: true,
}

// ParseStats parses a comma-separated statistic list, e.g. "mean,min,max".
func ParseStats(s string) ([]Stat, error) {
	var out []Stat
	for _, part := range strings.Split(s, ",") {
		st := Stat(strings.ToLower(strings.TrimSpace(part)))
		if st == "" {
			continue
		}
		if !allStats[st] {
			return nil, eris.Errorf("zonal: unknown statistic %q", part)
		}
		out = append(out, st)
	}
	if len(out) == 0 {
		return nil, eris.New("zonal: no statistics selected")
	}
	return out, nil
}

// DefaultPrefix derives a short field prefix from a raster path: the
// first four characters of the base name without extension.
func DefaultPrefix(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if len(base) > 4 {
		base = base[:4]
	}
	return strings.ToLower(base)
}

// Row is one output record: a (zone, suitability class) pair plus the
// prefixed statistic cells. A nil cell means the statistic is undefined
// for that code (no valid cells, or poisoned by NoData inclusion).
type Row struct {
	Code     int
	ZoneID   int
	Class    int
	ZoneName string
	Cells    map[string]*float64
}

// Table is the combined wide output of one zonal aggregation.
type Table struct {
	hasZones bool
	Columns  []string // prefixed statistic columns, in append order
	Rows     []Row
	index    map[int]int // code -> Rows position
}

func newTable(hasZones bool) *Table {
	return &Table{hasZones: hasZones, index: make(map[int]int)}
}

// merge joins one value raster's per-code statistics into the table,
// keyed on the compound cell code.
func (t *Table) merge(vi ValueInput, acc map[int]*accum, names map[int]string) {
	cols := make([]string, len(vi.Stats))
	for i, s := range vi.Stats {
		cols[i] = vi.Prefix + "_" + string(s)
		t.Columns = append(t.Columns, cols[i])
	}

	for code, a := range acc {
		pos, ok := t.index[code]
		if !ok {
			zoneID, class := SplitCode(code)
			t.Rows = append(t.Rows, Row{
				Code:     code,
				ZoneID:   zoneID,
				Class:    class,
				ZoneName: names[zoneID],
				Cells:    make(map[string]*float64),
			})
			pos = len(t.Rows) - 1
			t.index[code] = pos
		}
		for i, s := range vi.Stats {
			if v, valid := a.stat(s); valid {
				val := v
				t.Rows[pos].Cells[cols[i]] = &val
			} else {
				t.Rows[pos].Cells[cols[i]] = nil
			}
		}
	}
}

// Header returns the output column names.
func (t *Table) Header() []string {
	head := []string{"zone_id"}
	if t.hasZones {
		head = append(head, "zone_name")
	}
	head = append(head, "class")
	return append(head, t.Columns...)
}

func (t *Table) record(r Row) []string {
	rec := []string{strconv.Itoa(r.ZoneID)}
	if t.hasZones {
		rec = append(rec, r.ZoneName)
	}
	rec = append(rec, strconv.Itoa(r.Class))
	for _, col := range t.Columns {
		v := r.Cells[col]
		if v == nil {
			rec = append(rec, "")
			continue
		}
		rec = append(rec, strconv.FormatFloat(*v, 'g', -1, 64))
	}
	return rec
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return eris.Wrap(err, "zonal: write csv header")
	}
	for _, r := range t.Rows {
		if err := cw.Write(t.record(r)); err != nil {
			return eris.Wrap(err, "zonal: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "zonal: flush csv")
}

// WriteXLSX writes the table as a single-sheet XLSX workbook.
func (t *Table) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("zonal")
	if err != nil {
		return eris.Wrap(err, "zonal: add xlsx sheet")
	}

	head := sheet.AddRow()
	for _, col := range t.Header() {
		head.AddCell().SetString(col)
	}

	for _, r := range t.Rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.ZoneID)
		if t.hasZones {
			row.AddCell().SetString(r.ZoneName)
		}
		row.AddCell().SetInt(r.Class)
		for _, col := range t.Columns {
			cell := row.AddCell()
			if v := r.Cells[col]; v != nil {
				cell.SetFloat(*v)
			}
		}
	}

	return eris.Wrapf(f.Save(path), "zonal: save xlsx %s", path)
}
