package zonal

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/suitability-cli/internal/vector"
)

func TestParseStats(t *testing.T) {
	stats, err := ParseStats("mean, MIN ,max")
	require.NoError(t, err)
	assert.Equal(t, []Stat{StatMean, StatMin, StatMax}, stats)

	_, err = ParseStats("mean,mode")
	assert.Error(t, err)
	_, err = ParseStats("")
	assert.Error(t, err)
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, "yiel", DefaultPrefix("/data/yield_2025.asc"))
	assert.Equal(t, "ph", DefaultPrefix("ph.asc"))
}

func zoneFrom(t *testing.T, id int, name string, minX, minY, maxX, maxY float64) vector.Zone {
	t.Helper()
	path := filepath.Join(t.TempDir(), "z.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.NumberField("ID", 10), shp.StringField("NAME", 40)})
	w.Write(&shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: minX, Y: minY}, {X: minX, Y: maxY}, {X: maxX, Y: maxY},
			{X: maxX, Y: minY}, {X: minX, Y: minY},
		},
	})
	require.NoError(t, w.WriteAttribute(0, 0, id))
	require.NoError(t, w.WriteAttribute(0, 1, name))
	w.Close()

	zones, err := vector.ReadZones(path, "ID", "NAME")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	return zones[0]
}

func TestAggregateWithZonesAndJoin(t *testing.T) {
	// 1x4 grid, cells centered at x=5,15,25,35. The zone covers the two
	// left cells; the right cells fall outside every zone and drop out.
	suit := gridOf(t, 1, 4, 0.2, 0.9, 0.2, 0.9)
	zone := zoneFrom(t, 7, "north field", 0, 0, 20, 10)

	yield := gridOf(t, 1, 4, 100, 200, 300, 400)
	ph := gridOf(t, 1, 4, 6, 7, 8, 9)

	table, err := Aggregate(Options{
		Suitability: suit,
		Classes:     2,
		Zones:       []vector.Zone{zone},
		Values: []ValueInput{
			{Name: "yield.asc", Prefix: "yiel", Grid: yield, Stats: []Stat{StatMean}},
			{Name: "ph.asc", Prefix: "ph", Grid: ph, Stats: []Stat{StatMean, StatCount}},
		},
	})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, []string{"zone_id", "zone_name", "class", "yiel_mean", "ph_mean", "ph_count"}, table.Header())

	low := table.Rows[0] // code 7001
	assert.Equal(t, 7, low.ZoneID)
	assert.Equal(t, 1, low.Class)
	assert.Equal(t, "north field", low.ZoneName)
	assert.Equal(t, 100.0, *low.Cells["yiel_mean"])
	assert.Equal(t, 6.0, *low.Cells["ph_mean"])

	high := table.Rows[1] // code 7002
	assert.Equal(t, 2, high.Class)
	assert.Equal(t, 200.0, *high.Cells["yiel_mean"])
	assert.Equal(t, 1.0, *high.Cells["ph_count"])
}

func TestAggregateRejectsDuplicatePrefixes(t *testing.T) {
	suit := gridOf(t, 1, 2, 0.1, 0.9)
	a := gridOf(t, 1, 2, 10, 10)
	b := gridOf(t, 1, 2, 99, 99)

	_, err := Aggregate(Options{
		Suitability: suit,
		Classes:     2,
		Values: []ValueInput{
			{Name: "elevation1.asc", Prefix: "elev", Grid: a, Stats: []Stat{StatMean}},
			{Name: "elevation2.asc", Prefix: "elev", Grid: b, Stats: []Stat{StatMean}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `share column prefix "elev"`)
}

func TestWriteCSV(t *testing.T) {
	suit := gridOf(t, 1, 2, 0.1, 0.9)
	vals := gridOf(t, 1, 2, 10, 30)

	table, err := Aggregate(Options{
		Suitability: suit,
		Classes:     2,
		Values:      []ValueInput{{Name: "v", Prefix: "v", Grid: vals, Stats: []Stat{StatMean}}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	assert.Equal(t, "zone_id,class,v_mean\n0,1,10\n0,2,30\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	suit := gridOf(t, 1, 2, 0.1, 0.9)
	vals := gridOf(t, 1, 2, 10, 30)

	table, err := Aggregate(Options{
		Suitability: suit,
		Classes:     2,
		Values:      []ValueInput{{Name: "v", Prefix: "v", Grid: vals, Stats: []Stat{StatMean}}},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, table.WriteXLSX(path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "zone_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "v_mean", sheet.Rows[0].Cells[2].String())
}
