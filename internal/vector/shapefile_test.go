package vector

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZoneShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "zones.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	w.SetFields([]shp.Field{
		shp.NumberField("ZONE_ID", 10),
		shp.StringField("NAME", 40),
	})

	zones := []struct {
		id         int
		name       string
		minX, minY float64
	}{
		{7, "north field", 0, 0},
		{12, "south field", 100, 0},
	}
	for n, z := range zones {
		w.Write(&shp.Polygon{
			NumParts:  1,
			NumPoints: 5,
			Parts:     []int32{0},
			Points: []shp.Point{
				{X: z.minX, Y: z.minY},
				{X: z.minX, Y: z.minY + 50},
				{X: z.minX + 50, Y: z.minY + 50},
				{X: z.minX + 50, Y: z.minY},
				{X: z.minX, Y: z.minY},
			},
		})
		require.NoError(t, w.WriteAttribute(n, 0, z.id))
		require.NoError(t, w.WriteAttribute(n, 1, z.name))
	}
	w.Close()
	return path
}

func TestReadZones(t *testing.T) {
	path := writeZoneShapefile(t, t.TempDir())

	zones, err := ReadZones(path, "ZONE_ID", "NAME")
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, 7, zones[0].ID)
	assert.Equal(t, "north field", zones[0].Name)
	assert.Equal(t, 12, zones[1].ID)
	assert.Equal(t, "south field", zones[1].Name)
	assert.Equal(t, 1, zones[0].Geom.NumPolygons())
	// The written geometry must survive the round trip with all vertices.
	assert.Equal(t, 5, zones[0].Geom.Polygon(0).LinearRing(0).NumCoords())
}

func TestReadZonesPositionalIDs(t *testing.T) {
	path := writeZoneShapefile(t, t.TempDir())

	zones, err := ReadZones(path, "", "")
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, 1, zones[0].ID)
	assert.Equal(t, 2, zones[1].ID)
	assert.Empty(t, zones[0].Name)
}

func TestReadZonesMissingFile(t *testing.T) {
	_, err := ReadZones(filepath.Join(t.TempDir(), "nope.shp"), "", "")
	assert.Error(t, err)
}

func TestReadPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "samples.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	w.SetFields([]shp.Field{shp.NumberField("ID", 10)})
	coords := []shp.Point{{X: 1.5, Y: 2.5}, {X: -3, Y: 4}, {X: 0, Y: 0}}
	for n := range coords {
		w.Write(&coords[n])
		require.NoError(t, w.WriteAttribute(n, 0, n))
	}
	w.Close()

	points, err := ReadPoints(path)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, Point{X: 1.5, Y: 2.5}, points[0])
	assert.Equal(t, Point{X: -3, Y: 4}, points[1])
}
