package vector

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Zone is one polygon feature from a zone dataset: a numeric zone id, an
// optional display name, and the polygon geometry.
type Zone struct {
	ID   int
	Name string
	Geom *geom.MultiPolygon
}

// Point is a reference sample location in map coordinates.
type Point struct {
	X, Y float64
}

// ReadZones reads polygon features with attributes from a shapefile.
// idField names the numeric attribute carrying the zone id; when empty
// or missing, ids are assigned positionally starting at 1. nameField is
// optional and joined into zonal output rows when present.
func ReadZones(path, idField, nameField string) ([]Zone, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idField)
	nameIdx := fieldIndex(reader, nameField)

	var zones []Zone
	var skipped int

	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		zone := Zone{ID: i + 1, Geom: mp}
		if idIdx >= 0 {
			raw := attribute(reader, idIdx)
			id, parseErr := strconv.Atoi(raw)
			if parseErr != nil {
				return nil, eris.Wrapf(parseErr, "vector: zone id %q in %s record %d", raw, path, i)
			}
			zone.ID = id
		}
		if nameIdx >= 0 {
			zone.Name = attribute(reader, nameIdx)
		}
		zones = append(zones, zone)
	}

	if skipped > 0 {
		zap.L().Debug("vector: skipped non-polygon records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(zones) == 0 {
		return nil, eris.Errorf("vector: no polygon features in %s", path)
	}
	return zones, nil
}

// ReadPoints reads point features from a shapefile.
func ReadPoints(path string) ([]Point, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var points []Point
	for reader.Next() {
		_, shape := reader.Shape()
		switch s := shape.(type) {
		case *shp.Point:
			points = append(points, Point{X: s.X, Y: s.Y})
		case *shp.PointZ:
			points = append(points, Point{X: s.X, Y: s.Y})
		case *shp.PointM:
			points = append(points, Point{X: s.X, Y: s.Y})
		}
	}
	if len(points) == 0 {
		return nil, eris.Errorf("vector: no point features in %s", path)
	}
	return points, nil
}

// fieldIndex resolves a DBF field name to its index, -1 when absent.
func fieldIndex(reader *shp.Reader, name string) int {
	if name == "" {
		return -1
	}
	for i, f := range reader.Fields() {
		fieldName := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(fieldName, name) {
			return i
		}
	}
	return -1
}

func attribute(reader *shp.Reader, idx int) string {
	val := strings.TrimRight(reader.Attribute(idx), "\x00")
	return strings.TrimSpace(val)
}

// polygonToMultiPolygon converts a shapefile Polygon to a
// geom.MultiPolygon, one single-ring polygon per part. Hole semantics
// are handled downstream by even-odd containment over all rings.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("vector: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("vector: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
