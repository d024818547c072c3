package coverage

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// Status is a segment's driveability/coverage state as delivered by the
// segment source.
type Status string

const (
	StatusDriven      Status = "driven"
	StatusUndriven    Status = "undriven"
	StatusUndriveable Status = "undriveable"
)

// Segment is one indivisible unit of road geometry whose driven status is
// tracked independently. Segments are loaded as a batch per coverage area and
// only ever flip undriven → driven.
type Segment struct {
	ID       string
	Geometry []geo.Point
	LengthM  float64
	Status   Status
}

// LoadGeoJSON reads a feature-collection file of coverage segments.
func LoadGeoJSON(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFeatureCollection(data)
}

// ParseFeatureCollection decodes segments from a GeoJSON feature collection.
// Each feature carries a LineString geometry plus id, status, and length
// properties. Features without a usable id or with non-LineString geometry
// are rejected; an unknown status defaults to undriven.
func ParseFeatureCollection(data []byte) ([]Segment, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse segment collection: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("segment collection has no features")
	}

	segments := make([]Segment, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := featureID(f)
		if id == "" {
			return nil, fmt.Errorf("segment feature %d has no id", i)
		}
		ls, ok := f.Geometry.(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("segment %s: geometry is %T, want LineString", id, f.Geometry)
		}
		if len(ls) < 2 {
			return nil, fmt.Errorf("segment %s: LineString has %d points", id, len(ls))
		}

		geom := make([]geo.Point, len(ls))
		for j, pt := range ls {
			geom[j] = geo.Point{Lon: pt.Lon(), Lat: pt.Lat()}
		}

		status := Status(stringProp(f, "status"))
		switch status {
		case StatusDriven, StatusUndriven, StatusUndriveable:
		default:
			status = StatusUndriven
		}

		length := f.Properties.MustFloat64("length", 0)
		if length <= 0 {
			length = polylineLengthM(geom)
		}

		segments = append(segments, Segment{
			ID:       id,
			Geometry: geom,
			LengthM:  length,
			Status:   status,
		})
	}
	return segments, nil
}

func featureID(f *geojson.Feature) string {
	switch v := f.ID.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	if s := stringProp(f, "id"); s != "" {
		return s
	}
	return stringProp(f, "segment_id")
}

func stringProp(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

func polylineLengthM(pts []geo.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += geo.HaversineM(pts[i-1], pts[i])
	}
	return total
}
