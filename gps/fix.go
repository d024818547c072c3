package gps

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// ErrBadCoordinate marks a fix with non-finite coordinates. Such fixes are
// rejected at the boundary; no engine state is mutated.
var ErrBadCoordinate = errors.New("non-finite fix coordinates")

// Fix is one instantaneous position sample. Optional sensor fields are
// pointers: nil means the source did not report them.
type Fix struct {
	Lat        float64
	Lon        float64
	AccuracyM  *float64
	HeadingDeg *float64
	SpeedMps   *float64
	Time       time.Time
}

// Point returns the fix position as a geo.Point.
func (f Fix) Point() geo.Point {
	return geo.Point{Lon: f.Lon, Lat: f.Lat}
}

// Validate rejects fixes whose coordinates are not finite numbers.
func (f Fix) Validate() error {
	if !f.Point().Finite() {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrBadCoordinate, f.Lat, f.Lon)
	}
	return nil
}

// LoadGPXTrace reads a GPX file and returns its track points as a fix stream,
// in file order. Used to replay recorded drives through the engine.
func LoadGPXTrace(path string) ([]Fix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGPXTrace(data)
}

// ParseGPXTrace parses GPX bytes into a fix stream.
func ParseGPXTrace(data []byte) ([]Fix, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx trace: %w", err)
	}
	var fixes []Fix
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				fixes = append(fixes, Fix{
					Lat:  pt.Latitude,
					Lon:  pt.Longitude,
					Time: pt.Timestamp,
				})
			}
		}
	}
	if len(fixes) == 0 {
		return nil, errors.New("gpx trace has no track points")
	}
	return fixes, nil
}
