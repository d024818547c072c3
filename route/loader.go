package route

import (
	"errors"
	"fmt"
	"os"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

// LoadGPX reads a GPX file and builds a Route from it.
func LoadGPX(path, name string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGPX(data, name)
}

// ParseGPX builds a Route from GPX bytes. Track geometry wins over route
// geometry when both are present; an empty name falls back to the GPX
// track/route name.
func ParseGPX(data []byte, name string) (*Route, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	var points []geo.Point
	for _, trk := range g.Tracks {
		if name == "" {
			name = trk.Name
		}
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				points = append(points, geo.Point{Lon: pt.Longitude, Lat: pt.Latitude})
			}
		}
		if len(points) > 0 {
			break
		}
	}
	if len(points) == 0 {
		for _, rte := range g.Routes {
			if name == "" {
				name = rte.Name
			}
			for _, pt := range rte.Points {
				points = append(points, geo.Point{Lon: pt.Longitude, Lat: pt.Latitude})
			}
			if len(points) > 0 {
				break
			}
		}
	}
	if len(points) == 0 {
		return nil, errors.New("gpx has no track or route points")
	}
	return New(points, name)
}
