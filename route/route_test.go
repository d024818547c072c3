package route

import (
	"errors"
	"math"
	"testing"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

func TestNewRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name   string
		points []geo.Point
	}{
		{"empty", nil},
		{"single point", []geo.Point{{Lon: 0, Lat: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.points, "r")
			if !errors.Is(err, ErrRouteTooShort) {
				t.Errorf("err = %v, want ErrRouteTooShort", err)
			}
		})
	}

	t.Run("non-finite coordinate", func(t *testing.T) {
		_, err := New([]geo.Point{{Lon: 0, Lat: 0}, {Lon: math.NaN(), Lat: 0}}, "r")
		if err == nil {
			t.Fatal("expected error for NaN coordinate")
		}
	})
}

func TestRouteMetrics(t *testing.T) {
	routes := [][]geo.Point{
		{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}},
		{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}, {Lon: 0, Lat: 0.002}},
		{{Lon: 23.3, Lat: 42.7}, {Lon: 23.301, Lat: 42.7}, {Lon: 23.301, Lat: 42.701}, {Lon: 23.302, Lat: 42.701}},
		{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}}, // repeated vertex
	}
	for i, pts := range routes {
		r, err := New(pts, "r")
		if err != nil {
			t.Fatalf("route %d: %v", i, err)
		}
		if len(r.CumDistM) != len(pts) {
			t.Fatalf("route %d: cum dist length %d, want %d", i, len(r.CumDistM), len(pts))
		}
		sum := 0.0
		for j, e := range r.EdgeLenM {
			if e < 0 {
				t.Errorf("route %d: negative edge %d", i, j)
			}
			sum += e
		}
		for j := 1; j < len(r.CumDistM); j++ {
			if r.CumDistM[j] < r.CumDistM[j-1] {
				t.Errorf("route %d: cumulative distance decreases at %d", i, j)
			}
		}
		if math.Abs(r.CumDistM[len(r.CumDistM)-1]-sum) > 1e-9 {
			t.Errorf("route %d: total %.6f != edge sum %.6f", i, r.TotalM(), sum)
		}
	}
}

func TestRouteIsACopy(t *testing.T) {
	pts := []geo.Point{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}}
	r, err := New(pts, "r")
	if err != nil {
		t.Fatal(err)
	}
	pts[0].Lat = 99
	if r.Points[0].Lat == 99 {
		t.Error("route shares caller's backing array")
	}
}

func TestClampAlong(t *testing.T) {
	r, err := New([]geo.Point{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}}, "r")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.ClampAlong(-5); got != 0 {
		t.Errorf("ClampAlong(-5) = %v, want 0", got)
	}
	if got := r.ClampAlong(1e9); got != r.TotalM() {
		t.Errorf("ClampAlong(1e9) = %v, want total", got)
	}
	if got := r.ClampAlong(50); got != 50 {
		t.Errorf("ClampAlong(50) = %v, want 50", got)
	}
}

func TestParseGPX(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><name>Loop A</name><trkseg>
    <trkpt lat="42.700" lon="23.300"></trkpt>
    <trkpt lat="42.701" lon="23.300"></trkpt>
    <trkpt lat="42.701" lon="23.301"></trkpt>
  </trkseg></trk>
</gpx>`)

	r, err := ParseGPX(data, "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "Loop A" {
		t.Errorf("name = %q, want Loop A", r.Name)
	}
	if len(r.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(r.Points))
	}
	if r.Points[0].Lon != 23.3 || r.Points[0].Lat != 42.7 {
		t.Errorf("first point = %+v", r.Points[0])
	}
	if r.TotalM() < 100 {
		t.Errorf("total = %.1f m, expected > 100 m", r.TotalM())
	}
}

func TestParseGPXNoPoints(t *testing.T) {
	data := []byte(`<?xml version="1.0"?><gpx version="1.1" creator="t" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`)
	if _, err := ParseGPX(data, ""); err == nil {
		t.Fatal("expected error for empty gpx")
	}
}
