package directions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/geo"
)

func TestRouteGeoJSONGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("geometries"); got != "geojson" {
			t.Errorf("geometries = %q, want geojson", got)
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":95.5,"distance":1234.5,
			"geometry":{"type":"LineString","coordinates":[[23.30,42.70],[23.31,42.71]]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.DirectionsConfig{BaseURL: srv.URL})
	res, err := c.Route(context.Background(), geo.Point{Lon: 23.30, Lat: 42.70}, geo.Point{Lon: 23.31, Lat: 42.71})
	if err != nil {
		t.Fatal(err)
	}
	if res.DurationS != 95.5 || res.DistanceM != 1234.5 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Geometry) != 2 || res.Geometry[1].Lat != 42.71 {
		t.Errorf("geometry = %+v", res.Geometry)
	}
}

func TestRoutePolylineGeometry(t *testing.T) {
	// "_p~iF~ps|U_ulLnnqC" is the classic encoded polyline example:
	// (38.5, -120.2) -> (40.7, -120.95).
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"duration":10,"distance":100,
			"geometry":"_p~iF~ps|U_ulLnnqC"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.DirectionsConfig{BaseURL: srv.URL, Geometries: "polyline"})
	res, err := c.Route(context.Background(), geo.Point{}, geo.Point{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Geometry) != 2 {
		t.Fatalf("geometry = %+v, want 2 points", res.Geometry)
	}
	if res.Geometry[0].Lat != 38.5 || res.Geometry[0].Lon != -120.2 {
		t.Errorf("first point = %+v, want (38.5, -120.2)", res.Geometry[0])
	}
}

func TestRouteFailuresAreUnavailable(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	noRoute := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer noRoute.Close()

	tests := []struct {
		name string
		cfg  config.DirectionsConfig
	}{
		{"http 500", config.DirectionsConfig{BaseURL: bad.URL}},
		{"osrm error code", config.DirectionsConfig{BaseURL: noRoute.URL}},
		{"unconfigured", config.DirectionsConfig{}},
		{"unreachable", config.DirectionsConfig{BaseURL: "http://127.0.0.1:1", TimeoutMS: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg).Route(context.Background(), geo.Point{}, geo.Point{})
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}
