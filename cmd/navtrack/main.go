package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/navtrack"
	"github.com/theoremus-urban-solutions/navtrack/config"
	"github.com/theoremus-urban-solutions/navtrack/coverage"
	"github.com/theoremus-urban-solutions/navtrack/directions"
	"github.com/theoremus-urban-solutions/navtrack/gps"
	"github.com/theoremus-urban-solutions/navtrack/route"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config.yml")
	routePath := flag.String("route", "", "GPX route file (overrides config)")
	segmentsPath := flag.String("segments", "", "GeoJSON coverage segments file (overrides config)")
	tracePath := flag.String("trace", "", "GPX file whose track points replay as the fix stream")
	mission := flag.String("mission", "", "mission id for persistence scoping (empty generates one)")
	toStart := flag.Bool("toStart", false, "navigate to the smart-start point before going active")
	flag.Parse()

	navtrack.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config %s not loaded (%v), using defaults", *configPath, err)
		cfg = config.AppConfig{Engine: config.DefaultEngine()}
	}
	if *routePath != "" {
		cfg.Route.GPXPath = *routePath
	}
	if *segmentsPath != "" {
		cfg.Segments.GeoJSONPath = *segmentsPath
	}
	if cfg.Route.GPXPath == "" {
		log.Fatal("no route: pass -route or set route.gpxPath in config")
	}
	if *tracePath == "" {
		log.Fatal("no fix trace: pass -trace")
	}

	r, err := route.LoadGPX(cfg.Route.GPXPath, cfg.Route.Name)
	if err != nil {
		log.Fatalf("load route: %v", err)
	}

	var segments []coverage.Segment
	var sink coverage.Sink
	if cfg.Segments.GeoJSONPath != "" {
		segments, err = coverage.LoadGeoJSON(cfg.Segments.GeoJSONPath)
		if err != nil {
			log.Fatalf("load segments: %v", err)
		}
		if cfg.Persistence.URL != "" {
			sink = coverage.NewHTTPSink(cfg.Persistence.URL,
				time.Duration(cfg.Persistence.TimeoutMS)*time.Millisecond)
		} else {
			sink = logSink{}
		}
	}

	fixes, err := gps.LoadGPXTrace(*tracePath)
	if err != nil {
		log.Fatalf("load trace: %v", err)
	}

	missionID := *mission
	if missionID == "" && sink != nil {
		missionID = uuid.NewString()
	}

	nav := navtrack.New(cfg.Engine, nil)
	defer nav.Close()
	if err := nav.LoadArea(r, segments, sink, missionID); err != nil {
		log.Fatalf("load area: %v", err)
	}

	if *toStart {
		// Seed the position from the first trace fix, then ask for guidance
		// to the smart-start point, with a best-effort ETA.
		if _, _, err := nav.Tick(fixes[0]); err != nil {
			log.Fatalf("seed fix: %v", err)
		}
		target, err := nav.NavigateToStart()
		if err != nil {
			log.Fatalf("navigate to start: %v", err)
		}
		printETA(cfg.Directions, fixes[0], target)
	} else {
		if err := nav.StartNavigation(); err != nil {
			log.Fatalf("start navigation: %v", err)
		}
	}

	for _, f := range fixes {
		out, events, err := nav.Tick(f)
		if err != nil {
			log.Printf("tick rejected: %v", err)
			continue
		}
		line, _ := json.Marshal(out)
		fmt.Println(string(line))
		for _, ev := range events {
			logEvent(ev)
		}
		if out.State == navtrack.Arrived {
			break
		}
	}

	if tracker := nav.Coverage(); tracker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracker.FlushNow(ctx); err != nil {
			log.Printf("final coverage flush: %v", err)
		}
		log.Printf("coverage: %.2f%% driven, %d ids still pending",
			tracker.CoveragePct(), tracker.Pending())
	}
	log.Printf("final state: %s", nav.State())
}

func logEvent(ev navtrack.Event) {
	switch ev.Kind {
	case navtrack.EventStateChanged:
		log.Printf("event: state %s -> %s", ev.From, ev.To)
	case navtrack.EventSegmentsDriven:
		log.Printf("event: %d segments driven: %v", len(ev.SegmentIDs), ev.SegmentIDs)
	case navtrack.EventPersistenceIssue:
		log.Printf("event: persistence issue %s (%d pending): %v",
			ev.Issue.Kind, ev.Issue.Pending, ev.Issue.Err)
	case navtrack.EventResumeCandidate:
		log.Printf("event: resume candidate at vertex %d, %.0f m away",
			ev.Resume.VertexIndex, ev.Resume.DistanceM)
	}
}

// printETA asks the directions service for a drive-to-start estimate. The
// service failing only costs us the estimate.
func printETA(cfg config.DirectionsConfig, from gps.Fix, target *navtrack.ResumeCandidate) {
	if cfg.BaseURL == "" || target == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := directions.NewClient(cfg).Route(ctx, from.Point(), target.Point)
	if err != nil {
		log.Printf("drive to start: %.0f m straight-line (directions: %v)", target.DistanceM, err)
		return
	}
	log.Printf("drive to start: %.0f m, about %s", res.DistanceM,
		(time.Duration(res.DurationS) * time.Second).Round(time.Second))
}

// logSink is the persistence sink of last resort: it just records batches.
type logSink struct{}

func (logSink) Flush(_ context.Context, ids []string, missionID string) error {
	if missionID != "" {
		log.Printf("persist: %d ids (mission %s)", len(ids), missionID)
		return nil
	}
	log.Printf("persist: %d ids", len(ids))
	return nil
}
