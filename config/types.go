package config

// RouteConfig describes where the active route polyline comes from.
type RouteConfig struct {
	GPXPath string `yaml:"gpxPath" validate:"omitempty"`
	Name    string `yaml:"name"`
}

// SegmentsConfig describes where the coverage-segment feature collection
// comes from.
type SegmentsConfig struct {
	GeoJSONPath string `yaml:"geojsonPath" validate:"omitempty"`
}

// DirectionsConfig configures the OSRM-shaped directions/ETA service.
type DirectionsConfig struct {
	BaseURL    string `yaml:"baseURL" validate:"omitempty,url"`
	TimeoutMS  int    `yaml:"timeoutMS" validate:"gte=0"`
	Geometries string `yaml:"geometries" validate:"omitempty,oneof=geojson polyline"`
}

// PersistenceConfig configures the coverage persistence sink.
type PersistenceConfig struct {
	URL       string `yaml:"url" validate:"omitempty,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// Engine carries every tunable threshold of the tracking engine. The defaults
// mirror the values the engine was tuned with; they are configuration, not
// physical constants.
type Engine struct {
	// Fix processing.
	MaxSpeedMps     float64 `yaml:"maxSpeedMps" validate:"gt=0"`
	BackwardJumpM   float64 `yaml:"backwardJumpM" validate:"gt=0"`
	BackwardVotes   int     `yaml:"backwardVotes" validate:"gt=0"`
	ProgressHistory int     `yaml:"progressHistory" validate:"gt=0"`
	SpeedWindow     int     `yaml:"speedWindow" validate:"gt=0"`
	BlendNew        float64 `yaml:"blendNew" validate:"gt=0,lte=1"`

	// Route matching.
	SearchBackEdges  int     `yaml:"searchBackEdges" validate:"gte=0"`
	SearchAheadEdges int     `yaml:"searchAheadEdges" validate:"gte=0"`
	WindowFallbackM  float64 `yaml:"windowFallbackM" validate:"gt=0"`

	// Maneuver building.
	MinTurnAngleDeg     float64 `yaml:"minTurnAngleDeg" validate:"gt=0"`
	MinManeuverSpacingM float64 `yaml:"minManeuverSpacingM" validate:"gte=0"`
	MinEdgeLenM         float64 `yaml:"minEdgeLenM" validate:"gte=0"`
	ManeuverPassedM     float64 `yaml:"maneuverPassedM" validate:"gte=0"`

	// Navigation state machine.
	ArriveRadiusM         float64 `yaml:"arriveRadiusM" validate:"gt=0"`
	SmartStartRadiusM     float64 `yaml:"smartStartRadiusM" validate:"gt=0"`
	ArrivedAtStartDwellMS int     `yaml:"arrivedAtStartDwellMS" validate:"gte=0"`
	OffRouteM             float64 `yaml:"offRouteM" validate:"gt=0"`
	ResumeAheadM          float64 `yaml:"resumeAheadM" validate:"gt=0"`
	ResumeSearchM         float64 `yaml:"resumeSearchM" validate:"gt=0"`

	// Coverage tracking.
	CellSizeM         float64 `yaml:"cellSizeM" validate:"gt=0"`
	SegmentMatchM     float64 `yaml:"segmentMatchM" validate:"gt=0"`
	PersistDebounceMS int     `yaml:"persistDebounceMS" validate:"gte=0"`
	MaxPersistRetries int     `yaml:"maxPersistRetries" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Route       RouteConfig       `yaml:"route"`
	Segments    SegmentsConfig    `yaml:"segments"`
	Directions  DirectionsConfig  `yaml:"directions"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Engine      Engine            `yaml:"engine"`
}
