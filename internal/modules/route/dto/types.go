package dto

import "time"

type Point struct {
	Lat float64
	Lng float64
}

type PlanInput struct {
	From    Point
	To      Point
	Vias    []Point
	Profile string
}

type MarkerOutput struct {
	Index    int
	Role     string
	Lat      float64
	Lng      float64
	ImageURL string
}

type PathOutput struct {
	Name      string
	DistanceM float64
	DurationS float64
	Points    int
}

type PlanOutput struct {
	RunID        string
	SessionID    uint64
	Profile      string
	ServicePath  string
	State        string
	Primary      PathOutput
	Alternatives []PathOutput
	Markers      []MarkerOutput
	GeoJSON      []byte
}

type SessionOutput struct {
	RunID     string
	SessionID uint64
	Profile   string
	Status    string
	Waypoints []Point
	DistanceM float64
	DurationS float64
	Detail    string
	UpdatedAt time.Time
}

type ProfileOutput struct {
	Name        string
	Label       string
	ServicePath string
	Default     bool
}
