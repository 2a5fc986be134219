package domain

import (
	"time"

	"github.com/paulmach/orb"

	marker "mapdirect/internal/modules/marker/domain"
	profile "mapdirect/internal/modules/profile/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"
)

// State is the controller's externally visible state.
type State string

const (
	StateIdle      State = "idle"
	StateComputing State = "computing"
	StateRendered  State = "rendered"
	StateFailed    State = "failed"
)

type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusActive     SessionStatus = "active"
	StatusSuperseded SessionStatus = "superseded"
	StatusFailed     SessionStatus = "failed"
)

// Live reports whether a session with this status may still affect the map.
func (s SessionStatus) Live() bool {
	return s == StatusPending || s == StatusActive
}

// Session is one attempt to compute a route for a waypoint set and profile.
type Session struct {
	ID        uint64
	Waypoints []waypoint.LatLng
	Profile   profile.Profile
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	Err       string
}

type Request struct {
	SessionID    uint64
	Profile      profile.Profile
	ServicePath  string
	Waypoints    []waypoint.LatLng
	Alternatives bool
}

type Path struct {
	Name      string
	Geometry  orb.LineString
	DistanceM float64
	DurationS float64
}

type Result struct {
	Primary      Path
	Alternatives []Path
}

// Completion carries a finished computation back to the controller.
type Completion struct {
	SessionID uint64
	Result    Result
	Err       error
}

// View is a read-only snapshot for renderers.
type View struct {
	State      State
	Session    Session
	HasSession bool
	Result     Result
	Err        string
}

// SessionRecord is the audit form of a session status change.
type SessionRecord struct {
	RunID     string
	SessionID uint64
	Profile   profile.Profile
	Waypoints []waypoint.LatLng
	Status    SessionStatus
	DistanceM float64
	DurationS float64
	Detail    string
	UpdatedAt time.Time
}

type ControlHandle uint64

// ControlSpec describes the route control registered on the map surface.
type ControlSpec struct {
	SessionID        uint64
	Profile          profile.Profile
	ServicePath      string
	Waypoints        []waypoint.LatLng
	ShowAlternatives bool
	Collapsible      bool
}

type Line struct {
	RouteIndex  int
	Alternative bool
	Geometry    orb.LineString
	Styles      []LineStyle
}

type Marker struct {
	Index     int
	Role      waypoint.Role
	Position  waypoint.LatLng
	Icon      marker.Icon
	Draggable bool
}
