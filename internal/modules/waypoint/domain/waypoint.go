package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

type Role string

const (
	RoleStart Role = "start"
	RoleVia   Role = "via"
	RoleEnd   Role = "end"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and inside WGS84 bounds.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func FromPoint(pt orb.Point) LatLng {
	return LatLng{Lat: pt.Lat(), Lng: pt.Lon()}
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

type Waypoint struct {
	Position LatLng
	Role     Role
	Pending  bool
}
