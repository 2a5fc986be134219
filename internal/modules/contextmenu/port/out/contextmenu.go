package out

import waypoint "mapdirect/internal/modules/waypoint/domain"

type Viewport interface {
	ZoomIn()
	ZoomOut()
}

type WaypointWriter interface {
	SetWaypoint(role waypoint.Role, p waypoint.LatLng)
}
