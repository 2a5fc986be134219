package service

import (
	hclog "github.com/hashicorp/go-hclog"

	"mapdirect/internal/modules/contextmenu/domain"
	menuout "mapdirect/internal/modules/contextmenu/port/out"
	waypoint "mapdirect/internal/modules/waypoint/domain"
)

// Dispatcher turns a chosen menu entry and the clicked location into a
// viewport or waypoint change. It never reports errors.
type Dispatcher struct {
	viewport menuout.Viewport
	writer   menuout.WaypointWriter
	logger   hclog.Logger
	handlers map[domain.Intent]func(waypoint.LatLng)
}

func NewDispatcher(viewport menuout.Viewport, writer menuout.WaypointWriter, logger hclog.Logger) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	d := &Dispatcher{viewport: viewport, writer: writer, logger: logger.Named("contextmenu")}
	d.handlers = map[domain.Intent]func(waypoint.LatLng){
		domain.IntentZoomIn:     d.zoomIn,
		domain.IntentZoomOut:    d.zoomOut,
		domain.IntentDirectFrom: d.directFrom,
		domain.IntentDirectTo:   d.directTo,
	}
	return d
}

func (d *Dispatcher) Dispatch(intent domain.Intent, at waypoint.LatLng) {
	handler, ok := d.handlers[intent]
	if !ok {
		d.logger.Debug("ignoring unknown menu intent", "intent", string(intent))
		return
	}
	handler(at)
}

func (d *Dispatcher) zoomIn(waypoint.LatLng)  { d.viewport.ZoomIn() }
func (d *Dispatcher) zoomOut(waypoint.LatLng) { d.viewport.ZoomOut() }

func (d *Dispatcher) directFrom(at waypoint.LatLng) { d.setIfValid(waypoint.RoleStart, at) }
func (d *Dispatcher) directTo(at waypoint.LatLng)   { d.setIfValid(waypoint.RoleEnd, at) }

func (d *Dispatcher) setIfValid(role waypoint.Role, at waypoint.LatLng) {
	if !at.Valid() {
		d.logger.Debug("dropping menu action at invalid location", "role", string(role), "at", at.String())
		return
	}
	d.writer.SetWaypoint(role, at)
}
