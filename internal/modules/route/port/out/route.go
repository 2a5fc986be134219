package out

import (
	"context"

	"mapdirect/internal/modules/route/domain"
)

// Surface is the map overlay registry. Lines and markers belong to the
// control they were drawn on and go away with it.
type Surface interface {
	AddControl(spec domain.ControlSpec) domain.ControlHandle
	RemoveControl(h domain.ControlHandle)
	ClearControl(h domain.ControlHandle)
	DrawLine(h domain.ControlHandle, line domain.Line)
	PlaceMarker(h domain.ControlHandle, m domain.Marker)
}

// Launcher starts a route computation. The completion must be handed back to
// the controller on the same event loop that drives it.
type Launcher interface {
	Launch(ctx context.Context, req domain.Request)
}

type Router interface {
	Route(ctx context.Context, req domain.Request) (domain.Result, error)
}

type SessionLog interface {
	Record(ctx context.Context, rec domain.SessionRecord) error
	List(ctx context.Context, limit int) ([]domain.SessionRecord, error)
}
