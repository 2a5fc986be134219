package service

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	marker "mapdirect/internal/modules/marker/domain"
	profile "mapdirect/internal/modules/profile/domain"
	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/platform/clock"
)

// Controller owns the lifecycle of the single route session shown on the map.
// Every waypoint or profile change tears the current session down and starts a
// new one; completions are matched against the current session id and stale
// ones are dropped. All methods must be called from one event loop.
type Controller struct {
	store    *waypoint.Store
	selector *profile.Selector
	surface  routeout.Surface
	launcher routeout.Launcher
	log      routeout.SessionLog
	clock    clock.Clock
	logger   hclog.Logger
	runID    string

	baseCtx context.Context
	stop    context.CancelFunc
	cancel  context.CancelFunc

	state      domain.State
	nextID     uint64
	current    domain.Session
	hasCurrent bool
	result     domain.Result
	handle     domain.ControlHandle
	hasHandle  bool
	spec       domain.ControlSpec

	alternatives bool

	unsubscribe []func()
}

func NewController(
	store *waypoint.Store,
	selector *profile.Selector,
	surface routeout.Surface,
	launcher routeout.Launcher,
	log routeout.SessionLog,
	clk clock.Clock,
	runID string,
	logger hclog.Logger,
) *Controller {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	baseCtx, stop := context.WithCancel(context.Background())
	c := &Controller{
		store:    store,
		selector: selector,
		surface:  surface,
		launcher: launcher,
		log:      log,
		clock:    clk,
		logger:   logger.Named("route"),
		runID:    runID,
		baseCtx:  baseCtx,
		stop:     stop,
		state:    domain.StateIdle,

		alternatives: true,
	}
	c.unsubscribe = append(c.unsubscribe,
		store.Subscribe(func(waypoint.Snapshot) { c.handleChange() }),
		selector.Subscribe(func(profile.Profile) { c.handleChange() }),
	)
	return c
}

// Sync recomputes from the current waypoints and profile, e.g. on startup or
// to retry a failed session.
func (c *Controller) Sync() {
	c.handleChange()
}

// Complete applies a finished computation. It reports false when the
// completion belongs to a session that is no longer current.
func (c *Controller) Complete(done domain.Completion) bool {
	if !c.hasCurrent || done.SessionID != c.current.ID || c.current.Status != domain.StatusPending {
		c.logger.Debug("discarding stale route result", "session_id", done.SessionID, "current_id", c.current.ID)
		return false
	}
	c.releaseContext()

	if done.Err != nil {
		c.state = domain.StateFailed
		c.result = domain.Result{}
		if c.hasHandle {
			c.surface.ClearControl(c.handle)
		}
		c.transition(domain.StatusFailed, done.Err.Error())
		c.logger.Warn("route computation failed", "session_id", done.SessionID, "error", done.Err)
		return true
	}

	c.state = domain.StateRendered
	c.result = done.Result
	c.transition(domain.StatusActive, "")
	c.render()
	c.logger.Debug("route rendered", "session_id", done.SessionID, "alternatives", len(done.Result.Alternatives))
	return true
}

func (c *Controller) State() domain.State { return c.state }

func (c *Controller) ShowAlternatives() bool { return c.alternatives }

// SetShowAlternatives controls whether alternative routes are requested and
// drawn. A change recomputes the current route.
func (c *Controller) SetShowAlternatives(show bool) {
	if show == c.alternatives {
		return
	}
	c.alternatives = show
	if c.unsubscribe != nil {
		c.handleChange()
	}
}

func (c *Controller) Current() (domain.Session, bool) {
	return c.current, c.hasCurrent
}

func (c *Controller) View() domain.View {
	v := domain.View{State: c.state, Session: c.current, HasSession: c.hasCurrent, Result: c.result}
	if c.hasCurrent && c.current.Status == domain.StatusFailed {
		v.Err = c.current.Err
	}
	return v
}

// Close detaches from the store and selector and releases the map control.
func (c *Controller) Close() {
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
	c.teardown()
	c.state = domain.StateIdle
	c.result = domain.Result{}
	c.stop()
}

func (c *Controller) handleChange() {
	c.teardown()
	snap := c.store.Snapshot()
	if !snap.Routable() {
		c.state = domain.StateIdle
		c.result = domain.Result{}
		c.logger.Debug("waypoints not routable", "usable", len(snap.Usable()))
		return
	}
	c.begin(snap.Usable(), c.selector.Profile())
}

func (c *Controller) begin(points []waypoint.LatLng, p profile.Profile) {
	c.nextID++
	now := c.clock.Now()
	c.current = domain.Session{
		ID:        c.nextID,
		Waypoints: points,
		Profile:   p,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.hasCurrent = true
	c.result = domain.Result{}
	c.state = domain.StateComputing

	req := domain.Request{
		SessionID:    c.current.ID,
		Profile:      p,
		ServicePath:  p.ServicePath(),
		Waypoints:    points,
		Alternatives: c.alternatives,
	}
	c.acquireControl(domain.ControlSpec{
		SessionID:        req.SessionID,
		Profile:          p,
		ServicePath:      req.ServicePath,
		Waypoints:        points,
		ShowAlternatives: c.alternatives,
		Collapsible:      true,
	})
	c.record("")

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel
	c.logger.Debug("route requested", "session_id", req.SessionID, "service_path", req.ServicePath, "waypoints", len(points))
	c.launcher.Launch(ctx, req)
}

// teardown supersedes the live session and releases its control.
func (c *Controller) teardown() {
	c.releaseContext()
	if c.hasCurrent && c.current.Status.Live() {
		c.transition(domain.StatusSuperseded, "")
	}
	c.releaseControl()
}

func (c *Controller) render() {
	if !c.hasHandle {
		return
	}
	for i, alt := range c.result.Alternatives {
		if !c.spec.ShowAlternatives {
			break
		}
		c.surface.DrawLine(c.handle, domain.Line{
			RouteIndex:  i + 1,
			Alternative: true,
			Geometry:    alt.Geometry,
			Styles:      domain.AlternativeStyles(),
		})
	}
	c.surface.DrawLine(c.handle, domain.Line{
		Geometry: c.result.Primary.Geometry,
		Styles:   domain.PrimaryStyles(),
	})
	n := len(c.current.Waypoints)
	for i, pos := range c.current.Waypoints {
		role := marker.IconFor(i, n)
		c.surface.PlaceMarker(c.handle, domain.Marker{
			Index:     i,
			Role:      role,
			Position:  pos,
			Icon:      marker.IconSpec(role),
			Draggable: true,
		})
	}
}

func (c *Controller) acquireControl(spec domain.ControlSpec) {
	c.releaseControl()
	c.handle = c.surface.AddControl(spec)
	c.hasHandle = true
	c.spec = spec
}

func (c *Controller) releaseControl() {
	if !c.hasHandle {
		return
	}
	c.surface.RemoveControl(c.handle)
	c.hasHandle = false
}

func (c *Controller) releaseContext() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) transition(status domain.SessionStatus, detail string) {
	c.current.Status = status
	c.current.Err = detail
	c.current.UpdatedAt = c.clock.Now()
	c.record(detail)
}

func (c *Controller) record(detail string) {
	if c.log == nil {
		return
	}
	rec := domain.SessionRecord{
		RunID:     c.runID,
		SessionID: c.current.ID,
		Profile:   c.current.Profile,
		Waypoints: c.current.Waypoints,
		Status:    c.current.Status,
		Detail:    detail,
		DistanceM: c.result.Primary.DistanceM,
		DurationS: c.result.Primary.DurationS,
		UpdatedAt: c.current.UpdatedAt,
	}
	if err := c.log.Record(c.baseCtx, rec); err != nil {
		c.logger.Warn("record route session", "session_id", rec.SessionID, "error", err)
	}
}
