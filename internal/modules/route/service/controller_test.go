package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/paulmach/orb"

	profile "mapdirect/internal/modules/profile/domain"
	routeout "mapdirect/internal/modules/route/adapter/out"
	"mapdirect/internal/modules/route/domain"
	"mapdirect/internal/modules/route/service"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	apperrors "mapdirect/internal/platform/errors"
)

var (
	start = waypoint.LatLng{Lat: 21.03, Lng: 105.80}
	end   = waypoint.LatLng{Lat: 21.05, Lng: 105.82}
	via   = waypoint.LatLng{Lat: 21.04, Lng: 105.81}
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

type memoryLog struct {
	records []domain.SessionRecord
	err     error
}

func (m *memoryLog) Record(_ context.Context, rec domain.SessionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryLog) List(context.Context, int) ([]domain.SessionRecord, error) {
	return m.records, nil
}

// liveSessions replays the log and counts sessions whose latest status is live.
func (m *memoryLog) liveSessions() int {
	latest := map[uint64]domain.SessionStatus{}
	for _, rec := range m.records {
		latest[rec.SessionID] = rec.Status
	}
	live := 0
	for _, status := range latest {
		if status.Live() {
			live++
		}
	}
	return live
}

type harness struct {
	store    *waypoint.Store
	selector *profile.Selector
	surface  *routeout.OverlaySurface
	launcher *routeout.QueueLauncher
	log      *memoryLog
	ctrl     *service.Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    waypoint.NewStore(),
		selector: profile.NewSelector(),
		surface:  routeout.NewOverlaySurface(),
		launcher: routeout.NewQueueLauncher(),
		log:      &memoryLog{},
	}
	h.ctrl = service.NewController(h.store, h.selector, h.surface, h.launcher, h.log,
		&fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}, "run-1", nil)
	t.Cleanup(h.ctrl.Close)
	return h
}

// resultFor builds a result whose geometry identifies the session it was made for.
func resultFor(id uint64, alternatives int) domain.Result {
	line := func(k int) orb.LineString {
		return orb.LineString{{105.80, 21.03}, {105.81 + float64(k)*0.001, 21.04 + float64(id)*0.0001}, {105.82, 21.05}}
	}
	res := domain.Result{Primary: domain.Path{Name: "primary", Geometry: line(0), DistanceM: 3200, DurationS: 420}}
	for k := 1; k <= alternatives; k++ {
		res.Alternatives = append(res.Alternatives, domain.Path{Geometry: line(k), DistanceM: 3500})
	}
	return res
}

func primaryLine(t *testing.T, s *routeout.OverlaySurface) domain.Line {
	t.Helper()
	for _, l := range s.Lines() {
		if !l.Alternative {
			return l
		}
	}
	t.Fatalf("no primary line drawn")
	return domain.Line{}
}

func TestCarScenarioIssuesOneRequestAndRenders(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.store.SetWaypoint(waypoint.RoleStart, start)
	if h.ctrl.State() != domain.StateIdle || h.launcher.Len() != 0 {
		t.Fatalf("start only must stay idle without a request")
	}
	h.store.SetWaypoint(waypoint.RoleEnd, end)

	tasks := h.launcher.Drain()
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(tasks))
	}
	req := tasks[0].Request
	if req.ServicePath != "routed-car" || req.Profile != profile.ProfileCar {
		t.Fatalf("unexpected request target: %+v", req)
	}
	if len(req.Waypoints) != 2 || req.Waypoints[0] != start || req.Waypoints[1] != end {
		t.Fatalf("unexpected waypoints: %v", req.Waypoints)
	}
	if h.ctrl.State() != domain.StateComputing {
		t.Fatalf("expected computing, got %s", h.ctrl.State())
	}

	if !h.ctrl.Complete(domain.Completion{SessionID: req.SessionID, Result: resultFor(req.SessionID, 1)}) {
		t.Fatalf("current completion must be applied")
	}
	if h.ctrl.State() != domain.StateRendered {
		t.Fatalf("expected rendered, got %s", h.ctrl.State())
	}
	markers := h.surface.Markers()
	if len(markers) != 2 || markers[0].Role != waypoint.RoleStart || markers[1].Role != waypoint.RoleEnd {
		t.Fatalf("expected start and end markers, got %+v", markers)
	}
	lines := h.surface.Lines()
	if len(lines) != 2 || !lines[0].Alternative || lines[1].Alternative {
		t.Fatalf("expected one alternative then the primary, got %+v", lines)
	}
	if dash, ok := domain.Dashed(lines[0].Styles); !ok || dash != "2,4" {
		t.Fatalf("alternative line must be dashed")
	}
	if _, ok := domain.Dashed(lines[1].Styles); ok {
		t.Fatalf("primary line must not be dashed")
	}
	session, ok := h.ctrl.Current()
	if !ok || session.Status != domain.StatusActive {
		t.Fatalf("expected active session, got %+v", session)
	}
}

func TestProfileSwitchBeforeResolveDiscardsFirstResult(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	first := h.launcher.Drain()[0]

	h.selector.SetProfile(profile.ProfileBike)
	tasks := h.launcher.Drain()
	if len(tasks) != 1 || tasks[0].Request.ServicePath != "routed-bike" {
		t.Fatalf("expected one bike request, got %+v", tasks)
	}
	second := tasks[0]
	if first.Ctx.Err() == nil {
		t.Fatalf("superseded request context should be cancelled")
	}

	if h.ctrl.Complete(domain.Completion{SessionID: first.Request.SessionID, Result: resultFor(first.Request.SessionID, 0)}) {
		t.Fatalf("stale completion must be discarded")
	}
	if h.ctrl.State() != domain.StateComputing || len(h.surface.Lines()) != 0 {
		t.Fatalf("stale completion must not change state or render")
	}

	h.ctrl.Complete(domain.Completion{SessionID: second.Request.SessionID, Result: resultFor(second.Request.SessionID, 0)})
	want := resultFor(second.Request.SessionID, 0).Primary.Geometry
	if got := primaryLine(t, h.surface).Geometry; !orb.Equal(got, want) {
		t.Fatalf("rendered geometry is not the bike result: %v", got)
	}

	if h.ctrl.Complete(domain.Completion{SessionID: first.Request.SessionID, Err: errors.New("late failure")}) {
		t.Fatalf("late stale failure must be discarded")
	}
	if h.ctrl.State() != domain.StateRendered {
		t.Fatalf("late stale failure changed state to %s", h.ctrl.State())
	}
	if s, _ := h.ctrl.Current(); s.Profile != profile.ProfileBike {
		t.Fatalf("current session should be bike, got %s", s.Profile)
	}
}

func TestClearingWaypointReturnsToIdleAndRemovesGeometry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.ClearWaypoint(waypoint.RoleStart)
	if h.ctrl.State() != domain.StateIdle || len(h.surface.Controls()) != 0 {
		t.Fatalf("start set then cleared must stay idle with nothing drawn")
	}

	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	task := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: task.Request.SessionID, Result: resultFor(1, 1)})
	if len(h.surface.Lines()) == 0 {
		t.Fatalf("expected rendered geometry")
	}

	h.store.ClearWaypoint(waypoint.RoleEnd)
	if h.ctrl.State() != domain.StateIdle {
		t.Fatalf("expected idle after regression, got %s", h.ctrl.State())
	}
	if len(h.surface.Controls()) != 0 || len(h.surface.Lines()) != 0 || len(h.surface.Markers()) != 0 {
		t.Fatalf("prior geometry and markers must be removed")
	}
	if s, _ := h.ctrl.Current(); s.Status != domain.StatusSuperseded {
		t.Fatalf("torn down session should be superseded, got %s", s.Status)
	}
	if h.launcher.Len() != 0 {
		t.Fatalf("idle transition must not launch")
	}
}

func TestBackendFailureClearsGeometryAndMarkers(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	ok := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: ok.Request.SessionID, Result: resultFor(1, 0)})

	h.store.MoveWaypoint(1, waypoint.LatLng{Lat: 21.06, Lng: 105.83})
	failing := h.launcher.Drain()[0]
	backendErr := errors.Join(apperrors.ErrBackendFailure, errors.New("status 502"))
	if !h.ctrl.Complete(domain.Completion{SessionID: failing.Request.SessionID, Err: backendErr}) {
		t.Fatalf("failure for the current session must be applied")
	}

	view := h.ctrl.View()
	if view.State != domain.StateFailed || view.Err == "" {
		t.Fatalf("expected failed view with error, got %+v", view)
	}
	if len(h.surface.Lines()) != 0 || len(h.surface.Markers()) != 0 {
		t.Fatalf("failed session must show no geometry and no markers")
	}
	if len(h.surface.Controls()) != 1 {
		t.Fatalf("failed session keeps its control registered until the next change")
	}

	h.ctrl.Sync()
	retry := h.launcher.Drain()
	if len(retry) != 1 || retry[0].Request.SessionID <= failing.Request.SessionID {
		t.Fatalf("retry must issue a new session, got %+v", retry)
	}
	if h.ctrl.State() != domain.StateComputing {
		t.Fatalf("expected computing after retry, got %s", h.ctrl.State())
	}
}

func TestMarkersFollowIconPolicyWithVia(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	h.store.InsertVia(via)
	tasks := h.launcher.Drain()
	last := tasks[len(tasks)-1]
	if len(last.Request.Waypoints) != 3 || last.Request.Waypoints[1] != via {
		t.Fatalf("via should be routed in order: %v", last.Request.Waypoints)
	}
	h.ctrl.Complete(domain.Completion{SessionID: last.Request.SessionID, Result: resultFor(last.Request.SessionID, 0)})

	markers := h.surface.Markers()
	roles := []waypoint.Role{waypoint.RoleStart, waypoint.RoleVia, waypoint.RoleEnd}
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}
	for i, m := range markers {
		if m.Role != roles[i] || m.Index != i || !m.Draggable {
			t.Fatalf("marker %d: unexpected %+v", i, m)
		}
	}
	if markers[1].Icon.ImageURL != "images/marker-via-icon-2x.png" {
		t.Fatalf("via marker icon: %s", markers[1].Icon.ImageURL)
	}
}

func TestCloseReleasesControlAndDetaches(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	task := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: task.Request.SessionID, Result: resultFor(1, 0)})

	h.ctrl.Close()
	if len(h.surface.Controls()) != 0 {
		t.Fatalf("close must deregister the control")
	}
	if h.ctrl.State() != domain.StateIdle {
		t.Fatalf("expected idle after close, got %s", h.ctrl.State())
	}
	h.store.SetWaypoint(waypoint.RoleEnd, via)
	h.selector.SetProfile(profile.ProfileFoot)
	if h.launcher.Len() != 0 {
		t.Fatalf("closed controller must not react to changes")
	}
	if last := h.log.records[len(h.log.records)-1]; last.Status != domain.StatusSuperseded {
		t.Fatalf("expected final superseded record, got %s", last.Status)
	}
}

func TestSessionLogFailureDoesNotAffectState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.log.err = errors.New("disk full")
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	task := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: task.Request.SessionID, Result: resultFor(1, 0)})
	if h.ctrl.State() != domain.StateRendered {
		t.Fatalf("log errors must be swallowed, got state %s", h.ctrl.State())
	}
}

func TestSessionLogRecordsLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	first := h.launcher.Drain()[0]
	h.selector.SetProfile(profile.ProfileFoot)
	second := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: second.Request.SessionID, Result: resultFor(2, 0)})

	want := []struct {
		id     uint64
		status domain.SessionStatus
	}{
		{first.Request.SessionID, domain.StatusPending},
		{first.Request.SessionID, domain.StatusSuperseded},
		{second.Request.SessionID, domain.StatusPending},
		{second.Request.SessionID, domain.StatusActive},
	}
	if len(h.log.records) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), h.log.records)
	}
	for i, w := range want {
		got := h.log.records[i]
		if got.SessionID != w.id || got.Status != w.status || got.RunID != "run-1" {
			t.Fatalf("record %d: got %+v want %+v", i, got, w)
		}
	}
	if active := h.log.records[3]; active.DistanceM != 3200 || active.Profile != profile.ProfileFoot {
		t.Fatalf("active record should carry route summary: %+v", active)
	}
}

func TestSupersededRecordKeepsRenderedSummary(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	task := h.launcher.Drain()[0]
	h.ctrl.Complete(domain.Completion{SessionID: task.Request.SessionID, Result: resultFor(1, 0)})
	h.store.InsertVia(via)

	var superseded, next []domain.SessionRecord
	for _, rec := range h.log.records {
		switch {
		case rec.SessionID == task.Request.SessionID && rec.Status == domain.StatusSuperseded:
			superseded = append(superseded, rec)
		case rec.SessionID != task.Request.SessionID:
			next = append(next, rec)
		}
	}
	if len(superseded) != 1 || superseded[0].DistanceM != 3200 || superseded[0].DurationS != 420 {
		t.Fatalf("superseded record lost the route summary: %+v", superseded)
	}
	if len(next) != 1 || next[0].Status != domain.StatusPending || next[0].DistanceM != 0 {
		t.Fatalf("new session must start without a summary: %+v", next)
	}
}

func TestHiddenAlternativesAreNotRequestedOrDrawn(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.store.SetWaypoint(waypoint.RoleStart, start)
	h.store.SetWaypoint(waypoint.RoleEnd, end)
	first := h.launcher.Drain()[0]
	if !first.Request.Alternatives {
		t.Fatalf("alternatives are requested by default")
	}

	h.ctrl.SetShowAlternatives(false)
	tasks := h.launcher.Drain()
	if len(tasks) != 1 || tasks[0].Request.Alternatives || tasks[0].Request.SessionID == first.Request.SessionID {
		t.Fatalf("toggling alternatives should start a new session without them: %+v", tasks)
	}
	h.ctrl.Complete(domain.Completion{SessionID: tasks[0].Request.SessionID, Result: resultFor(2, 2)})
	if lines := h.surface.Lines(); len(lines) != 1 || lines[0].Alternative {
		t.Fatalf("only the primary route should be drawn, got %+v", lines)
	}
	if ctrls := h.surface.Controls(); len(ctrls) != 1 || ctrls[0].Spec.ShowAlternatives {
		t.Fatalf("control should be registered without alternatives: %+v", ctrls)
	}

	h.ctrl.SetShowAlternatives(false)
	if len(h.launcher.Drain()) != 0 {
		t.Fatalf("setting the same value must not recompute")
	}
}

func TestRandomEditsKeepOneLiveSessionAndLatestRender(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	h := newHarness(t)
	points := []waypoint.LatLng{start, end, via, {Lat: 21.02, Lng: 105.79}, {Lat: 21.06, Lng: 105.85}}
	var inFlight []routeout.Task

	for step := 0; step < 400; step++ {
		switch rng.Intn(8) {
		case 0:
			h.store.SetWaypoint(waypoint.RoleStart, points[rng.Intn(len(points))])
		case 1:
			h.store.SetWaypoint(waypoint.RoleEnd, points[rng.Intn(len(points))])
		case 2:
			h.store.ClearWaypoint(waypoint.RoleEnd)
		case 3:
			h.store.MoveWaypoint(rng.Intn(h.store.Len()), points[rng.Intn(len(points))])
		case 4:
			h.selector.SetProfile(profile.All()[rng.Intn(3)])
		case 5:
			h.store.Reverse()
		default:
			if len(inFlight) > 0 {
				i := rng.Intn(len(inFlight))
				task := inFlight[i]
				inFlight = append(inFlight[:i], inFlight[i+1:]...)
				var err error
				if rng.Intn(5) == 0 {
					err = apperrors.ErrBackendFailure
				}
				h.ctrl.Complete(domain.Completion{SessionID: task.Request.SessionID, Result: resultFor(task.Request.SessionID, rng.Intn(3)), Err: err})
			}
		}
		inFlight = append(inFlight, h.launcher.Drain()...)

		if n := len(h.surface.Controls()); n > 1 {
			t.Fatalf("step %d: %d controls registered", step, n)
		}
		if live := h.log.liveSessions(); live > 1 {
			t.Fatalf("step %d: %d live sessions", step, live)
		}
		if h.ctrl.State() == domain.StateRendered {
			current, _ := h.ctrl.Current()
			want := resultFor(current.ID, 0).Primary.Geometry
			if got := primaryLine(t, h.surface).Geometry; !orb.Equal(got, want) {
				t.Fatalf("step %d: rendered geometry does not belong to session %d", step, current.ID)
			}
		}
	}
	if h.surface.PeakControls() > 1 {
		t.Fatalf("peak controls %d", h.surface.PeakControls())
	}
}
