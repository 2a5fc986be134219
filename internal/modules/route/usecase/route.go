package usecase

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/paulmach/orb/geojson"

	marker "mapdirect/internal/modules/marker/domain"
	profile "mapdirect/internal/modules/profile/domain"
	"mapdirect/internal/modules/route/domain"
	"mapdirect/internal/modules/route/dto"
	routein "mapdirect/internal/modules/route/port/in"
	routeout "mapdirect/internal/modules/route/port/out"
	"mapdirect/internal/modules/route/service"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/platform/clock"
	apperrors "mapdirect/internal/platform/errors"
	"mapdirect/internal/platform/id"
)

type Interactor struct {
	router  routeout.Router
	surface routeout.Surface
	log     routeout.SessionLog
	clock   clock.Clock
	ids     id.Generator
	logger  hclog.Logger
}

func NewInteractor(
	router routeout.Router,
	surface routeout.Surface,
	log routeout.SessionLog,
	clk clock.Clock,
	ids id.Generator,
	logger hclog.Logger,
) routein.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{router: router, surface: surface, log: log, clock: clk, ids: ids, logger: logger}
}

type pendingTask struct {
	ctx context.Context
	req domain.Request
}

type pendingLauncher struct {
	tasks []pendingTask
}

func (l *pendingLauncher) Launch(ctx context.Context, req domain.Request) {
	l.tasks = append(l.tasks, pendingTask{ctx: ctx, req: req})
}

// Plan drives one controller through a complete session and reports what it
// rendered.
func (i *Interactor) Plan(ctx context.Context, input dto.PlanInput) (dto.PlanOutput, error) {
	p := profile.DefaultProfile
	if input.Profile != "" {
		parsed, err := profile.ParseProfile(input.Profile)
		if err != nil {
			return dto.PlanOutput{}, err
		}
		p = parsed
	}
	from, to := toLatLng(input.From), toLatLng(input.To)
	vias := make([]waypoint.LatLng, 0, len(input.Vias))
	for _, v := range input.Vias {
		vias = append(vias, toLatLng(v))
	}
	for _, pt := range append([]waypoint.LatLng{from, to}, vias...) {
		if !pt.Valid() {
			return dto.PlanOutput{}, fmt.Errorf("%w: coordinate %s out of range", apperrors.ErrInvalidInput, pt)
		}
	}

	runID := i.ids.New()
	store := waypoint.NewStore()
	selector := profile.NewSelector()
	selector.SetProfile(p)
	launcher := &pendingLauncher{}
	ctrl := service.NewController(store, selector, i.surface, launcher, i.log, i.clock, runID, i.logger)
	defer ctrl.Close()

	// the store only becomes routable once the end is set, so this launches once
	store.SetWaypoint(waypoint.RoleStart, from)
	for _, v := range vias {
		store.InsertVia(v)
	}
	store.SetWaypoint(waypoint.RoleEnd, to)

	var routeErr error
	for len(launcher.tasks) > 0 {
		tasks := launcher.tasks
		launcher.tasks = nil
		for _, task := range tasks {
			if task.ctx.Err() != nil {
				continue
			}
			res, err := i.route(ctx, task)
			if ctrl.Complete(domain.Completion{SessionID: task.req.SessionID, Result: res, Err: err}) && err != nil {
				routeErr = err
			}
		}
	}

	view := ctrl.View()
	out := planOutput(runID, view)
	if view.State == domain.StateFailed {
		return out, fmt.Errorf("plan route: %w", routeErr)
	}
	if view.State != domain.StateRendered {
		return out, fmt.Errorf("plan route: session ended in state %s", view.State)
	}
	collection, err := featureCollection(view)
	if err != nil {
		return out, err
	}
	out.GeoJSON = collection
	return out, nil
}

// route runs a task under both the caller's context and the session's.
func (i *Interactor) route(ctx context.Context, task pendingTask) (domain.Result, error) {
	runCtx, cancel := context.WithCancel(task.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return i.router.Route(runCtx, task.req)
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.SessionOutput, error) {
	if i.log == nil {
		return []dto.SessionOutput{}, nil
	}
	records, err := i.log.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionOutput, 0, len(records))
	for _, rec := range records {
		points := make([]dto.Point, 0, len(rec.Waypoints))
		for _, w := range rec.Waypoints {
			points = append(points, dto.Point{Lat: w.Lat, Lng: w.Lng})
		}
		out = append(out, dto.SessionOutput{
			RunID:     rec.RunID,
			SessionID: rec.SessionID,
			Profile:   string(rec.Profile),
			Status:    string(rec.Status),
			Waypoints: points,
			DistanceM: rec.DistanceM,
			DurationS: rec.DurationS,
			Detail:    rec.Detail,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

func (i *Interactor) Profiles() []dto.ProfileOutput {
	all := profile.All()
	out := make([]dto.ProfileOutput, 0, len(all))
	for _, p := range all {
		out = append(out, dto.ProfileOutput{
			Name:        string(p),
			Label:       p.Label(),
			ServicePath: p.ServicePath(),
			Default:     p == profile.DefaultProfile,
		})
	}
	return out
}

func toLatLng(p dto.Point) waypoint.LatLng {
	return waypoint.LatLng{Lat: p.Lat, Lng: p.Lng}
}

func planOutput(runID string, view domain.View) dto.PlanOutput {
	out := dto.PlanOutput{
		RunID:     runID,
		SessionID: view.Session.ID,
		Profile:   string(view.Session.Profile),
		State:     string(view.State),
	}
	if view.HasSession {
		out.ServicePath = view.Session.Profile.ServicePath()
	}
	if view.State != domain.StateRendered {
		return out
	}
	out.Primary = pathOutput(view.Result.Primary)
	for _, alt := range view.Result.Alternatives {
		out.Alternatives = append(out.Alternatives, pathOutput(alt))
	}
	n := len(view.Session.Waypoints)
	for idx, pos := range view.Session.Waypoints {
		role := marker.IconFor(idx, n)
		out.Markers = append(out.Markers, dto.MarkerOutput{
			Index:    idx,
			Role:     string(role),
			Lat:      pos.Lat,
			Lng:      pos.Lng,
			ImageURL: marker.IconSpec(role).ImageURL,
		})
	}
	return out
}

func pathOutput(p domain.Path) dto.PathOutput {
	return dto.PathOutput{Name: p.Name, DistanceM: p.DistanceM, DurationS: p.DurationS, Points: len(p.Geometry)}
}

// featureCollection exports the rendered route the way the map draws it:
// alternatives, then the primary line, then one point per marker.
func featureCollection(view domain.View) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for idx, alt := range view.Result.Alternatives {
		fc.Append(lineFeature(alt, idx+1, domain.AlternativeStyles()))
	}
	fc.Append(lineFeature(view.Result.Primary, 0, domain.PrimaryStyles()))
	n := len(view.Session.Waypoints)
	for idx, pos := range view.Session.Waypoints {
		role := marker.IconFor(idx, n)
		f := geojson.NewFeature(pos.Point())
		f.Properties["role"] = string(role)
		f.Properties["icon"] = marker.IconSpec(role).ImageURL
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

func lineFeature(p domain.Path, routeIndex int, styles []domain.LineStyle) *geojson.Feature {
	f := geojson.NewFeature(p.Geometry)
	f.Properties["route_index"] = routeIndex
	f.Properties["alternative"] = routeIndex > 0
	f.Properties["distance_m"] = p.DistanceM
	f.Properties["duration_s"] = p.DurationS
	if len(styles) > 0 {
		f.Properties["stroke"] = styles[0].Color
		f.Properties["stroke-width"] = styles[0].Weight
		f.Properties["stroke-opacity"] = styles[0].Opacity
	}
	if dash, ok := domain.Dashed(styles); ok {
		f.Properties["dash_array"] = dash
	}
	if p.Name != "" {
		f.Properties["name"] = p.Name
	}
	return f
}
