package out

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	apperrors "mapdirect/internal/platform/errors"
)

const osrmProfile = "driving"

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry *geojson.Geometry `json:"geometry"`
	Legs     []struct {
		Summary string `json:"summary"`
	} `json:"legs"`
}

// OSRMRouter talks to an OSRM v1 route service. The profile's service path
// selects the backend; the OSRM profile segment itself is always "driving".
type OSRMRouter struct {
	serviceURL func(servicePath string) string
	client     *http.Client
	logger     hclog.Logger
}

// NewOSRMRouter builds a router. A zero timeout leaves requests unbounded.
func NewOSRMRouter(serviceURL func(servicePath string) string, timeout time.Duration, logger hclog.Logger) routeout.Router {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &OSRMRouter{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.Named("osrm"),
	}
}

func (r *OSRMRouter) Route(ctx context.Context, req domain.Request) (domain.Result, error) {
	if len(req.Waypoints) < 2 {
		return domain.Result{}, fmt.Errorf("%w: need at least two waypoints", apperrors.ErrInvalidInput)
	}
	endpoint := r.requestURL(req)
	r.logger.Debug("route request", "session_id", req.SessionID, "url", endpoint)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Result{}, fmt.Errorf("create route request: %w", err)
	}
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", apperrors.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	payload := osrmResponse{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode != http.StatusOK && (decodeErr != nil || payload.Code == "") {
		return domain.Result{}, fmt.Errorf("%w: status %d", apperrors.ErrBackendFailure, resp.StatusCode)
	}
	if decodeErr != nil {
		return domain.Result{}, fmt.Errorf("%w: decode response: %v", apperrors.ErrBackendFailure, decodeErr)
	}
	switch payload.Code {
	case "Ok":
	case "NoRoute":
		return domain.Result{}, fmt.Errorf("%w: %s", apperrors.ErrNoRoute, payload.Message)
	default:
		return domain.Result{}, fmt.Errorf("%w: %s: %s", apperrors.ErrBackendFailure, payload.Code, payload.Message)
	}
	if len(payload.Routes) == 0 {
		return domain.Result{}, apperrors.ErrNoRoute
	}

	paths := make([]domain.Path, 0, len(payload.Routes))
	for i, route := range payload.Routes {
		path, err := toPath(route)
		if err != nil {
			return domain.Result{}, fmt.Errorf("%w: route %d: %v", apperrors.ErrBackendFailure, i, err)
		}
		paths = append(paths, path)
	}
	return domain.Result{Primary: paths[0], Alternatives: paths[1:]}, nil
}

func (r *OSRMRouter) requestURL(req domain.Request) string {
	base := strings.TrimRight(r.serviceURL(req.ServicePath), "/")
	query := url.Values{}
	query.Set("overview", "full")
	query.Set("alternatives", strconv.FormatBool(req.Alternatives))
	query.Set("steps", "false")
	query.Set("geometries", "geojson")
	return base + "/" + osrmProfile + "/" + formatCoordinates(req.Waypoints) + "?" + query.Encode()
}

func formatCoordinates(points []waypoint.LatLng) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	return strings.Join(parts, ";")
}

func toPath(route osrmRoute) (domain.Path, error) {
	if route.Geometry == nil {
		return domain.Path{}, fmt.Errorf("missing geometry")
	}
	line, ok := route.Geometry.Coordinates.(orb.LineString)
	if !ok {
		return domain.Path{}, fmt.Errorf("unexpected geometry %s", route.Geometry.Type)
	}
	names := make([]string, 0, len(route.Legs))
	for _, leg := range route.Legs {
		if leg.Summary != "" {
			names = append(names, leg.Summary)
		}
	}
	return domain.Path{
		Name:      strings.Join(names, ", "),
		Geometry:  line,
		DistanceM: route.Distance,
		DurationS: route.Duration,
	}, nil
}
