package mapview

import (
	"math"
	"math/bits"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	marker "mapdirect/internal/modules/marker/domain"
	"mapdirect/internal/modules/route/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"
)

var hanoi = waypoint.LatLng{Lat: 21.028511, Lng: 105.804817}

func newTestViewport() *Viewport {
	v := NewViewport(hanoi, 13, 3, 18)
	v.Resize(80, 24)
	return v
}

func TestViewportZoomIsClamped(t *testing.T) {
	t.Parallel()
	v := NewViewport(hanoi, 25, 3, 18)
	if v.Zoom() != 18 {
		t.Fatalf("expected zoom clamped to 18, got %d", v.Zoom())
	}
	v.ZoomIn()
	if v.Zoom() != 18 {
		t.Fatalf("zoom in past max should stay at 18, got %d", v.Zoom())
	}
	for i := 0; i < 30; i++ {
		v.ZoomOut()
	}
	if v.Zoom() != 3 {
		t.Fatalf("zoom out past min should stay at 3, got %d", v.Zoom())
	}
}

func TestViewportCellRoundTrip(t *testing.T) {
	t.Parallel()
	v := newTestViewport()
	cx, cy, ok := v.Cell(hanoi)
	if !ok || cx != 40 || cy != 12 {
		t.Fatalf("center should sit in the middle cell, got %d,%d %v", cx, cy, ok)
	}
	p := waypoint.LatLng{Lat: 21.05, Lng: 105.82}
	cx, cy, ok = v.Cell(p)
	if !ok {
		t.Fatalf("nearby point should be visible")
	}
	back := v.LatLngAt(cx, cy)
	gx, gy, _ := v.Cell(back)
	if gx != cx || gy != cy {
		t.Fatalf("unprojected point should map back to the same cell: %d,%d vs %d,%d", gx, gy, cx, cy)
	}
	if math.Abs(back.Lat-p.Lat) > 0.01 || math.Abs(back.Lng-p.Lng) > 0.01 {
		t.Fatalf("unprojected point too far: %v vs %v", back, p)
	}
}

func TestViewportPanAndCenterBounds(t *testing.T) {
	t.Parallel()
	v := newTestViewport()
	v.Pan(5, 0)
	if v.Center().Lng <= hanoi.Lng || math.Abs(v.Center().Lat-hanoi.Lat) > 1e-9 {
		t.Fatalf("panning right should move east only: %v", v.Center())
	}
	v.Pan(0, -5)
	if v.Center().Lat <= hanoi.Lat {
		t.Fatalf("panning up should move north: %v", v.Center())
	}
	v.SetCenter(waypoint.LatLng{Lat: 89, Lng: 190})
	if c := v.Center(); c.Lat > 85.06 || math.Abs(c.Lng-(-170)) > 1e-9 {
		t.Fatalf("center should clamp latitude and wrap longitude: %v", c)
	}
}

func TestLatLngAtBeyondWorldEdgeIsInvalid(t *testing.T) {
	t.Parallel()
	v := NewViewport(waypoint.LatLng{}, 3, 3, 18)
	v.Resize(400, 40)
	if v.LatLngAt(0, 20).Valid() {
		t.Fatalf("cells past the antimeridian should not unproject to a valid point")
	}
	if !v.LatLngAt(200, 20).Valid() {
		t.Fatalf("center cell should be valid")
	}
}

func litDots(c *canvas) int {
	n := 0
	for _, row := range c.mask {
		for _, m := range row {
			n += bits.OnesCount8(m)
		}
	}
	return n
}

func TestCanvasDashAndClip(t *testing.T) {
	t.Parallel()
	solid := newCanvas(40, 2)
	step := 0
	solid.line(0, 2, 59, 2, kindPrimary, nil, &step)
	if litDots(solid) != 60 {
		t.Fatalf("solid line should light 60 dots, got %d", litDots(solid))
	}

	dashed := newCanvas(40, 2)
	step = 0
	dashed.line(0, 2, 59, 2, kindAlternative, []int{2, 4}, &step)
	if litDots(dashed) != 20 {
		t.Fatalf("2,4 dash over 60 dots should light 20, got %d", litDots(dashed))
	}

	huge := newCanvas(40, 2)
	step = 0
	huge.line(-1e9, 5, 1e9, 5, kindPrimary, nil, &step)
	if litDots(huge) != 80 {
		t.Fatalf("clipped line should span the row, got %d", litDots(huge))
	}
	if step > 100 {
		t.Fatalf("clipping should bound the walk, took %d steps", step)
	}

	off := newCanvas(40, 2)
	step = 0
	off.line(-50, -50, -10, -20, kindPrimary, nil, &step)
	if litDots(off) != 0 || step != 0 {
		t.Fatalf("off-screen segment should draw nothing")
	}
}

func TestRenderDrawsRouteMarkersAndCursor(t *testing.T) {
	t.Parallel()
	v := newTestViewport()
	start := waypoint.LatLng{Lat: 21.02, Lng: 105.79}
	end := waypoint.LatLng{Lat: 21.035, Lng: 105.82}
	scene := Scene{
		Lines: []domain.Line{{
			Geometry: orb.LineString{start.Point(), end.Point()},
			Styles:   domain.PrimaryStyles(),
		}},
		Markers: []domain.Marker{
			{Index: 0, Role: waypoint.RoleStart, Position: start, Icon: marker.IconSpec(waypoint.RoleStart)},
			{Index: 1, Role: waypoint.RoleEnd, Position: end, Icon: marker.IconSpec(waypoint.RoleEnd)},
		},
		CursorX:    0,
		CursorY:    0,
		ShowCursor: true,
	}
	out := Render(v, scene)
	rows := strings.Split(out, "\n")
	if len(rows) != 24 {
		t.Fatalf("expected 24 rows, got %d", len(rows))
	}
	if !strings.Contains(out, "S") || !strings.Contains(out, "E") {
		t.Fatalf("expected start and end glyphs")
	}
	if !strings.Contains(out, "+") {
		t.Fatalf("expected crosshair")
	}
	braille := false
	for _, r := range out {
		if r > 0x2800 && r <= 0x28ff {
			braille = true
			break
		}
	}
	if !braille {
		t.Fatalf("expected braille dots for the route line")
	}
}

func TestRenderEmptyViewport(t *testing.T) {
	t.Parallel()
	v := NewViewport(hanoi, 13, 3, 18)
	if Render(v, Scene{}) != "" {
		t.Fatalf("zero-size viewport should render nothing")
	}
}

func TestScaleBarPicksRoundDistances(t *testing.T) {
	t.Parallel()
	cases := []struct {
		center   waypoint.LatLng
		zoom     int
		maxCells int
		cells    int
		label    string
	}{
		{center: waypoint.LatLng{}, zoom: 13, maxCells: 20, cells: 13, label: "2 km"},
		{center: waypoint.LatLng{Lat: 60}, zoom: 13, maxCells: 20, cells: 13, label: "1 km"},
		{center: hanoi, zoom: 13, maxCells: 20, cells: 14, label: "2 km"},
		{center: hanoi, zoom: 18, maxCells: 20, cells: 11, label: "50 m"},
		{center: hanoi, zoom: 3, maxCells: 20, cells: 14, label: "2000 km"},
		{center: waypoint.LatLng{}, zoom: 13, maxCells: 5, cells: 3, label: "500 m"},
	}
	for _, tc := range cases {
		v := NewViewport(tc.center, tc.zoom, 3, 18)
		cells, label := ScaleBar(v, tc.maxCells)
		if cells != tc.cells || label != tc.label {
			t.Fatalf("%v z%d: got %d cells %q, want %d cells %q", tc.center, tc.zoom, cells, label, tc.cells, tc.label)
		}
	}
	if cells, label := ScaleBar(newTestViewport(), 0); cells != 0 || label != "" {
		t.Fatalf("no room should give no scale, got %d %q", cells, label)
	}
}

func TestRenderDrawsScaleInBottomLeft(t *testing.T) {
	t.Parallel()
	v := newTestViewport()
	rows := strings.Split(Render(v, Scene{ShowScale: true}), "\n")
	last := rows[len(rows)-1]
	if !strings.Contains(last, "└────────────┘ 2 km") {
		t.Fatalf("bottom row should carry a 14 cell scale bar, got %q", last)
	}
	if strings.Contains(Render(v, Scene{}), "km") {
		t.Fatalf("scale is only drawn when requested")
	}

	narrow := NewViewport(hanoi, 13, 3, 18)
	narrow.Resize(6, 3)
	if strings.Contains(Render(narrow, Scene{ShowScale: true}), "└") {
		t.Fatalf("scale must be skipped when it does not fit")
	}
}
