package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	waypoint "mapdirect/internal/modules/waypoint/domain"
)

const (
	earthCircumference = 2 * math.Pi * 6378137
	tileSize           = 256
	// one braille dot covers 4x4 tile pixels, so a 2x4 dot cell is 8x16 px
	pixelsPerDot = 4
	maxLatitude  = 85.0511
)

// Viewport is the visible window of the map in terminal cells.
type Viewport struct {
	center  waypoint.LatLng
	zoom    int
	minZoom int
	maxZoom int
	width   int
	height  int
}

func NewViewport(center waypoint.LatLng, zoom, minZoom, maxZoom int) *Viewport {
	v := &Viewport{center: center, minZoom: minZoom, maxZoom: maxZoom}
	v.SetZoom(zoom)
	return v
}

func (v *Viewport) Center() waypoint.LatLng { return v.center }
func (v *Viewport) Zoom() int               { return v.zoom }
func (v *Viewport) Size() (int, int)        { return v.width, v.height }

func (v *Viewport) Resize(width, height int) {
	v.width = max(width, 0)
	v.height = max(height, 0)
}

func (v *Viewport) SetZoom(z int) {
	v.zoom = min(max(z, v.minZoom), v.maxZoom)
}

func (v *Viewport) ZoomIn()  { v.SetZoom(v.zoom + 1) }
func (v *Viewport) ZoomOut() { v.SetZoom(v.zoom - 1) }

// SetCenter moves the map; latitude is clamped to the Mercator range and
// longitude wrapped into [-180, 180].
func (v *Viewport) SetCenter(p waypoint.LatLng) {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat))
	lng := math.Mod(p.Lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	v.center = waypoint.LatLng{Lat: lat, Lng: lng - 180}
}

// Pan shifts the center by whole cells.
func (v *Viewport) Pan(dx, dy int) {
	c := project.WGS84.ToMercator(v.center.Point())
	res := v.metersPerDot()
	c[0] += float64(dx*2) * res
	c[1] -= float64(dy*4) * res
	v.SetCenter(waypoint.FromPoint(project.Mercator.ToWGS84(c)))
}

func (v *Viewport) metersPerDot() float64 {
	return earthCircumference / (tileSize * math.Exp2(float64(v.zoom))) * pixelsPerDot
}

// ToDot projects a coordinate onto the braille dot grid; cells are 2x4 dots.
func (v *Viewport) ToDot(p orb.Point) (float64, float64) {
	m := project.WGS84.ToMercator(p)
	c := project.WGS84.ToMercator(v.center.Point())
	res := v.metersPerDot()
	x := (m[0]-c[0])/res + float64(v.width*2)/2
	y := (c[1]-m[1])/res + float64(v.height*4)/2
	return x, y
}

// Cell returns the terminal cell showing p, if it is on screen.
func (v *Viewport) Cell(p waypoint.LatLng) (int, int, bool) {
	x, y := v.ToDot(p.Point())
	cx, cy := int(math.Floor(x/2)), int(math.Floor(y/4))
	if cx < 0 || cy < 0 || cx >= v.width || cy >= v.height {
		return cx, cy, false
	}
	return cx, cy, true
}

// LatLngAt unprojects the middle of a cell. Results beyond the world edge
// are returned as-is and fail LatLng.Valid.
func (v *Viewport) LatLngAt(cx, cy int) waypoint.LatLng {
	c := project.WGS84.ToMercator(v.center.Point())
	res := v.metersPerDot()
	dx := float64(cx*2+1) - float64(v.width*2)/2
	dy := float64(cy*4+2) - float64(v.height*4)/2
	m := orb.Point{c[0] + dx*res, c[1] - dy*res}
	return waypoint.FromPoint(project.Mercator.ToWGS84(m))
}
