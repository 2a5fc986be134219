package out

import (
	"sort"

	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
)

// Overlay is everything one route control contributed to the map.
type Overlay struct {
	Handle  domain.ControlHandle
	Spec    domain.ControlSpec
	Lines   []domain.Line
	Markers []domain.Marker
}

// OverlaySurface is the in-memory overlay registry of a single map. The
// terminal renderer draws from it; it is not safe for concurrent use.
type OverlaySurface struct {
	next     domain.ControlHandle
	controls map[domain.ControlHandle]*Overlay
	peak     int
}

var _ routeout.Surface = (*OverlaySurface)(nil)

func NewOverlaySurface() *OverlaySurface {
	return &OverlaySurface{controls: map[domain.ControlHandle]*Overlay{}}
}

func (s *OverlaySurface) AddControl(spec domain.ControlSpec) domain.ControlHandle {
	s.next++
	s.controls[s.next] = &Overlay{Handle: s.next, Spec: spec}
	if len(s.controls) > s.peak {
		s.peak = len(s.controls)
	}
	return s.next
}

func (s *OverlaySurface) RemoveControl(h domain.ControlHandle) {
	delete(s.controls, h)
}

func (s *OverlaySurface) ClearControl(h domain.ControlHandle) {
	if o, ok := s.controls[h]; ok {
		o.Lines = nil
		o.Markers = nil
	}
}

func (s *OverlaySurface) DrawLine(h domain.ControlHandle, line domain.Line) {
	if o, ok := s.controls[h]; ok {
		o.Lines = append(o.Lines, line)
	}
}

func (s *OverlaySurface) PlaceMarker(h domain.ControlHandle, m domain.Marker) {
	if o, ok := s.controls[h]; ok {
		o.Markers = append(o.Markers, m)
	}
}

// Controls returns the registered overlays ordered by registration.
func (s *OverlaySurface) Controls() []Overlay {
	out := make([]Overlay, 0, len(s.controls))
	for _, o := range s.controls {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Lines returns all drawn lines, alternatives before primaries.
func (s *OverlaySurface) Lines() []domain.Line {
	var out []domain.Line
	for _, o := range s.Controls() {
		out = append(out, o.Lines...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Alternative && !out[j].Alternative })
	return out
}

func (s *OverlaySurface) Markers() []domain.Marker {
	var out []domain.Marker
	for _, o := range s.Controls() {
		out = append(out, o.Markers...)
	}
	return out
}

// Collapsible reports whether every registered control lets the directions
// panel collapse. An empty map always does.
func (s *OverlaySurface) Collapsible() bool {
	for _, o := range s.controls {
		if !o.Spec.Collapsible {
			return false
		}
	}
	return true
}

// PeakControls is the highest number of controls ever registered at once.
func (s *OverlaySurface) PeakControls() int { return s.peak }
