package mapview

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	marker "mapdirect/internal/modules/marker/domain"
	"mapdirect/internal/modules/route/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/ui/theme"
)

const (
	kindEmpty = iota
	kindAlternative
	kindPrimary
	kindVia
	kindStart
	kindEnd
	kindCursor
	kindScale
)

var kindStyles = map[int]lipgloss.Style{
	kindEmpty:       lipgloss.NewStyle(),
	kindAlternative: theme.RouteAlternative,
	kindPrimary:     theme.RoutePrimary,
	kindVia:         theme.MarkerVia,
	kindStart:       theme.MarkerStart,
	kindEnd:         theme.MarkerEnd,
	kindCursor:      theme.Cursor,
	kindScale:       theme.Muted,
}

// Scene is everything drawn on the map in one frame. Popup, if set, is
// pre-rendered text placed over the map near PopupX, PopupY.
type Scene struct {
	Lines      []domain.Line
	Markers    []domain.Marker
	CursorX    int
	CursorY    int
	ShowCursor bool
	ShowScale  bool
	Popup      string
	PopupX     int
	PopupY     int
}

// PopupOrigin is where a popup anchored at cell x, y is drawn so that it
// stays inside the viewport.
func PopupOrigin(v *Viewport, popup string, x, y int) (int, int) {
	w, h := v.Size()
	pw, ph := lipgloss.Width(popup), lipgloss.Height(popup)
	x = max(min(x, w-pw), 0)
	y = max(min(y, h-ph), 0)
	return x, y
}

type cell struct {
	r    rune
	kind int
}

// Render draws the scene as v.Size() rows of styled text.
func Render(v *Viewport, s Scene) string {
	w, h := v.Size()
	if w <= 0 || h <= 0 {
		return ""
	}
	c := newCanvas(w, h)
	for _, l := range s.Lines {
		kind := kindPrimary
		if l.Alternative {
			kind = kindAlternative
		}
		dash := dashPattern(l.Styles)
		step := 0
		for i := 1; i < len(l.Geometry); i++ {
			x0, y0 := v.ToDot(l.Geometry[i-1])
			x1, y1 := v.ToDot(l.Geometry[i])
			c.line(x0, y0, x1, y1, kind, dash, &step)
		}
	}

	grid := make([][]cell, h)
	for y := range grid {
		grid[y] = make([]cell, w)
		for x := range grid[y] {
			r, ok := c.glyph(x, y)
			if ok {
				grid[y][x] = cell{r: r, kind: c.kind[y][x]}
			} else {
				grid[y][x] = cell{r: ' '}
			}
		}
	}
	if s.ShowScale {
		drawScale(v, grid)
	}
	for _, m := range s.Markers {
		cx, cy, ok := v.Cell(m.Position)
		if !ok {
			continue
		}
		grid[cy][cx] = cell{r: []rune(marker.Glyph(m.Role))[0], kind: markerKind(m.Role)}
	}
	if s.ShowCursor && s.CursorX >= 0 && s.CursorY >= 0 && s.CursorX < w && s.CursorY < h {
		cur := &grid[s.CursorY][s.CursorX]
		if cur.kind == kindEmpty {
			cur.r = '+'
		}
		cur.kind = kindCursor
	}

	var popup []string
	px, py := 0, 0
	if s.Popup != "" {
		popup = strings.Split(s.Popup, "\n")
		px, py = PopupOrigin(v, s.Popup, s.PopupX, s.PopupY)
	}
	rows := make([]string, h)
	for y, row := range grid {
		i := y - py
		if i < 0 || i >= len(popup) {
			rows[y] = renderRow(row)
			continue
		}
		end := min(px+lipgloss.Width(popup[i]), w)
		rows[y] = renderRow(row[:px]) + popup[i] + renderRow(row[end:])
	}
	return strings.Join(rows, "\n")
}

// renderRow styles runs of same-kind cells together.
func renderRow(row []cell) string {
	var sb strings.Builder
	var run []rune
	kind := kindEmpty
	flush := func() {
		if len(run) == 0 {
			return
		}
		if kind == kindEmpty {
			sb.WriteString(string(run))
		} else {
			sb.WriteString(kindStyles[kind].Render(string(run)))
		}
		run = run[:0]
	}
	for _, c := range row {
		if c.kind != kind {
			flush()
			kind = c.kind
		}
		run = append(run, c.r)
	}
	flush()
	return sb.String()
}

func markerKind(role waypoint.Role) int {
	switch role {
	case waypoint.RoleStart:
		return kindStart
	case waypoint.RoleEnd:
		return kindEnd
	}
	return kindVia
}

func dashPattern(styles []domain.LineStyle) []int {
	raw, ok := domain.Dashed(styles)
	if !ok {
		return nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil
		}
		out = append(out, n)
	}
	return out
}
