package itinerary

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	marker "mapdirect/internal/modules/marker/domain"
	profile "mapdirect/internal/modules/profile/domain"
	"mapdirect/internal/modules/route/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/ui/theme"
)

// Input is the state the panel renders.
type Input struct {
	Profile   profile.Profile
	Waypoints waypoint.Snapshot
	Route     domain.View
}

// Model is the directions side panel: profile selector, waypoint slots,
// route state and summaries.
type Model struct {
	spinner spinner.Model
	width   int
	height  int
}

func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)
	return Model{spinner: sp}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) View(in Input) string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Directions") + "\n\n")
	sb.WriteString(renderProfiles(in.Profile) + "\n\n")

	n := len(in.Waypoints)
	for i, w := range in.Waypoints {
		role := marker.IconFor(i, n)
		glyph := glyphStyle(role).Render(marker.Glyph(role))
		if w.Pending {
			sb.WriteString(fmt.Sprintf("%s %d %s\n", glyph, i, theme.Muted.Render(marker.Placeholder(i, n))))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %d %s\n", glyph, i, w.Position))
	}
	sb.WriteString("\n" + m.stateLine(in.Route) + "\n")

	if in.Route.State == domain.StateRendered {
		sb.WriteString("\n")
		primary := in.Route.Result.Primary
		sb.WriteString(theme.RoutePrimary.Render("Route ") + summary(primary) + "\n")
		if primary.Name != "" {
			sb.WriteString(theme.Muted.Render("  via "+primary.Name) + "\n")
		}
		for i, alt := range in.Route.Result.Alternatives {
			sb.WriteString(theme.RouteAlternative.Render(fmt.Sprintf("Alt %d ", i+1)) + summary(alt) + "\n")
		}
	}

	style := theme.Pane
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(strings.TrimRight(sb.String(), "\n"))
}

func (m Model) stateLine(v domain.View) string {
	switch v.State {
	case domain.StateComputing:
		return m.spinner.View() + " computing route…"
	case domain.StateRendered:
		return theme.Hot.Render("route ready")
	case domain.StateFailed:
		msg := "route failed"
		if v.Err != "" {
			msg += ": " + v.Err
		}
		return theme.Bad.Render(msg)
	}
	return theme.Muted.Render("set a start and an end")
}

func renderProfiles(current profile.Profile) string {
	parts := make([]string, 0, len(profile.All()))
	for _, p := range profile.All() {
		if p == current {
			parts = append(parts, theme.Hot.Render("["+p.Label()+"]"))
		} else {
			parts = append(parts, theme.Muted.Render(" "+p.Label()+" "))
		}
	}
	return strings.Join(parts, " ")
}

func glyphStyle(role waypoint.Role) lipgloss.Style {
	switch role {
	case waypoint.RoleStart:
		return theme.MarkerStart
	case waypoint.RoleEnd:
		return theme.MarkerEnd
	}
	return theme.MarkerVia
}

func summary(p domain.Path) string {
	return FormatDistance(p.DistanceM) + " · " + FormatDuration(p.DurationS)
}

func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func FormatDuration(seconds float64) string {
	mins := int(math.Round(seconds / 60))
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%d h %d min", mins/60, mins%60)
}
