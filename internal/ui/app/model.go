package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	hclog "github.com/hashicorp/go-hclog"

	menu "mapdirect/internal/modules/contextmenu/domain"
	marker "mapdirect/internal/modules/marker/domain"
	profile "mapdirect/internal/modules/profile/domain"
	routecli "mapdirect/internal/modules/route/adapter/in"
	routeadapter "mapdirect/internal/modules/route/adapter/out"
	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/platform/clock"
	"mapdirect/internal/ui/components"
	"mapdirect/internal/ui/theme"
	"mapdirect/internal/ui/views/itinerary"
	"mapdirect/internal/ui/views/mapview"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type routeController interface {
	Complete(done domain.Completion) bool
	Sync()
	View() domain.View
	ShowAlternatives() bool
	SetShowAlternatives(show bool)
}

type launchQueue interface {
	Drain() []routeadapter.Task
}

type overlaySource interface {
	Lines() []domain.Line
	Markers() []domain.Marker
	Collapsible() bool
}

type menuDispatcher interface {
	Dispatch(intent menu.Intent, at waypoint.LatLng)
}

// Deps is everything the bootstrap wires into the model. The store,
// selector and viewport are shared with the controller and dispatcher.
type Deps struct {
	Store        *waypoint.Store
	Selector     *profile.Selector
	Controller   routeController
	Queue        launchQueue
	Router       routeout.Router
	Overlay      overlaySource
	Viewport     *mapview.Viewport
	Dispatcher   menuDispatcher
	Clock        clock.Clock
	DragInterval time.Duration
	Logger       hclog.Logger
}

// ─── async messages ───────────────────────────────────────────────────────────

type routeComputedMsg struct {
	done domain.Completion
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Palette      key.Binding
	Menu         key.Binding
	Drop         key.Binding
	Profile      key.Binding
	Reverse      key.Binding
	Retry        key.Binding
	Alternatives key.Binding
	Panel        key.Binding
	Pan          key.Binding
	Zoom         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Palette:      key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Menu:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu at crosshair")),
		Drop:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop marker")),
		Profile:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next profile")),
		Reverse:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse")),
		Retry:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry")),
		Alternatives: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "alternatives")),
		Panel:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "hide directions")),
		Pan:          key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("←↑↓→", "pan")),
		Zoom:         key.NewBinding(key.WithKeys("+", "=", "-"), key.WithHelp("+/-", "zoom")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Palette, k.Menu, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Drop, k.Menu, k.Palette},
		{k.Profile, k.Reverse, k.Retry},
		{k.Alternatives, k.Panel},
		{k.Pan, k.Zoom},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

const (
	panelWidth   = 36
	headerHeight = 1
	footerHeight = 1
)

type dragState struct {
	active  bool
	index   int
	applied time.Time
	last    waypoint.LatLng
	moved   bool
}

// Model is the root Bubble Tea model. Update is the single event loop the
// route controller runs on: route computations leave it as commands and
// come back as routeComputedMsg.
type Model struct {
	deps   Deps
	logger hclog.Logger

	itinerary itinerary.Model
	palette   components.Palette
	menu      components.ContextMenu

	keys      keyMap
	help      help.Model
	showHelp  bool
	collapsed bool
	drag      dragState
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	return Model{
		deps:      deps,
		logger:    logger.Named("ui"),
		itinerary: itinerary.New(),
		palette:   components.NewPalette(),
		menu:      components.NewContextMenu(),
		keys:      defaultKeys(),
		help:      help.New(),
		status:    "right-click the map or press m for directions",
	}
}

func (m Model) Init() tea.Cmd {
	m.deps.Controller.Sync()
	return tea.Batch(m.itinerary.Init(), m.drainLaunches())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// messages that must never be swallowed by an open overlay
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case routeComputedMsg:
		if !m.deps.Controller.Complete(msg.done) {
			m.logger.Debug("dropped stale route result", "session_id", msg.done.SessionID)
			return m, nil
		}
		m.status = routeStatus(m.deps.Controller.View())
		m.syncPanel()
		return m, m.drainLaunches()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.itinerary, cmd = m.itinerary.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		m = m.executePalette(msg.Input)
		return m, m.drainLaunches()

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case components.MenuChoiceMsg:
		m.deps.Dispatcher.Dispatch(msg.Intent, msg.At)
		m.status = msg.Intent.Label() + " " + msg.At.String()
		return m, m.drainLaunches()

	case components.MenuCancelMsg:
		return m, nil
	}

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	if m.menu.Visible() {
		if mouse, ok := msg.(tea.MouseMsg); ok {
			return m.menuMouse(mouse)
		}
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m = m.handleMouse(msg)

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "?":
			m.showHelp = true
		case ":":
			cx, cy := m.crosshair()
			m.palette.SetAnchor(m.deps.Viewport.LatLngAt(cx, cy))
			return m, m.palette.Open()
		case "m":
			cx, cy := m.crosshair()
			m.menu.Open(m.deps.Viewport.LatLngAt(cx, cy), cx, cy)
		case "enter":
			m = m.dropAtCrosshair()
		case "p":
			m.deps.Selector.SetProfile(m.deps.Selector.Profile().Next())
			m.status = "profile: " + m.deps.Selector.Profile().Label()
		case "r":
			m.deps.Store.Reverse()
			m.status = "reversed"
		case "R":
			m.deps.Controller.Sync()
			m.status = "retrying"
		case "a":
			show := !m.deps.Controller.ShowAlternatives()
			m.deps.Controller.SetShowAlternatives(show)
			m.status = "alternatives off"
			if show {
				m.status = "alternatives on"
			}
		case "tab":
			m.togglePanel()
		case "up":
			m.deps.Viewport.Pan(0, -2)
		case "down":
			m.deps.Viewport.Pan(0, 2)
		case "left":
			m.deps.Viewport.Pan(-4, 0)
		case "right":
			m.deps.Viewport.Pan(4, 0)
		case "+", "=":
			m.deps.Viewport.ZoomIn()
		case "-":
			m.deps.Viewport.ZoomOut()
		}
	}

	m.syncPanel()
	cmds = append(cmds, m.drainLaunches())
	return m, tea.Batch(cmds...)
}

// drainLaunches turns queued route computations into commands. Each runs off
// the event loop and reports back through routeComputedMsg.
func (m Model) drainLaunches() tea.Cmd {
	tasks := m.deps.Queue.Drain()
	if len(tasks) == 0 {
		return nil
	}
	router := m.deps.Router
	cmds := make([]tea.Cmd, 0, len(tasks))
	for _, task := range tasks {
		task := task
		cmds = append(cmds, func() tea.Msg {
			return routeComputedMsg{done: task.Run(router)}
		})
	}
	return tea.Batch(cmds...)
}

// ─── mouse ───────────────────────────────────────────────────────────────────

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	cx, cy, inside := m.mapCell(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if !inside {
			return m
		}
		switch msg.Button {
		case tea.MouseButtonRight:
			m.menu.Open(m.deps.Viewport.LatLngAt(cx, cy), cx, cy)
		case tea.MouseButtonLeft:
			if idx, ok := m.waypointAt(cx, cy); ok {
				m.drag = dragState{active: true, index: idx}
				m.status = fmt.Sprintf("dragging waypoint %d", idx)
			}
		case tea.MouseButtonWheelUp:
			m.deps.Viewport.ZoomIn()
		case tea.MouseButtonWheelDown:
			m.deps.Viewport.ZoomOut()
		}

	case tea.MouseActionMotion:
		if !m.drag.active || !inside {
			return m
		}
		m.drag.last = m.deps.Viewport.LatLngAt(cx, cy)
		m.drag.moved = true
		now := m.deps.Clock.Now()
		if !m.drag.applied.IsZero() && now.Sub(m.drag.applied) < m.deps.DragInterval {
			return m
		}
		m.moveDragged(now)

	case tea.MouseActionRelease:
		if !m.drag.active {
			return m
		}
		if inside {
			m.drag.last = m.deps.Viewport.LatLngAt(cx, cy)
			m.drag.moved = true
		}
		if m.drag.moved {
			m.moveDragged(m.deps.Clock.Now())
		}
		m.status = fmt.Sprintf("moved waypoint %d", m.drag.index)
		m.drag = dragState{}
	}
	return m
}

func (m *Model) moveDragged(now time.Time) {
	if !m.drag.last.Valid() {
		return
	}
	m.deps.Store.MoveWaypoint(m.drag.index, m.drag.last)
	m.drag.applied = now
	m.drag.moved = false
}

func (m Model) menuMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	x0, y0, _, _ := m.mapRect()
	mx, my := m.menu.Position()
	view := m.menu.View()
	px, py := mapview.PopupOrigin(m.deps.Viewport, view, mx, my)
	inMenu := msg.X >= x0+px && msg.X < x0+px+lipgloss.Width(view) &&
		msg.Y >= y0+py && msg.Y < y0+py+lipgloss.Height(view)
	if inMenu && msg.Button == tea.MouseButtonLeft {
		if idx, ok := m.menu.ItemAt(msg.Y - y0 - py); ok {
			return m, m.menu.Choose(idx)
		}
		return m, nil
	}
	m.menu.Close()
	if msg.Button == tea.MouseButtonRight {
		if cx, cy, ok := m.mapCell(msg.X, msg.Y); ok {
			m.menu.Open(m.deps.Viewport.LatLngAt(cx, cy), cx, cy)
		}
	}
	return m, nil
}

// waypointAt finds the draggable marker drawn at or next to a cell and
// returns its waypoint index.
func (m Model) waypointAt(cx, cy int) (int, bool) {
	best, bestDist := -1, 3
	for _, mk := range m.markers() {
		if !mk.Draggable {
			continue
		}
		wx, wy, ok := m.deps.Viewport.Cell(mk.Position)
		if !ok {
			continue
		}
		d := abs(wx-cx) + abs(wy-cy)
		if d < bestDist {
			best, bestDist = mk.Index, d
		}
	}
	return best, best >= 0
}

// ─── waypoint actions ────────────────────────────────────────────────────────

// dropAtCrosshair fills the first empty slot with the crosshair position.
func (m Model) dropAtCrosshair() Model {
	cx, cy := m.crosshair()
	at := m.deps.Viewport.LatLngAt(cx, cy)
	if !at.Valid() {
		m.status = "crosshair is off the map"
		return m
	}
	snap := m.deps.Store.Snapshot()
	for i, w := range snap {
		if !w.Pending {
			continue
		}
		switch i {
		case 0:
			m.deps.Store.SetWaypoint(waypoint.RoleStart, at)
		case len(snap) - 1:
			m.deps.Store.SetWaypoint(waypoint.RoleEnd, at)
		default:
			m.deps.Store.MoveWaypoint(i, at)
		}
		m.status = fmt.Sprintf("dropped %s at %s", marker.IconFor(i, len(snap)), at)
		return m
	}
	m.status = "all waypoints set; use :via to add one"
	return m
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) Model {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m
	}
	store := m.deps.Store

	switch parts[0] {
	case "from", "to", "via", "goto":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <lat,lng>"
			return m
		}
		at, ok := m.parsePoint(strings.Join(parts[1:], ""))
		if !ok {
			return m
		}
		switch parts[0] {
		case "from":
			store.SetWaypoint(waypoint.RoleStart, at)
		case "to":
			store.SetWaypoint(waypoint.RoleEnd, at)
		case "via":
			store.InsertVia(at)
		case "goto":
			m.deps.Viewport.SetCenter(at)
		}
		m.status = parts[0] + " " + at.String()

	case "clear":
		if len(parts) < 2 {
			m.status = "usage: clear <start|end|all|index>"
			return m
		}
		m.clear(parts[1])

	case "move":
		if len(parts) < 3 {
			m.status = "usage: move <index> <lat,lng>"
			return m
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 || idx >= store.Len() {
			m.status = "invalid waypoint index: " + parts[1]
			return m
		}
		at, ok := m.parsePoint(strings.Join(parts[2:], ""))
		if !ok {
			return m
		}
		store.MoveWaypoint(idx, at)
		m.status = fmt.Sprintf("moved waypoint %d", idx)

	case "reverse":
		store.Reverse()
		m.status = "reversed"

	case "profile":
		if len(parts) < 2 {
			m.status = "usage: profile <car|bike|foot>"
			return m
		}
		p, err := profile.ParseProfile(parts[1])
		if err != nil {
			m.status = err.Error()
			return m
		}
		m.deps.Selector.SetProfile(p)
		m.status = "profile: " + p.Label()

	case "zoom":
		if len(parts) < 2 {
			m.status = "usage: zoom <in|out|level>"
			return m
		}
		switch parts[1] {
		case "in":
			m.deps.Viewport.ZoomIn()
		case "out":
			m.deps.Viewport.ZoomOut()
		default:
			level, err := strconv.Atoi(parts[1])
			if err != nil {
				m.status = "invalid zoom: " + parts[1]
				return m
			}
			m.deps.Viewport.SetZoom(level)
		}
		m.status = fmt.Sprintf("zoom %d", m.deps.Viewport.Zoom())

	case "retry":
		m.deps.Controller.Sync()
		m.status = "retrying"

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m
}

func (m *Model) clear(target string) {
	store := m.deps.Store
	switch target {
	case "start":
		store.ClearWaypoint(waypoint.RoleStart)
	case "end":
		store.ClearWaypoint(waypoint.RoleEnd)
	case "all":
		for store.Len() > 2 {
			store.RemoveVia(1)
		}
		store.ClearWaypoint(waypoint.RoleStart)
		store.ClearWaypoint(waypoint.RoleEnd)
	default:
		idx, err := strconv.Atoi(target)
		if err != nil || idx < 0 || idx >= store.Len() {
			m.status = "invalid waypoint: " + target
			return
		}
		switch idx {
		case 0:
			store.ClearWaypoint(waypoint.RoleStart)
		case store.Len() - 1:
			store.ClearWaypoint(waypoint.RoleEnd)
		default:
			store.RemoveVia(idx)
		}
	}
	m.status = "cleared " + target
}

func (m *Model) parsePoint(raw string) (waypoint.LatLng, bool) {
	p, err := routecli.ParsePoint(raw)
	if err != nil {
		m.status = err.Error()
		return waypoint.LatLng{}, false
	}
	at := waypoint.LatLng{Lat: p.Lat, Lng: p.Lng}
	if !at.Valid() {
		m.status = "coordinate out of range: " + raw
		return waypoint.LatLng{}, false
	}
	return at, true
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	_, _, _, mapH := m.mapRect()

	var body string
	switch {
	case m.showHelp:
		body = lipgloss.NewStyle().Width(m.width).Height(mapH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		body = lipgloss.Place(m.width, mapH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.collapsed:
		body = mapview.Render(m.deps.Viewport, m.scene())
	default:
		panel := m.itinerary.View(itinerary.Input{
			Profile:   m.deps.Selector.Profile(),
			Waypoints: m.deps.Store.Snapshot(),
			Route:     m.deps.Controller.View(),
		})
		body = lipgloss.JoinHorizontal(lipgloss.Top, panel, mapview.Render(m.deps.Viewport, m.scene()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) scene() mapview.Scene {
	cx, cy := m.crosshair()
	s := mapview.Scene{
		Lines:      m.deps.Overlay.Lines(),
		Markers:    m.markers(),
		CursorX:    cx,
		CursorY:    cy,
		ShowCursor: true,
		ShowScale:  true,
	}
	if m.menu.Visible() {
		s.Popup = m.menu.View()
		s.PopupX, s.PopupY = m.menu.Position()
	}
	return s
}

// markers is what the map shows for the waypoints: the route control's
// markers, or plain pins while no route has been drawn yet.
func (m Model) markers() []domain.Marker {
	out := m.deps.Overlay.Markers()
	state := m.deps.Controller.View().State
	if len(out) == 0 && (state == domain.StateIdle || state == domain.StateComputing) {
		out = pins(m.deps.Store.Snapshot())
	}
	return out
}

// pins shows entered waypoints before a route has been drawn for them.
func pins(snap waypoint.Snapshot) []domain.Marker {
	var out []domain.Marker
	for i, w := range snap {
		if w.Pending {
			continue
		}
		role := marker.IconFor(i, len(snap))
		out = append(out, domain.Marker{Index: i, Role: role, Position: w.Position, Icon: marker.IconSpec(role), Draggable: true})
	}
	return out
}

func (m Model) renderHeader() string {
	v := m.deps.Viewport
	bar := theme.Hot.Render("mapdirect") + "  " +
		m.deps.Selector.Profile().Label() + "  " +
		theme.Muted.Render(fmt.Sprintf("z%d  %s", v.Zoom(), v.Center()))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  m:menu  :::palette  tab:panel  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func routeStatus(v domain.View) string {
	switch v.State {
	case domain.StateRendered:
		p := v.Result.Primary
		return fmt.Sprintf("route: %s, %s", itinerary.FormatDistance(p.DistanceM), itinerary.FormatDuration(p.DurationS))
	case domain.StateFailed:
		return "route failed: " + v.Err
	}
	return string(v.State)
}

// ─── layout ──────────────────────────────────────────────────────────────────

// mapRect is the map's screen rectangle; it must match View's layout.
func (m Model) mapRect() (x, y, w, h int) {
	x = panelWidth
	if m.collapsed {
		x = 0
	}
	w = max(m.width-x, 1)
	h = max(m.height-headerHeight-footerHeight, 1)
	return x, headerHeight, w, h
}

// togglePanel hides or shows the directions panel. A route control that is
// not collapsible keeps it open.
func (m *Model) togglePanel() {
	if !m.collapsed && !m.deps.Overlay.Collapsible() {
		m.status = "directions panel is pinned"
		return
	}
	m.collapsed = !m.collapsed
	m.status = "directions shown"
	if m.collapsed {
		m.status = "directions hidden"
	}
	m.propagateSize()
}

// syncPanel reopens the panel once a pinned control is on the map.
func (m *Model) syncPanel() {
	if m.collapsed && !m.deps.Overlay.Collapsible() {
		m.collapsed = false
		m.propagateSize()
	}
}

func (m Model) mapCell(sx, sy int) (int, int, bool) {
	x, y, w, h := m.mapRect()
	cx, cy := sx-x, sy-y
	return cx, cy, cx >= 0 && cy >= 0 && cx < w && cy < h
}

func (m Model) crosshair() (int, int) {
	_, _, w, h := m.mapRect()
	return w / 2, h / 2
}

func (m *Model) propagateSize() {
	_, _, w, h := m.mapRect()
	m.deps.Viewport.Resize(w, h)
	m.itinerary.SetSize(panelWidth, h)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
