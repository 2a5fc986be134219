package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	routecli "mapdirect/internal/modules/route/adapter/in"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

type paletteCommand struct {
	name  string
	args  string
	point bool // the argument is a lat,lng pair
}

// paletteCommands must stay in sync with the switch in app/model.go executePalette.
var paletteCommands = []paletteCommand{
	{name: "from", args: "<lat,lng>", point: true},
	{name: "to", args: "<lat,lng>", point: true},
	{name: "via", args: "<lat,lng>", point: true},
	{name: "clear", args: "<start|end|all|index>"},
	{name: "move", args: "<index> <lat,lng>"},
	{name: "reverse"},
	{name: "profile", args: "<car|bike|foot>"},
	{name: "zoom", args: "<in|out|level>"},
	{name: "goto", args: "<lat,lng>", point: true},
	{name: "retry"},
}

func (c paletteCommand) hint() string {
	if c.args == "" {
		return c.name
	}
	return c.name + " " + c.args
}

// Palette is a command-palette overlay backed by bubbles/textinput. Tab
// completes the command name and then fills coordinate arguments with the
// anchor, normally the map crosshair.
type Palette struct {
	input     textinput.Model
	visible   bool
	width     int
	anchor    waypoint.LatLng
	hasAnchor bool
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab completes"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Value is the current, untrimmed input.
func (p Palette) Value() string { return p.input.Value() }

// Open shows the palette, clears the input, and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// SetAnchor sets the coordinate offered when completing a lat,lng argument.
func (p *Palette) SetAnchor(at waypoint.LatLng) {
	p.anchor = at
	p.hasAnchor = at.Valid()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			p.complete()
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// complete extends the input: a unique command prefix becomes the command,
// and an empty coordinate argument becomes the anchor.
func (p *Palette) complete() {
	val := p.input.Value()
	fields := strings.Fields(val)
	switch {
	case len(fields) == 0:
		return
	case len(fields) == 1 && !strings.HasSuffix(val, " "):
		matches := matchCommands(fields[0])
		if len(matches) == 1 {
			p.setValue(matches[0].name + " ")
		}
	case len(fields) == 1:
		cmd, ok := lookupCommand(fields[0])
		if ok && cmd.point && p.hasAnchor {
			p.setValue(cmd.name + " " + p.anchor.String())
		}
	}
}

func (p *Palette) setValue(v string) {
	p.input.SetValue(v)
	p.input.CursorEnd()
}

func matchCommands(prefix string) []paletteCommand {
	prefix = strings.ToLower(prefix)
	var out []paletteCommand
	for _, c := range paletteCommands {
		if strings.HasPrefix(c.name, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func lookupCommand(name string) (paletteCommand, bool) {
	name = strings.ToLower(name)
	for _, c := range paletteCommands {
		if c.name == name {
			return c, true
		}
	}
	return paletteCommand{}, false
}

// preview describes the coordinate argument typed so far.
func (p Palette) preview() (string, bool) {
	fields := strings.Fields(p.input.Value())
	if len(fields) == 0 {
		return "", false
	}
	cmd, ok := lookupCommand(fields[0])
	if !ok || !cmd.point {
		return "", false
	}
	if len(fields) == 1 {
		if p.hasAnchor {
			return "tab: " + p.anchor.String(), true
		}
		return "", false
	}
	pt, err := routecli.ParsePoint(strings.Join(fields[1:], ""))
	if err != nil {
		return "expects lat,lng", false
	}
	at := waypoint.LatLng{Lat: pt.Lat, Lng: pt.Lng}
	if !at.Valid() {
		return "coordinate out of range", false
	}
	return "→ " + at.String(), true
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var matching []paletteCommand
	if fields := strings.Fields(p.input.Value()); len(fields) > 0 {
		matching = matchCommands(fields[0])
	} else {
		matching = paletteCommands
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if text, ok := p.preview(); text != "" {
		style := theme.Muted
		if !ok {
			style = theme.Bad
		}
		sb.WriteString(style.Render("  "+text) + "\n")
	}
	if len(matching) > 0 {
		sb.WriteString("\n")
		for _, c := range matching[:min(len(matching), 5)] {
			sb.WriteString(hintStyle.Render("  "+c.hint()) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
