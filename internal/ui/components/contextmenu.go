package components

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	menu "mapdirect/internal/modules/contextmenu/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/ui/theme"
)

// MenuChoiceMsg is emitted when a context menu entry is picked.
type MenuChoiceMsg struct {
	Intent menu.Intent
	At     waypoint.LatLng
}

// MenuCancelMsg is emitted when the menu closes without a choice.
type MenuCancelMsg struct{}

var menuStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(theme.Lavender).
	Background(theme.Mantle).
	Foreground(theme.Text)

const menuWidth = 20

type menuItem struct{ item menu.Item }

func (i menuItem) FilterValue() string { return i.item.Label }

type menuDelegate struct{}

func (menuDelegate) Height() int                         { return 1 }
func (menuDelegate) Spacing() int                        { return 0 }
func (menuDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (menuDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(menuItem)
	if !ok {
		return
	}
	label := fmt.Sprintf(" %-*s", menuWidth-1, it.item.Label)
	if index == m.Index() {
		fmt.Fprint(w, theme.Hot.Reverse(true).Render(label))
		return
	}
	fmt.Fprint(w, label)
}

// ContextMenu is the map's right-click menu. It remembers the cell it was
// opened on and the coordinate under it.
type ContextMenu struct {
	list    list.Model
	visible bool
	at      waypoint.LatLng
	cellX   int
	cellY   int
}

func NewContextMenu() ContextMenu {
	entries := menu.Intents()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = menuItem{item: e}
	}
	l := list.New(items, menuDelegate{}, menuWidth, len(items))
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return ContextMenu{list: l}
}

func (c ContextMenu) Visible() bool { return c.visible }

// Position is the map cell the menu was opened on.
func (c ContextMenu) Position() (int, int) { return c.cellX, c.cellY }

func (c *ContextMenu) Open(at waypoint.LatLng, cellX, cellY int) {
	c.visible = true
	c.at = at
	c.cellX = cellX
	c.cellY = cellY
	c.list.Select(0)
}

func (c *ContextMenu) Close() { c.visible = false }

// Choose picks the entry at index and closes the menu.
func (c *ContextMenu) Choose(index int) tea.Cmd {
	items := c.list.Items()
	if index < 0 || index >= len(items) {
		return nil
	}
	c.visible = false
	choice := MenuChoiceMsg{Intent: items[index].(menuItem).item.Intent, At: c.at}
	return func() tea.Msg { return choice }
}

// ItemAt maps a row offset inside the rendered menu to an entry index.
func (c ContextMenu) ItemAt(row int) (int, bool) {
	index := row - 1 // top border
	if index < 0 || index >= len(c.list.Items()) {
		return 0, false
	}
	return index, true
}

func (c ContextMenu) Update(msg tea.Msg) (ContextMenu, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "q":
			c.visible = false
			return c, func() tea.Msg { return MenuCancelMsg{} }
		case "enter":
			cmd := c.Choose(c.list.Index())
			return c, cmd
		}
	}
	var cmd tea.Cmd
	c.list, cmd = c.list.Update(msg)
	return c, cmd
}

func (c ContextMenu) View() string {
	if !c.visible {
		return ""
	}
	return menuStyle.Render(c.list.View())
}
