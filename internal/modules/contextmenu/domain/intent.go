package domain

import (
	"fmt"
	"strings"

	apperrors "mapdirect/internal/platform/errors"
)

// Intent is an action offered by the map's context menu.
type Intent string

const (
	IntentZoomIn     Intent = "zoom_in"
	IntentZoomOut    Intent = "zoom_out"
	IntentDirectFrom Intent = "direct_from"
	IntentDirectTo   Intent = "direct_to"
)

type Item struct {
	Intent Intent
	Label  string
}

var items = []Item{
	{Intent: IntentZoomIn, Label: "Zoom In"},
	{Intent: IntentZoomOut, Label: "Zoom Out"},
	{Intent: IntentDirectFrom, Label: "Direct from here"},
	{Intent: IntentDirectTo, Label: "Direct to here"},
}

// Intents returns the menu entries in display order.
func Intents() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func (i Intent) Label() string {
	for _, item := range items {
		if item.Intent == i {
			return item.Label
		}
	}
	return string(i)
}

// ParseIntent accepts either the intent key or its menu label, case-insensitively.
func ParseIntent(raw string) (Intent, error) {
	needle := strings.TrimSpace(raw)
	for _, item := range items {
		if strings.EqualFold(needle, string(item.Intent)) || strings.EqualFold(needle, item.Label) {
			return item.Intent, nil
		}
	}
	return "", fmt.Errorf("%w: unknown menu action %q", apperrors.ErrInvalidInput, raw)
}
