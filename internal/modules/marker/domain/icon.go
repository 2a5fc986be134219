package domain

import waypoint "mapdirect/internal/modules/waypoint/domain"

type Icon struct {
	ImageURL string
	Size     [2]int
	Anchor   [2]int
}

// IconFor maps a waypoint's position in the list to its marker role.
// A single point is a start; the last of two or more is the end.
func IconFor(index, total int) waypoint.Role {
	switch {
	case index == 0:
		return waypoint.RoleStart
	case total > 1 && index == total-1:
		return waypoint.RoleEnd
	default:
		return waypoint.RoleVia
	}
}

func IconSpec(role waypoint.Role) Icon {
	url := "images/marker-via-icon-2x.png"
	switch role {
	case waypoint.RoleStart:
		url = "images/marker-start-icon-2x.png"
	case waypoint.RoleEnd:
		url = "images/marker-end-icon-2x.png"
	}
	return Icon{ImageURL: url, Size: [2]int{20, 56}, Anchor: [2]int{10, 28}}
}

// Placeholder is the input hint shown for an empty waypoint slot.
func Placeholder(index, total int) string {
	switch IconFor(index, total) {
	case waypoint.RoleStart:
		return "Start - press enter to drop marker"
	case waypoint.RoleEnd:
		return "End - press enter to drop marker"
	}
	return "Via point - press enter to drop marker"
}

func Glyph(role waypoint.Role) string {
	switch role {
	case waypoint.RoleStart:
		return "S"
	case waypoint.RoleEnd:
		return "E"
	}
	return "•"
}
