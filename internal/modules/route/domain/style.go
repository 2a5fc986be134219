package domain

type LineStyle struct {
	Color     string
	Opacity   float64
	Weight    int
	DashArray string
}

// PrimaryStyles is the stroke stack for the selected route, outermost first.
func PrimaryStyles() []LineStyle {
	return []LineStyle{
		{Color: "#022bb1", Opacity: 0.8, Weight: 8},
		{Color: "#ffffff", Opacity: 0.3, Weight: 6},
	}
}

// AlternativeStyles is the stroke stack for alternative routes.
func AlternativeStyles() []LineStyle {
	return []LineStyle{
		{Color: "#40007d", Opacity: 0.4, Weight: 8},
		{Color: "#000000", Opacity: 0.5, Weight: 2, DashArray: "2,4"},
		{Color: "#ffffff", Opacity: 0.3, Weight: 6},
	}
}

// Dashed returns the first dash pattern in the stack, if any.
func Dashed(styles []LineStyle) (string, bool) {
	for _, s := range styles {
		if s.DashArray != "" {
			return s.DashArray, true
		}
	}
	return "", false
}
