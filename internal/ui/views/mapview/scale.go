package mapview

import (
	"math"
	"strconv"
	"strings"
)

// maxScaleCells caps the scale bar width.
const maxScaleCells = 20

// ScaleBar picks a round ground distance that spans at most maxCells cells
// at the center latitude. It returns the bar width in cells and its label.
func ScaleBar(v *Viewport, maxCells int) (int, string) {
	perCell := v.metersPerDot() * 2 * math.Cos(v.center.Lat*math.Pi/180)
	if maxCells < 1 || perCell <= 0 {
		return 0, ""
	}
	limit := perCell * float64(maxCells)
	pow := math.Pow(10, math.Floor(math.Log10(limit)))
	meters := pow
	for _, f := range []float64{5, 2} {
		if f*pow <= limit {
			meters = f * pow
			break
		}
	}
	return max(int(math.Round(meters/perCell)), 1), scaleLabel(meters)
}

func scaleLabel(meters float64) string {
	if meters >= 1000 {
		return strconv.FormatFloat(meters/1000, 'f', -1, 64) + " km"
	}
	return strconv.FormatFloat(meters, 'f', -1, 64) + " m"
}

// drawScale writes the scale bar into the bottom-left corner of grid.
func drawScale(v *Viewport, grid [][]cell) {
	h := len(grid)
	if h == 0 {
		return
	}
	w := len(grid[0])
	cells, label := ScaleBar(v, min(w/4, maxScaleCells))
	if cells < 2 || 1+cells+1+len(label) > w {
		return
	}
	bar := "└" + strings.Repeat("─", cells-2) + "┘ " + label
	x := 1
	for _, r := range bar {
		grid[h-1][x] = cell{r: r, kind: kindScale}
		x++
	}
}
