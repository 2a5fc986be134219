package mapview

import "math"

// canvas is a braille dot buffer: every cell holds a 2x4 dot mask.
type canvas struct {
	w, h int
	mask [][]uint8
	kind [][]int
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, mask: make([][]uint8, h), kind: make([][]int, h)}
	for i := range c.mask {
		c.mask[i] = make([]uint8, w)
		c.kind[i] = make([]int, w)
	}
	return c
}

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// set lights a dot and tags its cell; higher kinds win a shared cell.
func (c *canvas) set(x, y, kind int) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= c.w || cy >= c.h {
		return
	}
	c.mask[cy][cx] |= dotBits[x%2][y%4]
	if kind > c.kind[cy][cx] {
		c.kind[cy][cx] = kind
	}
}

// line draws a Bresenham segment. A non-empty dash pattern alternates
// on/off runs measured in dots; step carries the pattern across segments.
func (c *canvas) line(x0, y0, x1, y1 float64, kind int, dash []int, step *int) {
	x0, y0, x1, y1, ok := clip(x0, y0, x1, y1, -1, -1, float64(c.w*2), float64(c.h*4))
	if !ok {
		return
	}
	ax, ay := int(math.Round(x0)), int(math.Round(y0))
	bx, by := int(math.Round(x1)), int(math.Round(y1))
	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	e := dx + dy
	for {
		if dashOn(dash, *step) {
			c.set(ax, ay, kind)
		}
		*step++
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// clip is Liang-Barsky against the rectangle [minX,maxX]x[minY,maxY].
func clip(x0, y0, x1, y1, minX, minY, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := x1-x0, y1-y0
	edges := [4][2]float64{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func dashOn(dash []int, step int) bool {
	total := 0
	for _, d := range dash {
		total += d
	}
	if total == 0 {
		return true
	}
	pos := step % total
	for i, d := range dash {
		if pos < d {
			return i%2 == 0
		}
		pos -= d
	}
	return true
}

func (c *canvas) glyph(cx, cy int) (rune, bool) {
	m := c.mask[cy][cx]
	if m == 0 {
		return ' ', false
	}
	return rune(0x2800 + int(m)), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
