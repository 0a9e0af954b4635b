package engine

import (
	"image"
	"image/color"
	"image/draw"

	"ottermap/pkg/geometry"

	"golang.org/x/image/vector"
)

// glyphs contains 3x5 pixel patterns for the characters used in tile labels.
// Each glyph is 5 rows of 3 bits.
var glyphs = map[rune][5]uint8{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b001, 0b001, 0b001},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'/': {0b001, 0b001, 0b010, 0b100, 0b100},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
}

// fillPolygon fills the polygon given in pixel coordinates, blending col over dst.
func fillPolygon(dst *image.RGBA, points []geometry.Point2D, col color.Color) {
	if len(points) < 3 {
		return
	}
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	z.MoveTo(float32(points[0].X-float64(b.Min.X)), float32(points[0].Y-float64(b.Min.Y)))
	for _, p := range points[1:] {
		z.LineTo(float32(p.X-float64(b.Min.X)), float32(p.Y-float64(b.Min.Y)))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// strokePolyline draws connected segments; closed joins the last point back
// to the first.
func strokePolyline(dst *image.RGBA, points []geometry.Point2D, col color.Color, thickness int, closed bool) {
	n := len(points)
	for i := 0; i+1 < n; i++ {
		drawLine(dst, points[i], points[i+1], col, thickness)
	}
	if closed && n > 2 {
		drawLine(dst, points[n-1], points[0], col, thickness)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
// Lines far outside the image are skipped.
func drawLine(dst *image.RGBA, a, b geometry.Point2D, col color.Color, thickness int) {
	bounds := dst.Bounds()
	clip := geometry.NewRect(float64(bounds.Min.X), float64(bounds.Min.Y), float64(bounds.Dx()), float64(bounds.Dy())).
		Expand(float64(thickness))
	if !clip.Intersects(geometry.BoundingBox([]geometry.Point2D{a, b})) {
		return
	}

	x1, y1 := int(a.X), int(a.Y)
	x2, y2 := int(b.X), int(b.Y)

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if image.Pt(px, py).In(bounds) {
					dst.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawHandle draws a filled square vertex handle centered on p.
func drawHandle(dst *image.RGBA, p geometry.Point2D, col color.Color, radius int) {
	cx, cy := int(p.X), int(p.Y)
	r := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(dst.Bounds())
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// drawLabel draws text with its top-left corner at (x, y), scaled by scale.
func drawLabel(dst *image.RGBA, text string, x, y int, col color.Color, scale int) {
	bounds := dst.Bounds()
	for _, ch := range text {
		pattern := glyphs[ch]
		for row := 0; row < 5; row++ {
			for bit := 0; bit < 3; bit++ {
				if pattern[row]&(1<<(2-bit)) == 0 {
					continue
				}
				for sy := 0; sy < scale; sy++ {
					for sx := 0; sx < scale; sx++ {
						px := x + bit*scale + sx
						py := y + row*scale + sy
						if image.Pt(px, py).In(bounds) {
							dst.Set(px, py, col)
						}
					}
				}
			}
		}
		x += 4 * scale
	}
}
