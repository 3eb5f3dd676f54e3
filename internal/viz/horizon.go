package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// pitchScale is the vertical travel of the horizon per radian of pitch, as
// a fraction of the canvas height.
const pitchScale = 2.0

// DrawHorizon renders an attitude indicator: ground below the horizon line
// is filled, the fixed aircraft symbol sits in the centre and pitch ladder
// marks are drawn every 10 degrees.
func DrawHorizon(c *Canvas, phi, theta float64) {
	w, h := c.Pixels()
	cx, cy := float64(w)/2, float64(h)/2

	// screen y grows downward, so a right bank raises the right side of
	// the horizon
	rot := mgl64.Rotate2D(-phi)
	along := rot.Mul2x1(mgl64.Vec2{1, 0})
	offset := theta * pitchScale * float64(h)
	// a point on the horizon, pushed down as the nose rises
	origin := mgl64.Vec2{cx, cy}.Add(rot.Mul2x1(mgl64.Vec2{0, offset}))

	for x := 0; x < w; x++ {
		y, ok := lineY(origin, along, float64(x))
		if !ok {
			if math.Cos(phi) < 0 {
				c.FillColumn(x, 0, h-1)
			}
			continue
		}
		if math.Cos(phi) >= 0 {
			c.FillColumn(x, int(math.Round(y)), h-1)
		} else {
			c.FillColumn(x, 0, int(math.Round(y)))
		}
	}

	for _, mark := range []float64{-20, -10, 10, 20} {
		r := mark * math.Pi / 180 * pitchScale * float64(h)
		mid := origin.Add(rot.Mul2x1(mgl64.Vec2{0, -r}))
		half := along.Mul(float64(w) / 10)
		a, b := mid.Sub(half), mid.Add(half)
		clearLine(c, int(a[0]), int(a[1]), int(b[0]), int(b[1]))
		c.DrawLine(int(a[0]), int(a[1]), int(b[0]), int(b[1]))
	}

	// aircraft symbol
	wing := w / 6
	c.DrawLine(int(cx)-wing, int(cy), int(cx)-wing/3, int(cy))
	c.DrawLine(int(cx)+wing/3, int(cy), int(cx)+wing, int(cy))
	c.DrawLine(int(cx)-wing/3, int(cy), int(cx), int(cy)+3)
	c.DrawLine(int(cx), int(cy)+3, int(cx)+wing/3, int(cy))
}

// lineY returns the y of the line through p along d at column x.
func lineY(p, d mgl64.Vec2, x float64) (float64, bool) {
	if math.Abs(d[0]) < 1e-9 {
		return 0, false
	}
	return p[1] + (x-p[0])*d[1]/d[0], true
}

// clearLine knocks a one-pixel gap around a ladder mark so it stays
// visible over the filled ground.
func clearLine(c *Canvas, x0, y0, x1, y1 int) {
	for _, dy := range []int{-1, 1} {
		n := max(absInt(x1-x0), absInt(y1-y0), 1)
		for i := 0; i <= n; i++ {
			x := x0 + (x1-x0)*i/n
			y := y0 + (y1-y0)*i/n + dy
			if row, col, bit, ok := c.cell(x, y); ok {
				c.Grid[row][col] &^= bit
			}
		}
	}
}
