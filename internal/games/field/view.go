package field

import (
	"math"

	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/core"
)

// Rows reserved above and below the playfield.
const (
	hudRows    = 1
	footerRows = 1
)

// viewport maps the world box of a variant onto the screen cells between
// the HUD and the footer. World y grows upwards, screen y downwards.
type viewport struct {
	world  config.Box
	width  int
	height int
}

func newViewport(world config.Box, w, h int) viewport {
	return viewport{world: world, width: w, height: h}
}

// field returns the screen rows used by the playfield.
func (v viewport) field() core.Rect {
	h := v.height - hudRows - footerRows
	if h < 1 {
		h = 1
	}
	return core.NewRect(0, hudRows, v.width, h)
}

// cellsPerUnit returns the horizontal and vertical scale.
func (v viewport) cellsPerUnit() (float64, float64) {
	f := v.field()
	sx := float64(max(f.W-1, 1)) / (v.world.MaxX - v.world.MinX)
	sy := float64(max(f.H-1, 1)) / (v.world.MaxY - v.world.MinY)
	return sx, sy
}

// toScreen returns the cell showing world position p.
func (v viewport) toScreen(p core.Vec) (int, int) {
	f := v.field()
	sx, sy := v.cellsPerUnit()
	x := (p.X - v.world.MinX) * sx
	y := (v.world.MaxY - p.Y) * sy
	return f.X + int(math.Round(x)), f.Y + int(math.Round(y))
}

// toWorld returns the world position under cell (x, y).
func (v viewport) toWorld(x, y int) core.Vec {
	f := v.field()
	sx, sy := v.cellsPerUnit()
	return core.V(
		v.world.MinX+float64(x-f.X)/sx,
		v.world.MaxY-float64(y-f.Y)/sy,
	)
}

// radii returns the on-screen half axes of a circle of world radius r.
func (v viewport) radii(r float64) (int, int) {
	sx, sy := v.cellsPerUnit()
	return int(math.Round(r * sx)), int(math.Round(r * sy))
}
