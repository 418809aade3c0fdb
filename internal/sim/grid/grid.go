// Package grid holds the pure coordinate model: discrete tiles, the
// isometric tile<->world projection, and the camera transform between
// world and screen space. No state lives here.
package grid

import "math"

// Tile is one cell of the bounded integer grid.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Default diamond dimensions of one tile in world units. Clients may
// render at any zoom; the 2:1 ratio is what makes the projection isometric.
const (
	TileWidth  = 64.0
	TileHeight = 32.0
)

// Camera is a translation plus uniform zoom applied between world and
// screen space.
type Camera struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
}

// TileToWorld projects tile coordinates onto the isometric plane.
func TileToWorld(t Tile) (wx, wy float64) {
	wx = float64(t.X-t.Y) * (TileWidth / 2)
	wy = float64(t.X+t.Y) * (TileHeight / 2)
	return wx, wy
}

// WorldToTile inverts TileToWorld, flooring to the tile whose diamond
// contains the point. A point just past a diamond edge maps to the
// neighboring tile, not the nearest tile center.
func WorldToTile(wx, wy float64) Tile {
	fx := wx/TileWidth + wy/TileHeight
	fy := wy/TileHeight - wx/TileWidth
	return Tile{X: int(math.Floor(fx)), Y: int(math.Floor(fy))}
}

// WorldToScreen applies the camera translation and zoom.
func WorldToScreen(c Camera, wx, wy float64) (sx, sy float64) {
	z := c.Zoom
	if z <= 0 {
		z = 1
	}
	return (wx + c.OffsetX) * z, (wy + c.OffsetY) * z
}

// ScreenToWorld inverts WorldToScreen.
func ScreenToWorld(c Camera, sx, sy float64) (wx, wy float64) {
	z := c.Zoom
	if z <= 0 {
		z = 1
	}
	return sx/z - c.OffsetX, sy/z - c.OffsetY
}

// ScreenToTile composes ScreenToWorld with the tile projection inverse.
func ScreenToTile(c Camera, sx, sy float64) Tile {
	wx, wy := ScreenToWorld(c, sx, sy)
	return WorldToTile(wx, wy)
}

// TileToScreen projects a tile center-origin into screen space.
func TileToScreen(c Camera, t Tile) (sx, sy float64) {
	wx, wy := TileToWorld(t)
	return WorldToScreen(c, wx, wy)
}

// Chebyshev is max(|dx|,|dy|). Proximity rules use it so that diagonal
// neighbors count as adjacent.
func Chebyshev(a, b Tile) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Cardinals returns the four edge-sharing neighbors in a fixed order.
func Cardinals(t Tile) [4]Tile {
	return [4]Tile{
		{X: t.X + 1, Y: t.Y},
		{X: t.X - 1, Y: t.Y},
		{X: t.X, Y: t.Y + 1},
		{X: t.X, Y: t.Y - 1},
	}
}

// InRadius reports whether t lies inside the square bound [-r,r]^2.
func InRadius(t Tile, r int) bool {
	if r < 0 {
		return false
	}
	return t.X >= -r && t.X <= r && t.Y >= -r && t.Y <= r
}

// EuclidSq is the squared straight-line distance between tile centers,
// used for greedy step selection where only ordering matters.
func EuclidSq(a, b Tile) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
