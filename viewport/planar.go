// Package viewport turns a camera's state into the set of tile keys the
// cache needs resident this frame, via two independent strategies: an
// analytical transform-based planner (Planar) for flat 2-D viewing, and
// a GPU feedback-readback planner (Feedback) for deforming or 3-D
// surfaces where LOD cannot be computed in closed form.
//
// Both variants feed the same VirtualTexture.RequestTile loop; a miss
// result is collected into the NeededTile list the caller hands to the
// rasterization pipeline.
package viewport

import (
	"math"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/texture"
)

// NeededTile is one key the cache missed on this frame, paired with the
// slot address the texture assigned to it.
type NeededTile struct {
	Key     virtex.TileKey
	Address virtex.TileAddress
}

// Planar computes needed tiles analytically from a 2-D affine camera
// transform, for content that is viewed flat (no perspective, no mesh
// deformation).
type Planar struct {
	Texture   *texture.VirtualTexture
	Transform canvas.Matrix
	ViewportW int
	ViewportH int
}

// CurrentScale returns the camera's dominant axis scale, the single
// scalar virtex uses to pick a level-of-detail bracket for an otherwise
// general 2-D transform.
func (p *Planar) CurrentScale() float64 {
	return p.Transform.MaxAxisScale()
}

// CurrentLODs returns the one or two levels of detail that bracket the
// current scale: the floor of log2(scale), and floor+1 unless scale is
// itself an exact power of two.
func (p *Planar) CurrentLODs() []int8 {
	scale := p.CurrentScale()
	lower := floorLog2(scale)

	lods := []int8{lower}
	if math.Pow(2, float64(lower)) != scale {
		lods = append(lods, lower+1)
	}
	return lods
}

func floorLog2(scale float64) int8 {
	return int8(math.Floor(math.Log2(scale)))
}

// RequestNeededTiles computes the tiles needed for every LOD in the
// current bracket and requests each from Texture, returning those that
// missed and must be rasterized.
func (p *Planar) RequestNeededTiles() []NeededTile {
	var needed []NeededTile
	for _, lod := range p.CurrentLODs() {
		for _, key := range p.TileKeysForLOD(lod) {
			if addr, outcome := p.Texture.RequestTile(key); outcome == texture.CacheMiss {
				needed = append(needed, NeededTile{Key: key, Address: addr})
			}
		}
	}
	return needed
}

// TileKeysForLOD enumerates, without touching the texture, every tile
// key the current viewport covers at lod. gpurender.RenderSimple uses
// this to redraw the same footprint RequestNeededTiles
// already requested this frame, without re-promoting LRU entries a
// second time.
func (p *Planar) TileKeysForLOD(lod int8) []virtex.TileKey {
	inv := p.Transform.Invert()

	corners := [4]canvas.Point{
		inv.TransformPoint(canvas.Point{X: 0, Y: 0}),
		inv.TransformPoint(canvas.Point{X: float64(p.ViewportW), Y: 0}),
		inv.TransformPoint(canvas.Point{X: 0, Y: float64(p.ViewportH)}),
		inv.TransformPoint(canvas.Point{X: float64(p.ViewportW), Y: float64(p.ViewportH)}),
	}

	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := corners[0].X, corners[0].Y
	for _, c := range corners[1:] {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}

	tileSizeInv := math.Pow(2, float64(lod)) / float64(p.Texture.TileSize())
	minX, maxX = minX*tileSizeInv, maxX*tileSizeInv
	minY, maxY = minY*tileSizeInv, maxY*tileSizeInv

	x0, x1 := int32(math.Floor(minX)), int32(math.Ceil(maxX))
	y0, y1 := int32(math.Floor(minY)), int32(math.Ceil(maxY))

	var keys []virtex.TileKey
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if x < 0 || y < 0 || x >= virtex.MaxTileCoord || y >= virtex.MaxTileCoord {
				continue
			}
			keys = append(keys, virtex.NewTileKey(x, y, lod))
		}
	}
	return keys
}
