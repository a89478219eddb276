package viewport

import (
	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/texture"
)

// Feedback derives needed tiles from a GPU "prepare" pass readback: a
// coarse render whose fragment shader writes (tile_x, tile_y, lod, 1.0)
// per pixel into an RGBA32F target. This is used where LOD cannot be
// computed in closed form — deforming or 3-D surfaces — so the GPU's
// own screen-space derivatives pick the LOD per fragment instead.
type Feedback struct {
	Texture *texture.VirtualTexture
}

// Pixel is one decoded texel of the feedback readback target.
type Pixel struct {
	X, Y  int32
	LOD   int8
	Alpha float64
}

// RequestFromReadback walks the decoded feedback pixels, skipping ones
// whose alpha is 0 (no tile written this fragment) or whose coordinates
// are negative (background), and requests the derived key for every
// remaining pixel. Repeated pixels naming the same key are skipped by a
// per-call seen set, so each distinct key is requested at most once.
func (f *Feedback) RequestFromReadback(pixels []Pixel) []NeededTile {
	var needed []NeededTile
	seen := make(map[virtex.TileKey]struct{})

	for _, px := range pixels {
		if px.Alpha == 0 || px.X < 0 || px.Y < 0 {
			continue
		}
		key := virtex.NewTileKey(px.X, px.Y, px.LOD)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if addr, outcome := f.Texture.RequestTile(key); outcome == texture.CacheMiss {
			needed = append(needed, NeededTile{Key: key, Address: addr})
		}
	}

	return needed
}
