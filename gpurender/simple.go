package gpurender

import (
	"math"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/texture"
	"github.com/gogpu/virtex/viewport"
)

// RenderSimple draws the planner's current viewport footprint onto dst
// by compositing textured quads straight from the cache texture's
// pixels, one per resident tile per active LOD, without any GPU
// sampling shader. It alpha-blends the finer of the two active LODs
// over the coarser one using opacity = fract(log2(scale)), matching
// the continuous LOD transition a real mip-mapped sampler would give.
//
// Only slots in the Rasterized state are drawn; Pending and Empty tiles
// are left as whatever dst already held (the caller typically clears
// dst to the background color first).
func RenderSimple(dst *canvas.Pixmap, vt *texture.VirtualTexture, cache UploadTarget, planner *viewport.Planar) {
	lods := planner.CurrentLODs()
	opacity := fineLayerOpacity(planner.CurrentScale(), lods)

	for i, lod := range lods {
		layerOpacity := opacity
		if i == 0 && len(lods) == 2 {
			layerOpacity = 1 - opacity
		}
		drawLOD(dst, vt, cache, planner, lod, layerOpacity)
	}
}

// fineLayerOpacity returns the blend weight of the finer (higher) LOD
// in a two-LOD bracket; a single-LOD bracket is fully opaque.
func fineLayerOpacity(scale float64, lods []int8) float64 {
	if len(lods) < 2 {
		return 1
	}
	return math.Mod(math.Log2(scale), 1)
}

func drawLOD(dst *canvas.Pixmap, vt *texture.VirtualTexture, cache UploadTarget, planner *viewport.Planar, lod int8, opacity float64) {
	if opacity <= 0 {
		return
	}

	dir := vt.Directory()
	backing := int(vt.TileBackingSize())
	across := int(vt.TilesAcross())
	tileSize := float64(vt.TileSize())
	scale := math.Pow(2, float64(lod))

	for _, key := range planner.TileKeysForLOD(lod) {
		addr, ok := dir.Get(key)
		if !ok {
			continue
		}
		entry := vt.Tiles()[addr]
		if entry.Status != texture.Rasterized {
			continue
		}

		col := int(addr) % across
		row := int(addr) / across
		srcX, srcY := col*backing+1, row*backing+1

		dstOrigin := planner.Transform.TransformPoint(canvas.Pt(
			float64(key.Col())*tileSize/scale,
			float64(key.Row())*tileSize/scale,
		))
		dstExtent := planner.Transform.TransformVector(canvas.Pt(tileSize/scale, tileSize/scale))

		blitTileBlended(dst, cache, srcX, srcY, int(vt.TileSize()),
			int(math.Round(dstOrigin.X)), int(math.Round(dstOrigin.Y)),
			int(math.Round(dstExtent.X)), int(math.Round(dstExtent.Y)), opacity)
	}
}

// blitTileBlended nearest-neighbor-samples a tileSize x tileSize region
// of the cache texture (offset by the 1-pixel gutter) into dst's
// dstW x dstH destination rectangle, blending by opacity.
func blitTileBlended(dst *canvas.Pixmap, cache UploadTarget, srcX, srcY, srcSize, dstX, dstY, dstW, dstH int, opacity float64) {
	if dstW <= 0 || dstH <= 0 {
		return
	}
	pixels := cache.Pixels()
	cacheW := cache.Width()

	for dy := 0; dy < dstH; dy++ {
		sy := srcY + dy*srcSize/dstH
		for dx := 0; dx < dstW; dx++ {
			sx := srcX + dx*srcSize/dstW
			if sx < 0 || sy < 0 || sx >= cacheW || sy >= cache.Height() {
				continue
			}
			idx := (sy*cacheW + sx) * 4
			c := canvas.RGBA{
				R: float64(pixels[idx+0]) / 255,
				G: float64(pixels[idx+1]) / 255,
				B: float64(pixels[idx+2]) / 255,
				A: float64(pixels[idx+3]) / 255 * opacity,
			}
			px, py := dstX+dx, dstY+dy
			existing := dst.GetPixel(px, py)
			dst.SetPixel(px, py, existing.Lerp(c, c.A))
		}
	}
}

// TileBackingOrigin returns the pixel origin (excluding gutter) of the
// slot at addr within a cache texture of the given tiles-across count,
// for callers that need to address the cache texture directly (e.g.
// snapshot tooling). Exposed mainly for tests.
func TileBackingOrigin(addr virtex.TileAddress, tilesAcross, backingSize uint32) (x, y int) {
	col := uint32(addr) % tilesAcross
	row := uint32(addr) / tilesAcross
	return int(col*backingSize) + 1, int(row*backingSize) + 1
}
