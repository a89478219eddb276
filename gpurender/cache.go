package gpurender

import (
	"errors"
	"fmt"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/raster"
	"github.com/gogpu/virtex/texture"
)

// ErrCacheFull describes a requested tile that could not be assigned a
// slot. Nothing in this package returns it: Advance requests no tiles,
// and VirtualTexture.RequestTile reports a full cache as texture.CacheFull.
var ErrCacheFull = errors.New("gpurender: cache texture has no free or evictable slot")

// UploadTarget is the minimal surface CacheRenderer needs from a GPU
// cache texture: write a rectangle of RGBA8 pixels, and read back the
// whole buffer for the simple CPU compositing path and for tests. A
// real GPU backend implements this over a device texture; PixmapTarget
// below implements it entirely in CPU memory.
type UploadTarget interface {
	Width() int
	Height() int
	UploadRegion(x, y, w, h int, pixels []byte)
	Pixels() []byte
}

// PixmapTarget is an UploadTarget backed by a canvas.Pixmap, used by
// the simple CPU compositing path (cmd/virtexdemo's default mode, and
// tests) where no live GPU device is available.
type PixmapTarget struct {
	pm *canvas.Pixmap
}

// NewPixmapTarget creates a software-backed upload target of the given
// pixel dimensions.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{pm: canvas.NewPixmap(width, height)}
}

func (t *PixmapTarget) Width() int  { return t.pm.Width() }
func (t *PixmapTarget) Height() int { return t.pm.Height() }

func (t *PixmapTarget) UploadRegion(x, y, w, h int, pixels []byte) {
	t.pm.BlitRGBA(x, y, w, h, pixels)
}

func (t *PixmapTarget) Pixels() []byte { return t.pm.Data() }

// Pixmap exposes the backing pixmap directly, for the simple-path
// renderer and for snapshotting to PNG.
func (t *PixmapTarget) Pixmap() *canvas.Pixmap { return t.pm }

// CacheRenderer owns the cache texture upload target and the metadata
// snapshot that would be handed to a GPU lookup shader, and drives the
// main-thread half of the pipeline: draining raster.Pipeline results,
// marking tiles rasterized, and uploading finished pixels.
//
// Grounded on internal/gpu/atlas.go's resource-lifecycle shape
// (owns a texture resource, exposes an UploadRegion-style write) and on
// spec.md §4.4's main-thread drain loop.
type CacheRenderer struct {
	Texture  *texture.VirtualTexture
	Pipeline *raster.Pipeline
	Target   UploadTarget

	Metadata *MetadataTexture
	Uniforms LookupUniforms
}

// NewCacheRenderer wires a VirtualTexture, a raster.Pipeline, and an
// UploadTarget together. The target's pixel dimensions must match
// vt's cache texture dimensions.
func NewCacheRenderer(vt *texture.VirtualTexture, pipeline *raster.Pipeline, target UploadTarget) *CacheRenderer {
	return &CacheRenderer{
		Texture:  vt,
		Pipeline: pipeline,
		Target:   target,
	}
}

// Advance drains every result the pipeline has produced since the last
// call, marks each one rasterized in the VirtualTexture, and uploads
// its pixels into the cache texture at its assigned slot. It then
// rebuilds the metadata snapshot a GPU lookup shader would sample
// against. Call once per frame from the main thread.
func (r *CacheRenderer) Advance() error {
	backing := int(r.Texture.TileBackingSize())
	across := int(r.Texture.TilesAcross())

	for _, result := range r.Pipeline.Drain() {
		if len(result.Pixels) != backing*backing*4 {
			return fmt.Errorf("gpurender: result for key %#x has %d bytes, want %d",
				uint32(result.Key), len(result.Pixels), backing*backing*4)
		}

		r.Texture.MarkAsRasterized(result.Address, result.Key)

		col := int(result.Address) % across
		row := int(result.Address) / across
		r.Target.UploadRegion(col*backing, row*backing, backing, backing, result.Pixels)
	}

	r.Metadata = BuildMetadataTexture(r.Texture.Directory(), r.Texture)
	r.Uniforms = BuildLookupUniforms(r.Texture.Directory(), r.Texture)
	return nil
}

// RequestTile forwards to the VirtualTexture and, on a cache miss,
// submits the corresponding rasterization request to the pipeline.
func (r *CacheRenderer) RequestTile(key virtex.TileKey) (virtex.TileAddress, texture.Outcome) {
	addr, outcome := r.Texture.RequestTile(key)
	if outcome == texture.CacheMiss {
		r.Pipeline.Submit(raster.Request{Key: key, Address: addr})
	}
	return addr, outcome
}
