// Package gpurender implements CacheRenderer: packing the tile
// directory into a GPU-sampleable metadata texture, compiling the WGSL
// lookup shader that reproduces the directory's probe sequence on the
// GPU, and a CPU-side simple-path renderer for clients with no live GPU
// feedback pass.
package gpurender

import (
	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/directory"
	"github.com/gogpu/virtex/texture"
)

// MetadataTexture is the RGBA32F CPU-side image uploaded once per frame
// so the GPU lookup shader can reproduce directory.Directory.Get
// without the CPU directory structure itself ever touching the GPU.
//
// Layout, per spec: width = bucket count, height = 4 (two rows per
// subtable). Row 2s holds, per bucket i, (key.col, key.row, key.lod, 0);
// row 2s+1 holds the bucket's tile UV rect (u0, v0, u1, v1) in the cache
// texture, already excluding the 1-pixel gutter. Empty buckets are all
// zero, which the shader recognizes by a zero-area UV rect.
type MetadataTexture struct {
	Width  int
	Height int
	// Pixels is Width*Height*4 float32 values, row-major, RGBA per texel.
	Pixels []float32
}

// BuildMetadataTexture packs dir's two subtables and vt's slot UV rects
// into a MetadataTexture ready for upload.
func BuildMetadataTexture(dir *directory.Directory, vt *texture.VirtualTexture) *MetadataTexture {
	n := dir.BucketSize()
	m := &MetadataTexture{
		Width:  n,
		Height: 4,
		Pixels: make([]float32, n*4*4),
	}

	cacheW := float32(vt.TilesAcross() * vt.TileBackingSize())
	cacheH := float32(vt.TilesDown() * vt.TileBackingSize())

	for subtable := 0; subtable < 2; subtable++ {
		keyRow := subtable * 2
		uvRow := keyRow + 1
		for i := 0; i < n; i++ {
			key, addr, ok := dir.Bucket(subtable, i)
			if !ok {
				continue
			}
			m.setTexel(keyRow, i, float32(key.Col()), float32(key.Row()), float32(key.LOD()), 0)

			col, row := vt.AddressToTileCoords(addr)
			backing := float32(vt.TileBackingSize())
			tileSize := float32(vt.TileSize())
			x0 := float32(col)*backing + 1
			y0 := float32(row)*backing + 1
			u0, v0 := x0/cacheW, y0/cacheH
			u1, v1 := (x0+tileSize)/cacheW, (y0+tileSize)/cacheH
			m.setTexel(uvRow, i, u0, v0, u1, v1)
		}
	}

	return m
}

func (m *MetadataTexture) setTexel(row, col int, r, g, b, a float32) {
	idx := (row*m.Width + col) * 4
	m.Pixels[idx+0] = r
	m.Pixels[idx+1] = g
	m.Pixels[idx+2] = b
	m.Pixels[idx+3] = a
}

// Texel reads back the four floats stored at (row, col), mainly for
// tests.
func (m *MetadataTexture) Texel(row, col int) (r, g, b, a float32) {
	idx := (row*m.Width + col) * 4
	return m.Pixels[idx+0], m.Pixels[idx+1], m.Pixels[idx+2], m.Pixels[idx+3]
}

// LookupUniforms bundles the scalar values a GPU lookup shader needs
// alongside the metadata and cache textures to reproduce
// directory.Directory.Get and VirtualTexture's LOD/address mapping.
type LookupUniforms struct {
	SeedA, SeedB   uint32
	CacheSize      uint32
	TileSize       uint32
	MinLOD, MaxLOD int32
}

// BuildLookupUniforms reads the scalar uniforms out of dir and vt.
// MinLOD/MaxLOD are the actual bounds of the currently rasterized
// entries, not virtex's static type range: a cold or mostly-empty
// cache then bounds lookup_tile's climb loop to the LODs that can
// possibly resolve, instead of probing up to the full [MinLOD, MaxLOD]
// span on every miss fragment.
func BuildLookupUniforms(dir *directory.Directory, vt *texture.VirtualTexture) LookupUniforms {
	seeds := dir.Seeds()
	minLOD, maxLOD := rasterizedLODRange(vt)
	return LookupUniforms{
		SeedA:     seeds[0],
		SeedB:     seeds[1],
		CacheSize: uint32(dir.BucketSize()),
		TileSize:  vt.TileSize(),
		MinLOD:    minLOD,
		MaxLOD:    maxLOD,
	}
}

// rasterizedLODRange scans the cache's slot table for the tightest
// [min, max] LOD bracket spanning every Rasterized entry, starting from
// an inverted sentinel range the same way the ground-truth
// implementation resets its tracked bounds before each scan. When
// nothing is resident yet, minLOD stays above maxLOD, which makes
// lookup_tile's climb-loop bound (cur_lod > uniforms.max_lod) reject
// on the very first iteration instead of probing the full static range.
func rasterizedLODRange(vt *texture.VirtualTexture) (int32, int32) {
	minLOD, maxLOD := int32(virtex.MaxLOD)+1, int32(virtex.MinLOD)-1
	for _, tile := range vt.Tiles() {
		if tile.Status != texture.Rasterized {
			continue
		}
		lod := int32(tile.Key.LOD())
		if lod < minLOD {
			minLOD = lod
		}
		if lod > maxLOD {
			maxLOD = lod
		}
	}
	return minLOD, maxLOD
}
