package gpurender

import (
	"testing"
	"time"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/raster"
	"github.com/gogpu/virtex/scene"
	"github.com/gogpu/virtex/texture"
)

func TestPixmapTargetUploadRegion(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	px := make([]byte, 4*4*4)
	for i := range px {
		px[i] = 0xAB
	}
	target.UploadRegion(2, 2, 4, 4, px)

	if target.Pixmap().GetPixel(2, 2) == (canvas.RGBA{}) {
		t.Error("UploadRegion() left destination pixel untouched")
	}
}

func TestCacheRendererAdvanceUploadsAndMarksRasterized(t *testing.T) {
	vt := texture.New(texture.Config{
		CacheTextureWidth:  4 * 18,
		CacheTextureHeight: 4 * 18,
		TileSize:           16,
		InitialBucketSize:  8,
	})
	pipeline := raster.NewPipeline(1, 16, canvas.Black, scene.Solid{W: 16, H: 16, Color: canvas.White})
	defer pipeline.Close()

	target := NewPixmapTarget(int(vt.TilesAcross()*vt.TileBackingSize()), int(vt.TilesDown()*vt.TileBackingSize()))
	renderer := NewCacheRenderer(vt, pipeline, target)

	key := virtex.NewTileKey(0, 0, 0)
	addr, outcome := renderer.RequestTile(key)
	if outcome != texture.CacheMiss {
		t.Fatalf("RequestTile() outcome = %v, want CacheMiss", outcome)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := renderer.Advance(); err != nil {
			t.Fatalf("Advance() = %v", err)
		}
		if vt.Tiles()[addr].Status == texture.Rasterized {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tile never reached Rasterized")
		}
		time.Sleep(time.Millisecond)
	}

	if renderer.Metadata == nil {
		t.Fatal("Advance() left Metadata nil")
	}
	if got, want := target.Width(), int(vt.TilesAcross()*vt.TileBackingSize()); got != want {
		t.Errorf("target width = %d, want %d", got, want)
	}
}

// TestCacheRendererAdvancePreservesChannelOrder exercises the real
// raster.Pipeline -> CacheRenderer.Advance -> UploadTarget path with a
// non-symmetric scene color (pure red), so a spurious channel swap
// anywhere on that path (R and B are equal for gray/white/black, which
// would mask one) shows up as a wrong-colored upload.
func TestCacheRendererAdvancePreservesChannelOrder(t *testing.T) {
	red := canvas.RGBA{R: 1, G: 0, B: 0, A: 1}
	vt := texture.New(texture.Config{
		CacheTextureWidth:  4 * 18,
		CacheTextureHeight: 4 * 18,
		TileSize:           16,
		InitialBucketSize:  8,
	})
	pipeline := raster.NewPipeline(1, 16, canvas.Black, scene.Solid{W: 16, H: 16, Color: red})
	defer pipeline.Close()

	target := NewPixmapTarget(int(vt.TilesAcross()*vt.TileBackingSize()), int(vt.TilesDown()*vt.TileBackingSize()))
	renderer := NewCacheRenderer(vt, pipeline, target)

	key := virtex.NewTileKey(0, 0, 0)
	addr, outcome := renderer.RequestTile(key)
	if outcome != texture.CacheMiss {
		t.Fatalf("RequestTile() outcome = %v, want CacheMiss", outcome)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := renderer.Advance(); err != nil {
			t.Fatalf("Advance() = %v", err)
		}
		if vt.Tiles()[addr].Status == texture.Rasterized {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tile never reached Rasterized")
		}
		time.Sleep(time.Millisecond)
	}

	col, row := vt.AddressToTileCoords(addr)
	backing := int(vt.TileBackingSize())
	got := target.Pixmap().GetPixel(int(col)*backing+backing/2, int(row)*backing+backing/2)
	if got.R < 0.9 || got.G > 0.1 || got.B > 0.1 {
		t.Errorf("uploaded pixel = %v, want approximately pure red (channel swap corrupted the upload)", got)
	}
}
