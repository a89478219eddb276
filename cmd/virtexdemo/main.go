// Command virtexdemo drives the sparse virtual texture cache against a
// scripted zoom-in camera path over a scene image, snapshotting each
// frame to PNG. It runs entirely on the CPU simple-compositing path
// (gpurender.RenderSimple), so it needs no live GPU device or window
// and can run in CI the same way cmd/ggdemo renders to a file.
package main

import (
	"flag"
	"fmt"
	_ "image/png" // registers the PNG decoder scene.LoadImage needs
	"log"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/gpurender"
	"github.com/gogpu/virtex/raster"
	"github.com/gogpu/virtex/scene"
	"github.com/gogpu/virtex/texture"
	"github.com/gogpu/virtex/viewport"
	"github.com/gogpu/virtex/virtexcfg"
)

func main() {
	var (
		workers    = flag.Int("workers", 0, "rasterization worker count (0 = runtime.NumCPU())")
		configPath = flag.String("config", "", "optional TOML config file")
		tileSize   = flag.Uint("tile-size", 0, "tile content size in pixels (0 = use config)")
		cacheTiles = flag.String("cache-tiles", "", "cache dimensions as WxH tiles (empty = use config)")
		frames     = flag.Int("frames", 8, "number of zoom-in frames to render")
		outPrefix  = flag.String("out", "frame", "output PNG filename prefix")
		verbose    = flag.Bool("v", false, "enable info-level logging")
	)
	flag.Parse()

	if *verbose {
		virtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	if flag.NArg() < 1 {
		log.Fatal("usage: virtexdemo [flags] path_to_scene")
	}
	scenePath := flag.Arg(0)

	cfg := virtexcfg.Default()
	if err := virtexcfg.Load(*configPath, &cfg); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *tileSize != 0 {
		cfg.TileSize = uint32(*tileSize)
	}
	if *cacheTiles != "" {
		across, down, err := parseWxH(*cacheTiles)
		if err != nil {
			log.Fatalf("parsing --cache-tiles: %v", err)
		}
		cfg.CacheTilesAcross, cfg.CacheTilesDown = across, down
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	source, err := scene.LoadImage(scenePath)
	if err != nil {
		log.Fatalf("loading scene: %v", err)
	}

	if err := run(cfg, source, *frames, *outPrefix); err != nil {
		log.Fatalf("render: %v", err)
	}
}

func run(cfg virtexcfg.Config, source scene.Image, frames int, outPrefix string) error {
	workerCount := cfg.Workers
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
	}

	backing := cfg.TileSize + 2
	vt := texture.New(texture.Config{
		CacheTextureWidth:  cfg.CacheTilesAcross * backing,
		CacheTextureHeight: cfg.CacheTilesDown * backing,
		TileSize:           cfg.TileSize,
		InitialBucketSize:  cfg.InitialBucketCount,
	})

	pipeline := raster.NewPipeline(workerCount, cfg.TileSize, cfg.BackgroundRGBA(), source)
	defer pipeline.Close()

	cache := gpurender.NewPixmapTarget(int(vt.TilesAcross()*vt.TileBackingSize()), int(vt.TilesDown()*vt.TileBackingSize()))
	renderer := gpurender.NewCacheRenderer(vt, pipeline, cache)

	sceneW, sceneH := source.Size()
	viewportW, viewportH := int(cfg.TileSize*4), int(cfg.TileSize*4)

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(max(frames-1, 1))
		scale := lerp(1, 8, t)
		transform := canvas.Translate(float64(viewportW)/2, float64(viewportH)/2).
			Multiply(canvas.Scale(scale, scale)).
			Multiply(canvas.Translate(-sceneW/2, -sceneH/2))

		planner := &viewport.Planar{
			Texture:   vt,
			Transform: transform,
			ViewportW: viewportW,
			ViewportH: viewportH,
		}

		for _, needed := range planner.RequestNeededTiles() {
			pipeline.Submit(raster.Request{Key: needed.Key, Address: needed.Address})
		}

		if err := drainUntilSettled(renderer, vt, planner); err != nil {
			return err
		}

		dst := canvas.NewPixmap(viewportW, viewportH)
		dst.Clear(cfg.BackgroundRGBA())
		gpurender.RenderSimple(dst, vt, cache, planner)

		path := fmt.Sprintf("%s-%03d.png", outPrefix, i)
		if err := dst.SavePNG(path); err != nil {
			return fmt.Errorf("saving %s: %w", path, err)
		}
		log.Printf("wrote %s (scale=%.2f)", path, scale)
	}

	return nil
}

// drainUntilSettled calls Advance until every tile the planner currently
// needs is no longer Pending, so each snapshot captures fully rasterized
// content rather than a frame mid-flight. A real interactive client would
// instead call Advance once per displayed frame and tolerate partially
// resident tiles; a one-shot snapshot tool cannot.
func drainUntilSettled(renderer *gpurender.CacheRenderer, vt *texture.VirtualTexture, planner *viewport.Planar) error {
	for {
		if err := renderer.Advance(); err != nil {
			return err
		}

		settled := true
		for _, lod := range planner.CurrentLODs() {
			for _, key := range planner.TileKeysForLOD(lod) {
				if addr, ok := vt.Directory().Get(key); ok && vt.Tiles()[addr].Status == texture.Pending {
					settled = false
				}
			}
		}
		if settled {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

func parseWxH(s string) (w, h uint32, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	wi, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(wi), uint32(hi), nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
