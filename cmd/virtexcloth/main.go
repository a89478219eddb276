// Command virtexcloth drives the viewport.Feedback planner end-to-end
// against a synthetic deforming-mesh UV feedback buffer, standing in for
// a live GPU "prepare" pass over a cloth-like deforming surface. It
// demonstrates variant B of the viewport planner (tile keys decoded from
// a feedback readback rather than computed analytically) without
// requiring a 3-D mesh solver or a GPU device, both out of scope for
// this tool.
package main

import (
	"flag"
	"fmt"
	_ "image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/gogpu/virtex"
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
		frames     = flag.Int("frames", 8, "number of deformation frames to simulate")
		gridSize   = flag.Int("grid", 24, "feedback readback grid resolution (gridSize x gridSize)")
		verbose    = flag.Bool("v", false, "enable info-level logging")
	)
	flag.Parse()

	if *verbose {
		virtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	if flag.NArg() < 1 {
		log.Fatal("usage: virtexcloth [flags] path_to_scene")
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

	if err := run(cfg, source, *frames, *gridSize); err != nil {
		log.Fatalf("simulate: %v", err)
	}
}

// run drives frames iterations of: synthesize a feedback readback for
// the mesh's current deformation phase, decode it into needed tiles via
// viewport.Feedback, submit misses to the pipeline, and drain results.
// There is no display output: the point of this tool is to exercise the
// Feedback planner's dedup and LOD-decode path against a changing
// readback, which cmd/virtexdemo's Planar path never touches.
func run(cfg virtexcfg.Config, source scene.Image, frames, gridSize int) error {
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
	planner := &viewport.Feedback{Texture: vt}

	sceneW, sceneH := source.Size()

	for i := 0; i < frames; i++ {
		phase := float64(i) / float64(frames) * 2 * math.Pi
		pixels := synthesizeFeedback(gridSize, sceneW, sceneH, cfg.TileSize, phase)

		needed := planner.RequestFromReadback(pixels)
		for _, n := range needed {
			pipeline.Submit(raster.Request{Key: n.Key, Address: n.Address})
		}

		if err := renderer.Advance(); err != nil {
			return err
		}

		log.Printf("frame %d: %d tiles requested, phase=%.2f", i, len(needed), phase)
	}

	return nil
}

// synthesizeFeedback stands in for a GPU "prepare" pass over a deforming
// mesh: it samples a sinusoidal displacement field across a gridSize x
// gridSize screen grid and decodes each sample into the (tile, LOD) it
// would have resolved to, the same shape a real fragment shader's
// feedback target would produce. The sinusoid gives each frame a
// different, overlapping footprint so RequestFromReadback's per-call
// dedup has repeated keys to collapse, and so cache occupancy changes
// frame to frame the way deforming cloth would.
func synthesizeFeedback(gridSize int, sceneW, sceneH float64, tileSize uint32, phase float64) []viewport.Pixel {
	if gridSize < 2 {
		gridSize = 2
	}
	pixels := make([]viewport.Pixel, 0, gridSize*gridSize)
	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			u := float64(gx) / float64(gridSize-1)
			v := float64(gy) / float64(gridSize-1)

			displacement := 0.15 * math.Sin(phase+u*4*math.Pi) * math.Cos(phase+v*4*math.Pi)
			sceneX := (u + displacement) * sceneW
			sceneY := (v + displacement) * sceneH
			if sceneX < 0 || sceneY < 0 || sceneX >= sceneW || sceneY >= sceneH {
				continue
			}

			// The stand-in derivative follows the magnitude of the
			// displacement at this sample; a larger value selects a higher
			// (finer) LOD.
			derivative := math.Abs(displacement) + 0.02
			lod := int8(math.Floor(math.Log2(derivative * 8)))
			if lod < virtex.MinLOD {
				lod = virtex.MinLOD
			}
			if lod > virtex.MaxLOD {
				lod = virtex.MaxLOD
			}

			scale := math.Exp2(float64(lod))
			col := int32(sceneX * scale / float64(tileSize))
			row := int32(sceneY * scale / float64(tileSize))

			pixels = append(pixels, viewport.Pixel{X: col, Y: row, LOD: lod, Alpha: 1})
		}
	}
	return pixels
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
