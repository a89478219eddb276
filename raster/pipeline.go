package raster

import (
	"math"
	"sync"

	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/canvas"
	"github.com/gogpu/virtex/scene"
)

// Request is a tile waiting to be rasterized: the key identifies what
// content and LOD to render, Address is the cache slot it will occupy.
type Request struct {
	Key     virtex.TileKey
	Address virtex.TileAddress
}

// Result is a finished tile: Pixels is tileBackingSize*tileBackingSize*4
// bytes in the GPU's RGBA byte order, ready for upload at Address.
type Result struct {
	Key     virtex.TileKey
	Address virtex.TileAddress
	Pixels  []byte
}

// Pipeline is the worker pool: N goroutines pull Requests from a
// blocking Stack, rasterize them against a shared scene.RasterSource,
// and push Results onto an unbounded ResultQueue the main goroutine
// drains once per frame.
type Pipeline struct {
	requests *Stack[Request]
	results  ResultQueue[Result]

	source          scene.RasterSource
	tileSize        uint32
	backingSize     uint32
	backgroundColor canvas.RGBA

	wg sync.WaitGroup
}

// TileTransform computes the per-tile affine transform a worker applies
// before rasterizing: translate by the 1-pixel gutter, translate the
// tile's origin to the scene origin, then scale by 2^lod. The gutter
// offset keeps bilinear sampling at tile edges from bleeding into
// neighboring cache tiles.
func TileTransform(key virtex.TileKey, tileSize uint32) canvas.Matrix {
	scale := math.Exp2(float64(key.LOD()))
	sceneOffset := canvas.Translate(-float64(key.Col())*float64(tileSize), -float64(key.Row())*float64(tileSize))
	return canvas.Translate(1, 1).Multiply(sceneOffset.Multiply(canvas.Scale(scale, scale)))
}

// NewPipeline starts workerCount worker goroutines rendering against
// source, each owning a private scratch pixmap sized to tileSize plus
// its 2-pixel gutter.
func NewPipeline(workerCount int, tileSize uint32, backgroundColor canvas.RGBA, source scene.RasterSource) *Pipeline {
	p := &Pipeline{
		requests:        NewStack[Request](),
		source:          source,
		tileSize:        tileSize,
		backingSize:     tileSize + 2,
		backgroundColor: backgroundColor,
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues req for rasterization.
func (p *Pipeline) Submit(req Request) {
	p.requests.Push(req)
}

// Drain returns every Result produced since the last Drain, without
// blocking. Call once per frame from the main thread.
func (p *Pipeline) Drain() []Result {
	return p.results.Drain()
}

// Close stops accepting new work and waits for every worker to exit
// after draining its currently queued requests.
func (p *Pipeline) Close() {
	p.requests.Close()
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	scratch := canvas.NewPixmap(int(p.backingSize), int(p.backingSize))

	for {
		req, ok := p.requests.Pop()
		if !ok {
			return
		}
		p.results.Push(p.renderOne(scratch, req))
	}
}

// renderOne rasterizes a single request behind a panic boundary: any
// exception from the scene source is recovered, the scratch buffer is
// recreated in case it was left in a partially drawn state, and the
// tile is reported with background-colored pixels instead of crashing
// the pipeline.
func (p *Pipeline) renderOne(scratch *canvas.Pixmap, req Request) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			virtex.Logger().Warn("raster: worker recovered from panic, emitting background tile",
				"key", uint32(req.Key), "panic", r)
			*scratch = *canvas.NewPixmap(int(p.backingSize), int(p.backingSize))
			scratch.Clear(p.backgroundColor)
			result = Result{Key: req.Key, Address: req.Address, Pixels: p.swapToWireFormat(scratch)}
		}
	}()

	scratch.Clear(p.backgroundColor)
	transform := TileTransform(req.Key, p.tileSize)
	if err := p.source.Render(scratch, transform); err != nil {
		virtex.Logger().Warn("raster: scene render failed, emitting background tile",
			"key", uint32(req.Key), "error", err)
		scratch.Clear(p.backgroundColor)
	}

	return Result{Key: req.Key, Address: req.Address, Pixels: p.swapToWireFormat(scratch)}
}

// swapToWireFormat copies scratch's pixels into a fresh buffer, since
// Result.Pixels is handed off to the main thread while scratch is
// reused by the worker on its next iteration.
func (p *Pipeline) swapToWireFormat(scratch *canvas.Pixmap) []byte {
	out := make([]byte, len(scratch.Data()))
	copy(out, scratch.Data())
	return out
}
