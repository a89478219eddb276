// Package scene defines the boundary between the tile cache and the
// vector content it rasterizes. RasterSource is deliberately opaque: the
// rest of virtex treats a scene as a fixed-intrinsic-size drawable that
// can render itself into a tile-sized pixel buffer at an arbitrary
// affine transform, the same way raster.Pipeline's workers use it.
//
// A real deployment plugs in whatever vector renderer it likes (an SVG
// library, a glyph rasterizer, a generated procedural scene); this
// package only ships a small reference source used by tests and the
// example commands.
package scene

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/gogpu/virtex/canvas"
)

// RasterSource is a piece of vector content that can render itself onto
// a pixel buffer under an affine transform. Implementations are not
// required to be safe for concurrent use by multiple goroutines unless
// they document otherwise; raster.Pipeline gives each worker its own
// scratch buffer but, when a single RasterSource is shared across
// workers, the source itself must tolerate concurrent Render calls.
type RasterSource interface {
	// Size returns the scene's intrinsic size in its own logical
	// coordinate space, before any transform is applied.
	Size() (w, h float64)

	// Render draws the scene onto dst under transform m. dst has
	// already been cleared to the pipeline's configured background
	// color; Render only needs to paint scene content over it.
	Render(dst *canvas.Pixmap, m canvas.Matrix) error
}

// Solid is a RasterSource that fills its entire extent with a single
// color, ignoring the transform beyond its effect on dst's dimensions.
// It is useful for pipeline tests and as a placeholder scene before a
// real vector source has finished loading.
type Solid struct {
	W, H  float64
	Color canvas.RGBA
}

func (s Solid) Size() (float64, float64) { return s.W, s.H }

func (s Solid) Render(dst *canvas.Pixmap, _ canvas.Matrix) error {
	dst.Clear(s.Color)
	return nil
}

// Checker is a RasterSource that paints an axis-aligned checkerboard in
// logical scene space, transformed by m the same way a real vector
// renderer would transform paths before rasterizing. It exercises the
// full per-tile transform math (translate-then-scale for the tile
// origin and LOD) in tests without depending on a vector rasterizer.
type Checker struct {
	W, H     float64
	CellSize float64
	ColorA   canvas.RGBA
	ColorB   canvas.RGBA
}

func (c Checker) Size() (float64, float64) { return c.W, c.H }

func (c Checker) Render(dst *canvas.Pixmap, m canvas.Matrix) error {
	if c.CellSize <= 0 {
		return fmt.Errorf("scene: Checker.CellSize must be positive, got %v", c.CellSize)
	}

	inv := m.Invert()
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			logical := inv.TransformPoint(canvas.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if logical.X < 0 || logical.Y < 0 || logical.X >= c.W || logical.Y >= c.H {
				continue
			}
			cellX := int(math.Floor(logical.X / c.CellSize))
			cellY := int(math.Floor(logical.Y / c.CellSize))
			if (cellX+cellY)%2 == 0 {
				dst.SetPixel(x, y, c.ColorA)
			} else {
				dst.SetPixel(x, y, c.ColorB)
			}
		}
	}
	return nil
}

// Image is a RasterSource backed by a decoded raster image, nearest-
// neighbor-sampled under the tile transform the same way Checker is.
// Its logical scene size is the image's pixel dimensions, so a camera
// transform expressed in scene-pixel units maps 1:1 onto source texels
// at LOD 0.
type Image struct {
	pm *canvas.Pixmap
}

// LoadImage decodes the image file at path (any format registered with
// the standard image package, e.g. via a blank "image/png" import) into
// an Image scene source. Intended to be called once per distinct path
// and cached with a scene.SourceCache, since decoding is not cheap to
// repeat per frame.
func LoadImage(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("scene: opening %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Image{}, fmt.Errorf("scene: decoding %q: %w", path, err)
	}
	return Image{pm: canvas.FromImage(img)}, nil
}

func (i Image) Size() (float64, float64) {
	if i.pm == nil {
		return 0, 0
	}
	return float64(i.pm.Width()), float64(i.pm.Height())
}

func (i Image) Render(dst *canvas.Pixmap, m canvas.Matrix) error {
	if i.pm == nil {
		return fmt.Errorf("scene: Image has no decoded source")
	}

	inv := m.Invert()
	w, h := i.pm.Width(), i.pm.Height()
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			logical := inv.TransformPoint(canvas.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			sx, sy := int(logical.X), int(logical.Y)
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			dst.SetPixel(x, y, i.pm.GetPixel(sx, sy))
		}
	}
	return nil
}
