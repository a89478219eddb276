// Package canvas provides the small 2D geometry and pixel-buffer toolkit
// shared by virtex's rasterization pipeline and renderer.
//
// It is adapted from gg's root package: the same Matrix/Point/RGBA/Pixmap
// types and conventions, trimmed to the subset the tile cache needs
// (affine transforms, color conversion, raw RGBA pixel buffers) and
// extended with the wire-format and scale helpers virtex's tile pipeline
// and viewport planner rely on.
package canvas
