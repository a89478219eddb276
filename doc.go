// Package virtex implements a sparse virtual texture cache: a fixed-size
// GPU-resident tile atlas that stands in for arbitrarily large vector
// content, backed by a CPU-side directory that tracks which logical tiles
// currently occupy which physical cache slots.
//
// # Overview
//
// A virtual texture is addressed by TileKey (tile column, row, and level
// of detail). The directory maps TileKey to TileAddress, the physical
// slot in the cache texture holding that tile's rasterized pixels, using
// a growable cuckoo hash table whose layout a GPU shader can reproduce
// bit-for-bit during sampling.
//
// # Architecture
//
//   - key.go / address.go: the TileKey / TileAddress wire types shared
//     by every package below.
//   - directory: the cuckoo hash table mapping TileKey to TileAddress.
//   - texture: slot lifecycle (LRU eviction, Empty/Pending/Rasterized
//     state) built on top of directory.
//   - viewport: decides which tiles a camera or GPU feedback pass needs.
//   - raster: the worker pool that turns scene content into tile pixels.
//   - scene: the content source tiles are rasterized from.
//   - gpurender: packs the directory into the metadata texture a WGSL
//     shader samples, and composites cache tiles onto the screen.
//   - virtexcfg: TOML-based runtime configuration.
//
// # Logging
//
// virtex is silent by default. Call [SetLogger] to attach a structured
// logger; [Logger] returns the current one for sub-packages to share.
package virtex
