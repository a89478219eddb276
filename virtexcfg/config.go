// Package virtexcfg loads the optional TOML configuration file shared by
// cmd/virtexdemo and cmd/virtexcloth over the built-in defaults (the file
// wins over the defaults); the commands then apply their CLI flag
// overrides on top.
//
// Grounded on noisetorch-NoiseTorch/config.go's load-then-override shape,
// adapted from a fixed on-disk path to an explicit, optional path argument
// since these commands are invoked per-run rather than as a persistent
// desktop application with a fixed config directory.
package virtexcfg

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/virtex/canvas"
)

// Config bundles every tunable the demo commands expose, either through
// an on-disk TOML file or through equivalent CLI flags.
type Config struct {
	TileSize                 uint32  `toml:"tile_size"`
	CacheTilesAcross         uint32  `toml:"cache_tiles_across"`
	CacheTilesDown           uint32  `toml:"cache_tiles_down"`
	InitialBucketCount       uint32  `toml:"initial_bucket_count"`
	Workers                  int     `toml:"workers"`
	BackgroundColor          string  `toml:"background_color"`
	DerivativesViewportScale float64 `toml:"derivatives_viewport_scale_factor"`
}

// Default returns the built-in configuration used when no file is given
// and no flag overrides a field.
func Default() Config {
	return Config{
		TileSize:                 256,
		CacheTilesAcross:         16,
		CacheTilesDown:           16,
		InitialBucketCount:       256,
		Workers:                  0, // 0 means runtime.NumCPU(), resolved by the caller
		BackgroundColor:          "#000000",
		DerivativesViewportScale: 1.0,
	}
}

// Load reads a TOML file at path into cfg, overwriting only the fields
// present in the file; fields cfg already held (typically Default())
// survive for anything the file omits. An empty path is a no-op, so
// callers can pass through a possibly-unset --config flag unconditionally.
func Load(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("virtexcfg: decoding %q: %w", path, err)
	}
	return nil
}

// BackgroundRGBA parses BackgroundColor as a hex color, per canvas.Hex's
// accepted formats ("RGB", "RGBA", "RRGGBB", "RRGGBBAA").
func (c Config) BackgroundRGBA() canvas.RGBA {
	return canvas.Hex(c.BackgroundColor)
}

// Validate reports the first configuration error found, if any.
func (c Config) Validate() error {
	if c.TileSize == 0 {
		return fmt.Errorf("virtexcfg: tile_size must be positive")
	}
	if c.CacheTilesAcross == 0 || c.CacheTilesDown == 0 {
		return fmt.Errorf("virtexcfg: cache_tiles_across and cache_tiles_down must be positive")
	}
	if c.InitialBucketCount < 2 {
		return fmt.Errorf("virtexcfg: initial_bucket_count must be at least 2")
	}
	return nil
}
