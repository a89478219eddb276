package virtex

// TileKey identifies a single tile of virtual texture content: its column,
// row, and level of detail, packed into a uint32 so it can be hashed and
// compared cheaply and reproduced bit-for-bit on the GPU side.
//
// Bit layout, MSB to LSB:
//
//	[31:19] row   (13 bits, unsigned, 0..8191)
//	[18:6]  col   (13 bits, unsigned, 0..8191)
//	[5:0]   lod   (6 bits, two's complement signed, -32..31)
type TileKey uint32

const (
	tileKeyLODBits  = 6
	tileKeyLODMask  = 1<<tileKeyLODBits - 1
	tileKeyColBits  = 13
	tileKeyColShift = tileKeyLODBits
	tileKeyColMask  = 1<<tileKeyColBits - 1
	tileKeyRowShift = tileKeyLODBits + tileKeyColBits

	// MaxTileCoord is one past the largest column or row a TileKey can
	// address.
	MaxTileCoord = 1 << tileKeyColBits

	// MinLOD and MaxLOD bound the level of detail a TileKey can carry.
	MinLOD = -32
	MaxLOD = 31
)

// NewTileKey packs a tile column, row, and level of detail into a TileKey.
// col and row must be in [0, MaxTileCoord); lod must be in [MinLOD, MaxLOD].
// Out-of-range inputs are silently masked to their low bits, matching the
// wrapping packing behavior tile producers rely on upstream of this call.
func NewTileKey(col, row int32, lod int8) TileKey {
	return TileKey(
		(uint32(row) << tileKeyRowShift) |
			((uint32(col) & tileKeyColMask) << tileKeyColShift) |
			(uint32(lod) & tileKeyLODMask),
	)
}

// Col returns the tile's column.
func (k TileKey) Col() int32 {
	return int32((uint32(k) >> tileKeyColShift) & tileKeyColMask)
}

// Row returns the tile's row.
func (k TileKey) Row() int32 {
	return int32(uint32(k) >> tileKeyRowShift)
}

// LOD returns the tile's level of detail, sign-extended from its 6-bit
// two's-complement field.
func (k TileKey) LOD() int8 {
	shifted := uint8(k<<2) & 0xfc
	return int8(shifted) >> 2
}

// Hash computes the 32-bit finalized hash of the key under seed. The
// mixing function is the Murmur3-style finalizer: it must match the
// CPU and GPU implementations bit-for-bit since the cache directory's
// layout is sampled directly by a shader.
func (k TileKey) Hash(seed uint32) uint32 {
	h := uint32(k)
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h ^ seed
}
