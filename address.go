package virtex

// TileAddress identifies a physical slot in the cache texture: the linear
// index of a fixed-size tile region within the cache's tile grid.
type TileAddress uint32

// AddressNone is the sentinel TileAddress meaning "no slot assigned".
const AddressNone TileAddress = ^TileAddress(0)

// Valid reports whether a is a real slot address, as opposed to
// AddressNone.
func (a TileAddress) Valid() bool {
	return a != AddressNone
}

// Coords returns the (col, row) position of address a within a cache
// texture tilesAcross tiles wide.
func (a TileAddress) Coords(tilesAcross int) (col, row int) {
	col = int(a) % tilesAcross
	row = int(a) / tilesAcross
	return col, row
}
