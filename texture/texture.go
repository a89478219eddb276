// Package texture implements VirtualTexture: the fixed-size cache slot
// table backing a sparse virtual texture, with LRU eviction and the
// Empty/Pending/Rasterized slot lifecycle.
//
// All mutation happens on the caller's thread (by contract, the main
// thread that also owns the GPU device); VirtualTexture performs no
// internal locking.
package texture

import (
	"github.com/gogpu/virtex"
	"github.com/gogpu/virtex/directory"
)

// Status is a cache slot's position in its lifecycle.
type Status int

const (
	// Empty slots hold no tile and are immediately eligible for reuse.
	Empty Status = iota
	// Pending slots have been assigned to a key whose rasterization is
	// in flight. Pending slots are never evicted.
	Pending
	// Rasterized slots hold valid pixels for their assigned key.
	Rasterized
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Pending:
		return "Pending"
	case Rasterized:
		return "Rasterized"
	default:
		return "Status(?)"
	}
}

// Entry describes one slot of the cache texture.
type Entry struct {
	Address virtex.TileAddress
	Key     virtex.TileKey
	HasKey  bool
	Status  Status
}

// Outcome reports what RequestTile did for a given key.
type Outcome int

const (
	// CacheFull means no slot was available and none could be evicted
	// (every slot is Pending).
	CacheFull Outcome = iota
	// CacheHit means the key already has rasterized pixels.
	CacheHit
	// CachePending means the key's tile is already in flight.
	CachePending
	// CacheMiss means a fresh slot was assigned; the caller must enqueue
	// a rasterization request for it.
	CacheMiss
)

func (o Outcome) String() string {
	switch o {
	case CacheFull:
		return "CacheFull"
	case CacheHit:
		return "CacheHit"
	case CachePending:
		return "CachePending"
	case CacheMiss:
		return "CacheMiss"
	default:
		return "Outcome(?)"
	}
}

// VirtualTexture tracks which tiles occupy which slots of a fixed-size
// cache texture, with LRU eviction among non-Pending slots.
type VirtualTexture struct {
	dir   *directory.Directory
	lru   *lruList
	tiles []Entry
	nodes []*lruNode // nodes[address] is that slot's LRU list node

	nextFreeTile virtex.TileAddress

	tilesAcross uint32
	tilesDown   uint32
	tileSize    uint32
}

// Config bundles VirtualTexture construction parameters.
type Config struct {
	// CacheTextureWidth and CacheTextureHeight are the cache texture's
	// pixel dimensions.
	CacheTextureWidth  uint32
	CacheTextureHeight uint32
	// TileSize is one tile's content width/height in pixels, excluding
	// the 1-pixel gutter on each side.
	TileSize uint32
	// InitialBucketSize seeds the underlying directory; must be a power
	// of two no smaller than 2.
	InitialBucketSize uint32
}

// New constructs a VirtualTexture whose cache texture is divided into
// tiles of TileBackingSize() pixels each, every slot starting Empty.
func New(cfg Config) *VirtualTexture {
	vt := &VirtualTexture{
		dir:         directory.New(cfg.InitialBucketSize),
		lru:         newLRUList(),
		tilesAcross: cfg.CacheTextureWidth / tileBackingSize(cfg.TileSize),
		tilesDown:   cfg.CacheTextureHeight / tileBackingSize(cfg.TileSize),
		tileSize:    cfg.TileSize,
	}

	size := vt.CacheSize()
	vt.tiles = make([]Entry, size)
	vt.nodes = make([]*lruNode, size)
	for i := range vt.tiles {
		vt.tiles[i] = Entry{Address: virtex.TileAddress(i), Status: Empty}
	}

	return vt
}

func tileBackingSize(tileSize uint32) uint32 {
	return tileSize + 2
}

// Directory returns the tile directory backing this texture, so
// gpurender can pack its bucket contents and seeds into the metadata
// texture without VirtualTexture needing to know anything about GPU
// upload formats.
func (vt *VirtualTexture) Directory() *directory.Directory { return vt.dir }

// TileSize returns the tile content size in pixels (excluding gutter).
func (vt *VirtualTexture) TileSize() uint32 { return vt.tileSize }

// TileBackingSize returns the tile size including its 1-pixel gutter on
// each edge, used to avoid bilinear bleed between adjacent cache tiles.
func (vt *VirtualTexture) TileBackingSize() uint32 { return tileBackingSize(vt.tileSize) }

// CacheSize returns the total number of slots in the cache.
func (vt *VirtualTexture) CacheSize() uint32 { return vt.tilesAcross * vt.tilesDown }

// TilesAcross returns how many tile columns the cache texture holds.
func (vt *VirtualTexture) TilesAcross() uint32 { return vt.tilesAcross }

// TilesDown returns how many tile rows the cache texture holds.
func (vt *VirtualTexture) TilesDown() uint32 { return vt.tilesDown }

// AddressToTileCoords converts a slot address to its (col, row) position
// within the cache texture's tile grid.
func (vt *VirtualTexture) AddressToTileCoords(addr virtex.TileAddress) (col, row uint32) {
	return uint32(addr) % vt.tilesAcross, uint32(addr) / vt.tilesAcross
}

// Tiles returns the current slot table. Callers must not retain the
// slice across calls that mutate the texture.
func (vt *VirtualTexture) Tiles() []Entry { return vt.tiles }

// RequestTile looks up key, returning its address and rasterization
// status. A hit, Pending or Rasterized, moves the slot to the front of
// the LRU list.
// A miss assigns a fresh slot (evicting the least-recently-used
// non-Pending slot if the cache has filled), marks it Pending, and
// returns CacheMiss so the caller can enqueue a rasterization request.
func (vt *VirtualTexture) RequestTile(key virtex.TileKey) (virtex.TileAddress, Outcome) {
	if addr, ok := vt.dir.Get(key); ok {
		vt.lru.MoveToFront(vt.nodes[addr])

		tile := &vt.tiles[addr]
		switch tile.Status {
		case Pending:
			return addr, CachePending
		case Rasterized:
			return addr, CacheHit
		default:
			panic("texture: directory entry points at an Empty slot")
		}
	}

	addr, ok := vt.nextFreeSlot()
	if !ok {
		return virtex.AddressNone, CacheFull
	}

	tile := &vt.tiles[addr]
	tile.Key = key
	tile.HasKey = true
	tile.Status = Pending

	vt.dir.Insert(key, addr)
	vt.nodes[addr] = vt.lru.PushFront(uint32(addr))

	return addr, CacheMiss
}

// nextFreeSlot returns an Empty or Rasterized slot to reuse, filling
// fresh slots first and otherwise evicting the LRU tail. Pending slots
// encountered during the eviction scan are parked back onto the tail so
// they remain candidates for a later scan once they finish rasterizing.
func (vt *VirtualTexture) nextFreeSlot() (virtex.TileAddress, bool) {
	if uint32(vt.nextFreeTile) < vt.CacheSize() {
		addr := vt.nextFreeTile
		vt.nextFreeTile++
		return addr, true
	}

	var parked []*lruNode
	var victim *lruNode
	for {
		node := vt.lru.PopBack()
		if node == nil {
			break
		}
		if vt.tiles[node.addr].Status == Pending {
			parked = append(parked, node)
			continue
		}
		victim = node
		break
	}

	for _, node := range parked {
		vt.lru.PushBack(node)
	}

	if victim == nil {
		return virtex.AddressNone, false
	}

	addr := virtex.TileAddress(victim.addr)
	tile := &vt.tiles[addr]
	if tile.Status == Rasterized {
		vt.dir.Remove(tile.Key)
	}
	tile.Status = Empty
	tile.HasKey = false

	// victim was unlinked by PopBack; RequestTile's PushFront below
	// creates this slot's new LRU node once it is reassigned.
	return addr, true
}

// MarkAsRasterized transitions a Pending slot to Rasterized once a
// worker reports finished pixels. It is an error for the slot's current
// key to differ from key: Pending slots are never evicted, so a stale
// report means the caller's bookkeeping has diverged from the texture's.
func (vt *VirtualTexture) MarkAsRasterized(addr virtex.TileAddress, key virtex.TileKey) {
	tile := &vt.tiles[addr]
	if !tile.HasKey || tile.Key != key {
		panic("texture: MarkAsRasterized reported a stale key for its slot")
	}
	if tile.Status != Pending {
		panic("texture: MarkAsRasterized called on a non-Pending slot")
	}
	tile.Status = Rasterized
}
