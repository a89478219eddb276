package texture

import (
	"testing"

	"github.com/gogpu/virtex"
)

// cfgForCapacity builds a Config whose cache holds exactly `tiles` slots
// arranged in a single row, using a small tile size so tests stay cheap.
func cfgForCapacity(tiles uint32) Config {
	const tileSize = 14 // backing size 16
	return Config{
		CacheTextureWidth:  tiles * (tileSize + 2),
		CacheTextureHeight: tileSize + 2,
		TileSize:           tileSize,
		InitialBucketSize:  8,
	}
}

// TestSingleHit is scenario S1: a 16-slot cache, miss then hit on the
// same key after rasterization completes.
func TestSingleHit(t *testing.T) {
	vt := New(cfgForCapacity(16))
	if got := vt.CacheSize(); got != 16 {
		t.Fatalf("CacheSize() = %d, want 16", got)
	}

	key := virtex.NewTileKey(0, 0, 0)

	addr, outcome := vt.RequestTile(key)
	if outcome != CacheMiss {
		t.Fatalf("first RequestTile() outcome = %v, want CacheMiss", outcome)
	}

	vt.MarkAsRasterized(addr, key)

	addr2, outcome2 := vt.RequestTile(key)
	if outcome2 != CacheHit {
		t.Fatalf("second RequestTile() outcome = %v, want CacheHit", outcome2)
	}
	if addr2 != addr {
		t.Fatalf("second RequestTile() address = %v, want %v (same slot)", addr2, addr)
	}
}

// TestEviction is scenario S2: with capacity 2, after two tiles are
// rasterized and therefore eligible for eviction, a third distinct
// request reclaims the least-recently-used slot.
func TestEviction(t *testing.T) {
	vt := New(cfgForCapacity(2))

	k0 := virtex.NewTileKey(0, 0, 0)
	k1 := virtex.NewTileKey(1, 0, 0)
	k2 := virtex.NewTileKey(2, 0, 0)

	a0, out0 := vt.RequestTile(k0)
	if out0 != CacheMiss {
		t.Fatalf("request k0 outcome = %v, want CacheMiss", out0)
	}
	a1, out1 := vt.RequestTile(k1)
	if out1 != CacheMiss {
		t.Fatalf("request k1 outcome = %v, want CacheMiss", out1)
	}

	vt.MarkAsRasterized(a0, k0)
	vt.MarkAsRasterized(a1, k1)

	a2, out2 := vt.RequestTile(k2)
	if out2 != CacheMiss {
		t.Fatalf("request k2 outcome = %v, want CacheMiss", out2)
	}
	if a2 != a0 {
		t.Fatalf("request k2 address = %v, want %v (LRU slot of k0)", a2, a0)
	}

	if _, ok := vt.dir.Get(k0); ok {
		t.Error("k0 should have been evicted from the directory")
	}
}

// TestPendingProtection is scenario S3: with capacity 1, a Pending slot
// cannot be evicted, so a second distinct request reports CacheFull.
func TestPendingProtection(t *testing.T) {
	vt := New(cfgForCapacity(1))

	k0 := virtex.NewTileKey(0, 0, 0)
	k1 := virtex.NewTileKey(1, 0, 0)

	if _, outcome := vt.RequestTile(k0); outcome != CacheMiss {
		t.Fatalf("request k0 outcome = %v, want CacheMiss", outcome)
	}

	if _, outcome := vt.RequestTile(k1); outcome != CacheFull {
		t.Fatalf("request k1 outcome = %v, want CacheFull", outcome)
	}
}

// TestPendingReturnsCachePending verifies a second request for a key
// already in flight reports CachePending rather than re-enqueuing work.
func TestPendingReturnsCachePending(t *testing.T) {
	vt := New(cfgForCapacity(4))
	key := virtex.NewTileKey(0, 0, 0)

	addr, _ := vt.RequestTile(key)

	addr2, outcome := vt.RequestTile(key)
	if outcome != CachePending {
		t.Fatalf("RequestTile() outcome = %v, want CachePending", outcome)
	}
	if addr2 != addr {
		t.Fatalf("RequestTile() address = %v, want %v", addr2, addr)
	}
}

// TestMarkAsRasterizedRejectsStaleKey checks the invariant that a
// background-thread report for a key that no longer matches the slot's
// current assignment is treated as a programmer error, never silently
// accepted.
func TestMarkAsRasterizedRejectsStaleKey(t *testing.T) {
	vt := New(cfgForCapacity(4))
	key := virtex.NewTileKey(0, 0, 0)
	addr, _ := vt.RequestTile(key)

	defer func() {
		if recover() == nil {
			t.Error("MarkAsRasterized with a stale key should panic")
		}
	}()
	vt.MarkAsRasterized(addr, virtex.NewTileKey(9, 9, 0))
}

// TestAddressToTileCoords checks the cache-texture tile grid mapping
// used by gpurender to place uploaded pixels.
func TestAddressToTileCoords(t *testing.T) {
	vt := New(cfgForCapacity(4))
	col, row := vt.AddressToTileCoords(virtex.TileAddress(3))
	if col != 3 || row != 0 {
		t.Errorf("AddressToTileCoords(3) = (%d,%d), want (3,0)", col, row)
	}
}

// TestEvictionNeverTargetsPendingSlot drives a larger cache through a mix
// of pending and rasterized slots and confirms eviction always lands on
// a non-Pending slot (property 4/5: Pending immunity, LRU order).
func TestEvictionNeverTargetsPendingSlot(t *testing.T) {
	vt := New(cfgForCapacity(3))

	k0 := virtex.NewTileKey(0, 0, 0)
	k1 := virtex.NewTileKey(1, 0, 0)
	k2 := virtex.NewTileKey(2, 0, 0)
	k3 := virtex.NewTileKey(3, 0, 0)

	a0, _ := vt.RequestTile(k0)
	a1, _ := vt.RequestTile(k1)
	_, _ = vt.RequestTile(k2) // left Pending on purpose

	vt.MarkAsRasterized(a0, k0)
	vt.MarkAsRasterized(a1, k1)

	// a0 is now LRU-oldest among rasterized slots; k3 should reclaim it.
	a3, outcome := vt.RequestTile(k3)
	if outcome != CacheMiss {
		t.Fatalf("request k3 outcome = %v, want CacheMiss", outcome)
	}
	if a3 != a0 {
		t.Fatalf("request k3 address = %v, want %v", a3, a0)
	}

	for i, tile := range vt.Tiles() {
		if tile.HasKey && tile.Key == k2 && tile.Status != Pending {
			t.Errorf("slot %d holding k2 should still be Pending, got %v", i, tile.Status)
		}
	}
}
