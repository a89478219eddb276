package virtex

import "testing"

func TestTileKeyRoundTrip(t *testing.T) {
	cases := []struct {
		col, row int32
		lod      int8
	}{
		{0, 0, 0},
		{17, 42, -3},
		{8191, 8191, 31},
		{8191, 8191, -32},
		{1, 0, -1},
		{0, 1, 1},
	}

	for _, c := range cases {
		k := NewTileKey(c.col, c.row, c.lod)
		if got := k.Col(); got != c.col {
			t.Errorf("NewTileKey(%d,%d,%d).Col() = %d, want %d", c.col, c.row, c.lod, got, c.col)
		}
		if got := k.Row(); got != c.row {
			t.Errorf("NewTileKey(%d,%d,%d).Row() = %d, want %d", c.col, c.row, c.lod, got, c.row)
		}
		if got := k.LOD(); got != c.lod {
			t.Errorf("NewTileKey(%d,%d,%d).LOD() = %d, want %d", c.col, c.row, c.lod, got, c.lod)
		}
	}
}

// TestTileKeyHashGoldenValue pins the CPU hash finalizer against a value
// computed independently from the canonical 32-bit multiplicative
// finalizer, guarding against an accidental change to the mixing
// constants or operation order that would desynchronize the CPU
// directory from its GPU shader counterpart.
func TestTileKeyHashGoldenValue(t *testing.T) {
	k := NewTileKey(17, 42, -3)
	const wantKey = TileKey(0x150047d)
	if k != wantKey {
		t.Fatalf("NewTileKey(17,42,-3) = %#x, want %#x", uint32(k), uint32(wantKey))
	}

	const want = 0x6ca43dc8
	if got := k.Hash(0xC0FFEE); got != want {
		t.Errorf("TileKey(%#x).Hash(0xC0FFEE) = %#x, want %#x", uint32(k), got, uint32(want))
	}
}

func TestTileKeyHashVariesWithSeed(t *testing.T) {
	k := NewTileKey(5, 5, 0)
	if k.Hash(1) == k.Hash(2) {
		t.Error("Hash should differ across seeds for almost all keys")
	}
}

func TestTileKeyDistinctForDistinctInputs(t *testing.T) {
	a := NewTileKey(1, 2, 0)
	b := NewTileKey(1, 2, 1)
	c := NewTileKey(2, 1, 0)
	if a == b || a == c || b == c {
		t.Error("distinct (col,row,lod) tuples must yield distinct TileKeys")
	}
}
