package virtex

import "testing"

func TestAddressNoneInvalid(t *testing.T) {
	if AddressNone.Valid() {
		t.Error("AddressNone.Valid() = true, want false")
	}
}

func TestAddressValid(t *testing.T) {
	a := TileAddress(3)
	if !a.Valid() {
		t.Error("TileAddress(3).Valid() = false, want true")
	}
}

func TestAddressCoords(t *testing.T) {
	a := TileAddress(10)
	col, row := a.Coords(4)
	if col != 2 || row != 2 {
		t.Errorf("TileAddress(10).Coords(4) = (%d,%d), want (2,2)", col, row)
	}
}
