package theme

import (
	"testing"

	"go-lumen/colormap"
)

func TestRGB(t *testing.T) {
	tests := []struct {
		in   [3]uint8
		want string
	}{
		{[3]uint8{0, 0, 0}, "#000000"},
		{[3]uint8{255, 16, 1}, "#ff1001"},
	}
	for _, tst := range tests {
		if got := string(RGB(tst.in)); got != tst.want {
			t.Errorf("RGB(%v) = %s, expected %s", tst.in, got, tst.want)
		}
	}
}

func TestRoles(t *testing.T) {
	cm, err := colormap.FromHex("test", "#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	th := New(cm)
	if th.BG() != "#000000" || th.Success() != "#ffffff" {
		t.Errorf("bg %s success %s", th.BG(), th.Success())
	}
	if len(th.Symbols.Levels) != 9 {
		t.Errorf("%d levels", len(th.Symbols.Levels))
	}
}
