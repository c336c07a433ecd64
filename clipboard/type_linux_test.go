//go:build linux

package clipboard

import "testing"

func TestCharToKey(t *testing.T) {
	cases := []struct {
		in    byte
		code  uint16
		shift bool
		ok    bool
	}{
		{'a', 30, false, true},
		{'Z', 44, true, true},
		{'0', 11, false, true},
		{'9', 10, false, true},
		{' ', 57, false, true},
		{'\n', 28, false, true},
		{'?', 53, true, true},
		{'.', 52, false, true},
		{0xc3, 0, false, false}, // non-ASCII byte is skipped
	}
	for _, c := range cases {
		code, shift, ok := charToKey(c.in)
		if code != c.code || shift != c.shift || ok != c.ok {
			t.Errorf("charToKey(%q) = (%d, %v, %v), want (%d, %v, %v)",
				c.in, code, shift, ok, c.code, c.shift, c.ok)
		}
	}
}
