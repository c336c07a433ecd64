package hotkey

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Combo
	}{
		{"ctrl+alt+v", Combo{Ctrl: true, Alt: true, Key: "v"}},
		{"ctrl+shift+space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"Ctrl+Alt+V", Combo{Ctrl: true, Alt: true, Key: "v"}},
		{"super+1", Combo{Super: true, Key: "1"}},
		{"cmd+shift+d", Combo{Super: true, Shift: true, Key: "d"}},
		{" ctrl + alt + v ", Combo{Ctrl: true, Alt: true, Key: "v"}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	bad := []string{
		"",
		"ctrl+alt",    // no key
		"v",           // no modifier
		"ctrl+v+x",    // two keys
		"ctrl+enter",  // unsupported key
		"ctrl++v",     // empty part
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestComboString(t *testing.T) {
	c := Combo{Ctrl: true, Alt: true, Key: "v"}
	if got := c.String(); got != "ctrl+alt+v" {
		t.Errorf("String() = %q", got)
	}
}
