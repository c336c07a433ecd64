package hotkey

import (
	"fmt"
	"strings"
)

// Combo is a parsed key combination like ctrl+alt+v. Key is a single
// lowercase letter, a digit, or "space".
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string
}

func Parse(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "super", "cmd", "win", "meta":
			c.Super = true
		case "":
			return Combo{}, fmt.Errorf("empty key in combo %q", s)
		default:
			if c.Key != "" {
				return Combo{}, fmt.Errorf("combo %q has more than one non-modifier key", s)
			}
			if !validKey(p) {
				return Combo{}, fmt.Errorf("unsupported key %q in combo %q", p, s)
			}
			c.Key = p
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("combo %q has no non-modifier key", s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt && !c.Super {
		return Combo{}, fmt.Errorf("combo %q has no modifier", s)
	}
	return c, nil
}

func validKey(k string) bool {
	if k == "space" {
		return true
	}
	if len(k) != 1 {
		return false
	}
	b := k[0]
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Super {
		parts = append(parts, "super")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
