package autoclicker

import "strings"

// keyAliases folds the spellings used by evdev, X11 keysyms, Windows
// virtual keys and the desktop toolkit into one vocabulary.
var keyAliases = map[string]string{
	"return":       "enter",
	"kp_enter":     "enter",
	"escape":       "esc",
	"spacebar":     "space",
	" ":            "space",
	"back":         "backspace",
	"prior":        "page_up",
	"pageup":       "page_up",
	"page up":      "page_up",
	"next":         "page_down",
	"pagedown":     "page_down",
	"page down":    "page_down",
	"capslock":     "caps_lock",
	"capital":      "caps_lock",
	"numlock":      "num_lock",
	"scrolllock":   "scroll_lock",
	"scroll":       "scroll_lock",
	"leftshift":    "shift_l",
	"lshift":       "shift_l",
	"rightshift":   "shift_r",
	"rshift":       "shift_r",
	"leftctrl":     "ctrl_l",
	"lcontrol":     "ctrl_l",
	"control_l":    "ctrl_l",
	"rightctrl":    "ctrl_r",
	"rcontrol":     "ctrl_r",
	"control_r":    "ctrl_r",
	"leftalt":      "alt_l",
	"lmenu":        "alt_l",
	"rightalt":     "alt_r",
	"rmenu":        "alt_r",
	"alt_gr":       "alt_r",
	"leftmeta":     "cmd_l",
	"lwin":         "cmd_l",
	"super_l":      "cmd_l",
	"rightmeta":    "cmd_r",
	"rwin":         "cmd_r",
	"super_r":      "cmd_r",
	"del":          "delete",
	"ins":          "insert",
	"grave":        "`",
	"minus":        "-",
	"equal":        "=",
	"comma":        ",",
	"dot":          ".",
	"period":       ".",
	"slash":        "/",
	"backslash":    "\\",
	"semicolon":    ";",
	"apostrophe":   "'",
	"leftbrace":    "[",
	"bracketleft":  "[",
	"rightbrace":   "]",
	"bracketright": "]",
}

// NormalizeKey maps a raw key name to its canonical lowercase token. An
// empty result means the key has no usable name.
func NormalizeKey(raw string) string {
	if raw == " " {
		return "space"
	}
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "key_")
	key = strings.TrimPrefix(key, "key.")
	if key == "" {
		return ""
	}
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

// KeysEqual reports whether two raw key names refer to the same key.
func KeysEqual(a, b string) bool {
	na := NormalizeKey(a)
	return na != "" && na == NormalizeKey(b)
}
