//go:build linux

package x11input

import (
	"fmt"
	"strings"

	"speedclicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb/xproto"
)

func buttonIndex(button autoclicker.Button) (byte, error) {
	switch button {
	case autoclicker.ButtonPrimary:
		return xproto.ButtonIndex1, nil
	case autoclicker.ButtonSecondary:
		return xproto.ButtonIndex3, nil
	case autoclicker.ButtonTertiary:
		return xproto.ButtonIndex2, nil
	default:
		return 0, fmt.Errorf("unsupported button %q", button)
	}
}

// tokenKeysyms maps normalized tokens to keysym names where they differ.
var tokenKeysyms = map[string]string{
	"esc":         "Escape",
	"enter":       "Return",
	"tab":         "Tab",
	"space":       "space",
	"backspace":   "BackSpace",
	"shift_l":     "Shift_L",
	"shift_r":     "Shift_R",
	"ctrl_l":      "Control_L",
	"ctrl_r":      "Control_R",
	"alt_l":       "Alt_L",
	"alt_r":       "Alt_R",
	"cmd_l":       "Super_L",
	"cmd_r":       "Super_R",
	"caps_lock":   "Caps_Lock",
	"num_lock":    "Num_Lock",
	"scroll_lock": "Scroll_Lock",
	"page_up":     "Prior",
	"page_down":   "Next",
	"insert":      "Insert",
	"delete":      "Delete",
	"home":        "Home",
	"end":         "End",
	"up":          "Up",
	"down":        "Down",
	"left":        "Left",
	"right":       "Right",
	"menu":        "Menu",
	"pause":       "Pause",
	"-":           "minus",
	"=":           "equal",
	"[":           "bracketleft",
	"]":           "bracketright",
	";":           "semicolon",
	"'":           "apostrophe",
	"`":           "grave",
	"\\":          "backslash",
	",":           "comma",
	".":           "period",
	"/":           "slash",
}

func tokenToKeysym(token string) (string, bool) {
	key := autoclicker.NormalizeKey(token)
	if key == "" {
		return "", false
	}
	if name, ok := tokenKeysyms[key]; ok {
		return name, true
	}
	if len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9') {
		return key, true
	}
	if strings.HasPrefix(key, "f") && isDigits(key[1:]) {
		return strings.ToUpper(key), true
	}
	return "", false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
