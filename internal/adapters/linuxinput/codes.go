//go:build linux

package linuxinput

import (
	"fmt"
	"strings"

	"speedclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

func buttonCode(button autoclicker.Button) (evdev.EvCode, error) {
	switch button {
	case autoclicker.ButtonPrimary:
		return evdev.BTN_LEFT, nil
	case autoclicker.ButtonSecondary:
		return evdev.BTN_RIGHT, nil
	case autoclicker.ButtonTertiary:
		return evdev.BTN_MIDDLE, nil
	default:
		return 0, fmt.Errorf("unsupported button %q", button)
	}
}

// KeyToken turns an EV_KEY code into a normalized key token, so KEY_F6
// becomes "f6" and KEY_LEFTCTRL becomes "ctrl_l". Unnamed codes yield "".
func KeyToken(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name == "" {
		return ""
	}
	return autoclicker.NormalizeKey(name)
}

// CodeForToken finds the EV_KEY code whose name normalizes to token.
func CodeForToken(token string) (uint16, error) {
	want := autoclicker.NormalizeKey(token)
	if want == "" {
		return 0, fmt.Errorf("hotkey is empty")
	}
	direct := "KEY_" + strings.ToUpper(want)
	if code, ok := evdev.KEYFromString[direct]; ok {
		return uint16(code), nil
	}
	for name, code := range evdev.KEYFromString {
		if autoclicker.NormalizeKey(name) == want {
			return uint16(code), nil
		}
	}
	return 0, fmt.Errorf("no evdev key matches hotkey %q", token)
}
