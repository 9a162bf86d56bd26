//go:build linux

package linuxinput

import (
	"testing"

	"speedclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

func TestKeyTokenUsesNormalizedNames(t *testing.T) {
	tests := map[evdev.EvCode]string{
		evdev.KEY_F6:       "f6",
		evdev.KEY_A:        "a",
		evdev.KEY_LEFTCTRL: "ctrl_l",
		evdev.KEY_ESC:      "esc",
		evdev.KEY_ENTER:    "enter",
		evdev.KEY_PAGEUP:   "page_up",
	}
	for code, want := range tests {
		if got := KeyToken(uint16(code)); got != want {
			t.Fatalf("KeyToken(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestCodeForTokenRoundTrip(t *testing.T) {
	for _, token := range []string{"f6", "a", "ctrl_l", "esc", "space", "F12"} {
		code, err := CodeForToken(token)
		if err != nil {
			t.Fatalf("CodeForToken(%q) error = %v", token, err)
		}
		if got := KeyToken(code); got != autoclicker.NormalizeKey(token) {
			t.Fatalf("KeyToken(CodeForToken(%q)) = %q", token, got)
		}
	}
	if _, err := CodeForToken("not-a-key"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
	if _, err := CodeForToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestButtonCodes(t *testing.T) {
	tests := map[autoclicker.Button]evdev.EvCode{
		autoclicker.ButtonPrimary:   evdev.BTN_LEFT,
		autoclicker.ButtonSecondary: evdev.BTN_RIGHT,
		autoclicker.ButtonTertiary:  evdev.BTN_MIDDLE,
	}
	for button, want := range tests {
		got, err := buttonCode(button)
		if err != nil || got != want {
			t.Fatalf("buttonCode(%q) = %v, %v; want %v", button, got, err, want)
		}
	}
	if _, err := buttonCode("thumb"); err == nil {
		t.Fatalf("expected error for unknown button")
	}
}
