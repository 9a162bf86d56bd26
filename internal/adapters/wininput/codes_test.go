package wininput

import (
	"testing"

	"speedclicker/internal/core/autoclicker"
)

func TestTokenFromVKMappings(t *testing.T) {
	tests := []struct {
		vk    uint32
		flags uint32
		want  string
	}{
		{vk: vkA, want: "a"},
		{vk: vkZ, want: "z"},
		{vk: vk0 + 7, want: "7"},
		{vk: vkF1 + 5, want: "f6"},
		{vk: vkF24, want: "f24"},
		{vk: vkRETURN, want: "enter"},
		{vk: vkESCAPE, want: "esc"},
		{vk: vkCONTROL, want: "ctrl_l"},
		{vk: vkCONTROL, flags: llkhfExtended, want: "ctrl_r"},
		{vk: vkMENU, flags: llkhfExtended, want: "alt_r"},
		{vk: vkNUMPAD0 + 3, want: "kp_3"},
		{vk: vkOEMMINUS, want: "-"},
	}
	for _, tc := range tests {
		got, ok := TokenFromVK(tc.vk, tc.flags)
		if !ok || got != tc.want {
			t.Fatalf("TokenFromVK(0x%X, %d) = %q, %v; want %q", tc.vk, tc.flags, got, ok, tc.want)
		}
	}

	if _, ok := TokenFromVK(0xFF, 0); ok {
		t.Fatalf("unmapped virtual key should not produce a token")
	}
}

func TestTokensAreNormalized(t *testing.T) {
	for vk, token := range vkToToken {
		if got := autoclicker.NormalizeKey(token); got != token {
			t.Fatalf("token %q for vk 0x%X normalizes to %q", token, vk, got)
		}
	}
}

func TestVKForToken(t *testing.T) {
	tests := map[string]uint32{
		"f6":     vkF1 + 5,
		"F6":     vkF1 + 5,
		"Escape": vkESCAPE,
		"a":      vkA,
		"Prior":  vkPRIOR,
	}
	for token, want := range tests {
		got, err := VKForToken(token)
		if err != nil || got != want {
			t.Fatalf("VKForToken(%q) = 0x%X, %v; want 0x%X", token, got, err, want)
		}
	}
	if _, err := VKForToken("hyper"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
	if _, err := VKForToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestCaptureCandidateVKsSorted(t *testing.T) {
	vks := CaptureCandidateVKs()
	if len(vks) != len(vkToToken) {
		t.Fatalf("len = %d, want %d", len(vks), len(vkToToken))
	}
	for i := 1; i < len(vks); i++ {
		if vks[i-1] >= vks[i] {
			t.Fatalf("virtual keys not sorted at %d", i)
		}
	}
}
