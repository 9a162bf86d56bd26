package wininput

import (
	"fmt"
	"sort"

	"speedclicker/internal/core/autoclicker"
)

const (
	vkBACK      uint32 = 0x08
	vkTAB       uint32 = 0x09
	vkRETURN    uint32 = 0x0D
	vkSHIFT     uint32 = 0x10
	vkCONTROL   uint32 = 0x11
	vkMENU      uint32 = 0x12
	vkPAUSE     uint32 = 0x13
	vkCAPITAL   uint32 = 0x14
	vkESCAPE    uint32 = 0x1B
	vkSPACE     uint32 = 0x20
	vkPRIOR     uint32 = 0x21
	vkNEXT      uint32 = 0x22
	vkEND       uint32 = 0x23
	vkHOME      uint32 = 0x24
	vkLEFT      uint32 = 0x25
	vkUP        uint32 = 0x26
	vkRIGHT     uint32 = 0x27
	vkDOWN      uint32 = 0x28
	vkSNAPSHOT  uint32 = 0x2C
	vkINSERT    uint32 = 0x2D
	vkDELETE    uint32 = 0x2E
	vk0         uint32 = 0x30
	vk9         uint32 = 0x39
	vkA         uint32 = 0x41
	vkZ         uint32 = 0x5A
	vkLWIN      uint32 = 0x5B
	vkRWIN      uint32 = 0x5C
	vkAPPS      uint32 = 0x5D
	vkNUMPAD0   uint32 = 0x60
	vkNUMPAD9   uint32 = 0x69
	vkMULTIPLY  uint32 = 0x6A
	vkADD       uint32 = 0x6B
	vkSUBTRACT  uint32 = 0x6D
	vkDECIMAL   uint32 = 0x6E
	vkDIVIDE    uint32 = 0x6F
	vkF1        uint32 = 0x70
	vkF24       uint32 = 0x87
	vkNUMLOCK   uint32 = 0x90
	vkSCROLL    uint32 = 0x91
	vkLSHIFT    uint32 = 0xA0
	vkRSHIFT    uint32 = 0xA1
	vkLCONTROL  uint32 = 0xA2
	vkRCONTROL  uint32 = 0xA3
	vkLMENU     uint32 = 0xA4
	vkRMENU     uint32 = 0xA5
	vkOEM1      uint32 = 0xBA
	vkOEMPLUS   uint32 = 0xBB
	vkOEMCOMMA  uint32 = 0xBC
	vkOEMMINUS  uint32 = 0xBD
	vkOEMPERIOD uint32 = 0xBE
	vkOEM2      uint32 = 0xBF
	vkOEM3      uint32 = 0xC0
	vkOEM4      uint32 = 0xDB
	vkOEM5      uint32 = 0xDC
	vkOEM6      uint32 = 0xDD
	vkOEM7      uint32 = 0xDE
)

const llkhfExtended = 0x01

var namedVKTokens = map[uint32]string{
	vkBACK:      "backspace",
	vkTAB:       "tab",
	vkRETURN:    "enter",
	vkPAUSE:     "pause",
	vkCAPITAL:   "caps_lock",
	vkESCAPE:    "esc",
	vkSPACE:     "space",
	vkPRIOR:     "page_up",
	vkNEXT:      "page_down",
	vkEND:       "end",
	vkHOME:      "home",
	vkLEFT:      "left",
	vkUP:        "up",
	vkRIGHT:     "right",
	vkDOWN:      "down",
	vkSNAPSHOT:  "print_screen",
	vkINSERT:    "insert",
	vkDELETE:    "delete",
	vkLWIN:      "cmd_l",
	vkRWIN:      "cmd_r",
	vkAPPS:      "menu",
	vkMULTIPLY:  "kp_multiply",
	vkADD:       "kp_add",
	vkSUBTRACT:  "kp_subtract",
	vkDECIMAL:   "kp_decimal",
	vkDIVIDE:    "kp_divide",
	vkNUMLOCK:   "num_lock",
	vkSCROLL:    "scroll_lock",
	vkLSHIFT:    "shift_l",
	vkRSHIFT:    "shift_r",
	vkLCONTROL:  "ctrl_l",
	vkRCONTROL:  "ctrl_r",
	vkLMENU:     "alt_l",
	vkRMENU:     "alt_r",
	vkOEM1:      ";",
	vkOEMPLUS:   "=",
	vkOEMCOMMA:  ",",
	vkOEMMINUS:  "-",
	vkOEMPERIOD: ".",
	vkOEM2:      "/",
	vkOEM3:      "`",
	vkOEM4:      "[",
	vkOEM5:      "\\",
	vkOEM6:      "]",
	vkOEM7:      "'",
}

var (
	vkToToken map[uint32]string
	tokenToVK map[string]uint32
)

func init() {
	vkToToken = make(map[uint32]string, len(namedVKTokens)+64)
	for vk, token := range namedVKTokens {
		vkToToken[vk] = token
	}
	for vk := vk0; vk <= vk9; vk++ {
		vkToToken[vk] = string(rune('0' + vk - vk0))
	}
	for vk := vkA; vk <= vkZ; vk++ {
		vkToToken[vk] = string(rune('a' + vk - vkA))
	}
	for vk := vkNUMPAD0; vk <= vkNUMPAD9; vk++ {
		vkToToken[vk] = fmt.Sprintf("kp_%d", vk-vkNUMPAD0)
	}
	for vk := vkF1; vk <= vkF24; vk++ {
		vkToToken[vk] = fmt.Sprintf("f%d", vk-vkF1+1)
	}

	tokenToVK = make(map[string]uint32, len(vkToToken))
	for vk, token := range vkToToken {
		tokenToVK[token] = vk
	}
}

// TokenFromVK maps a low-level hook virtual key to a key token. The generic
// shift/control/menu codes are split by the extended-key flag.
func TokenFromVK(vk, flags uint32) (string, bool) {
	switch vk {
	case vkSHIFT:
		return "shift_l", true
	case vkCONTROL:
		if flags&llkhfExtended != 0 {
			return "ctrl_r", true
		}
		return "ctrl_l", true
	case vkMENU:
		if flags&llkhfExtended != 0 {
			return "alt_r", true
		}
		return "alt_l", true
	}
	token, ok := vkToToken[vk]
	return token, ok
}

// VKForToken returns the virtual key for a hotkey token.
func VKForToken(token string) (uint32, error) {
	normalized := autoclicker.NormalizeKey(token)
	if normalized == "" {
		return 0, fmt.Errorf("hotkey is empty")
	}
	vk, ok := tokenToVK[normalized]
	if !ok {
		return 0, fmt.Errorf("no Windows virtual key matches hotkey %q", token)
	}
	return vk, nil
}

// CaptureCandidateVKs lists every mapped virtual key in ascending order.
func CaptureCandidateVKs() []uint32 {
	out := make([]uint32, 0, len(vkToToken))
	for vk := range vkToToken {
		out = append(out, vk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
