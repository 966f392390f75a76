package cic

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRegion = errors.New("cic: unknown region")

// Region is the video-standard variant of the console.
type Region uint8

const (
	NTSC Region = iota
	PAL
)

func (r Region) String() string {
	switch r {
	case NTSC:
		return "ntsc"
	case PAL:
		return "pal"
	default:
		return fmt.Sprintf("region(%d)", uint8(r))
	}
}

// ParseRegion accepts "ntsc" or "pal", case-insensitive.
func ParseRegion(raw string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ntsc":
		return NTSC, nil
	case "pal":
		return PAL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, raw)
	}
}

// HelloNibble is the handshake identifier: 0001 for NTSC, 0101 for PAL.
func (r Region) HelloNibble() Nibble {
	hello := Nibble(0x1)
	if r == PAL {
		hello |= 0x4
	}
	return hello
}

// CompareStep is the compare-mode walk direction: NTSC walks up, PAL down.
func (r Region) CompareStep() int {
	if r == PAL {
		return -1
	}
	return 1
}

var ramInitNTSC = SessionMemory{
	0xE, 0x0, 0x9, 0xA, 0x1, 0x8, 0x5, 0xA, 0x1, 0x3, 0xE, 0x1, 0x0, 0xD, 0xE, 0xC,
	0x0, 0xB, 0x1, 0x4, 0xF, 0x8, 0xB, 0x5, 0x7, 0xC, 0xD, 0x6, 0x1, 0xE, 0x9, 0x8,
}

var ramInitPAL = SessionMemory{
	0xE, 0x0, 0x4, 0xF, 0x5, 0x1, 0x2, 0x1, 0x7, 0x1, 0x9, 0x8, 0x5, 0x7, 0x5, 0xA,
	0x0, 0xB, 0x1, 0x2, 0x3, 0xF, 0x8, 0x2, 0x7, 0x1, 0x9, 0x8, 0x1, 0x1, 0x5, 0xC,
}

// InitialMemory returns a copy of the region's RAM image.
func (r Region) InitialMemory() SessionMemory {
	if r == PAL {
		return ramInitPAL
	}
	return ramInitNTSC
}
