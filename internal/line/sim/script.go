package sim

import (
	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/protocol"
)

// Script builds the bits a console presents during one boot, tracking the
// device memory the same way the device does so compare-mode padding has the
// right length.
type Script struct {
	region cic.Region
	mem    cic.SessionMemory
	bits   []line.Bit
}

// NewScript starts a boot script with the two drain nibbles the host sends
// after the checksum.
func NewScript(region cic.Region, drainLow, drainHigh cic.Nibble) *Script {
	s := &Script{region: region, mem: region.InitialMemory()}
	s.mem.Set(0x01, drainLow)
	s.mem.Set(0x11, drainHigh)
	s.nibble(drainLow)
	s.nibble(drainHigh)
	return s
}

func (s *Script) nibble(n cic.Nibble) {
	for shift := 3; shift >= 0; shift-- {
		s.bits = append(s.bits, line.Bit(n>>shift)&1)
	}
}

func (s *Script) command(c protocol.Command) {
	s.bits = append(s.bits, line.Bit(c>>1)&1, line.Bit(c)&1)
}

// Compare requests one compare pass and pads every step with a 1 bit.
func (s *Script) Compare() *Script {
	s.command(protocol.CommandCompare)
	for i := 0; i < protocol.CompareRounds; i++ {
		cic.CompareRound(s.mem.High())
	}
	start := cic.CompareStart(&s.mem)
	for i := 0; i < cic.CompareSteps(s.region, start); i++ {
		s.bits = append(s.bits, 1)
	}
	return s
}

// Variant requests one variant exchange with the given payload.
func (s *Script) Variant(payload cic.VariantMemory) *Script {
	s.command(protocol.CommandVariant)
	for _, n := range payload {
		s.nibble(n)
	}
	return s
}

// ResetAck requests one reset acknowledgement.
func (s *Script) ResetAck() *Script {
	s.command(protocol.CommandReset)
	return s
}

// Die ends the session.
func (s *Script) Die() *Script {
	s.command(protocol.CommandDie)
	return s
}

// Bits returns a copy of the script so far.
func (s *Script) Bits() []line.Bit {
	return append([]line.Bit(nil), s.bits...)
}
