package session

import (
	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/protocol"
)

func (s *Session) commandLoop() {
	for !s.Cancelled() {
		s.enter(CommandLoop)
		cmd, err := s.readCommand()
		if err != nil {
			return
		}
		if err := s.dispatch(cmd); err != nil {
			return
		}
	}
}

// readCommand takes the 2-bit mode selector, high bit first.
func (s *Session) readCommand() (protocol.Command, error) {
	hi, err := s.ch.ReadBit()
	if err != nil {
		return 0, err
	}
	lo, err := s.ch.ReadBit()
	if err != nil {
		return 0, err
	}
	return protocol.Command(hi<<1 | lo), nil
}

func (s *Session) dispatch(cmd protocol.Command) error {
	switch cmd {
	case protocol.CommandCompare:
		s.commands.Compare++
		s.cfg.Metrics.Compare()
		return s.compareMode()
	case protocol.CommandVariant:
		s.commands.Variant++
		s.cfg.Metrics.Variant()
		return s.variantMode()
	case protocol.CommandReset:
		s.commands.Reset++
		s.cfg.Metrics.ResetAck()
		return s.resetAck()
	default:
		s.commands.Die++
		s.cfg.Metrics.Die()
		s.reason = ReasonDie
		return errDie
	}
}

// compareMode runs the compare rounds on the high block only; the low block
// never reaches the wire in this mode.
func (s *Session) compareMode() error {
	s.enter(CompareMode)
	high := s.mem.High()
	for i := 0; i < protocol.CompareRounds; i++ {
		cic.CompareRound(high)
	}

	p := cic.CompareStart(&s.mem)
	step := s.cfg.Region.CompareStep()
	for {
		// the host's bit in this slot carries nothing
		if _, err := s.ch.ReadBit(); err != nil {
			return err
		}
		if err := s.ch.WriteBit(line.Bit(s.mem.At(p) & 1)); err != nil {
			return err
		}
		p += step
		if cic.Wrap16(p) == 0 {
			return nil
		}
	}
}

func (s *Session) variantMode() error {
	s.enter(VariantMode)
	if err := s.ch.WriteNibble(protocol.VariantMarker); err != nil {
		return err
	}
	if err := s.ch.WriteNibble(protocol.VariantMarker); err != nil {
		return err
	}
	if err := s.ch.ReadNibbles(s.vmem[:]); err != nil {
		return err
	}
	s.carry = cic.VariantRound(&s.vmem)
	if err := s.ch.WriteBit(protocol.SyncBit); err != nil {
		return err
	}
	return s.ch.WriteNibbles(s.vmem[:])
}

func (s *Session) resetAck() error {
	s.enter(ResetAck)
	return s.ch.WriteBit(protocol.ResetAckBit)
}
