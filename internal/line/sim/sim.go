// Package sim is a deterministic, single-goroutine host for the line
// capabilities.
//
// Every clock poll advances the host by one edge: a poll while the clock is
// high opens a bit slot (falling edge), a poll while it is low closes it
// (rising edge). Host bits are taken from the script only when the device
// samples the data line inside a slot; slots the device did not sample are
// recorded as device output at the rising edge. When the script runs dry the
// host stops clocking and reports itself gone through IsRequested.
package sim

import (
	"strings"

	"github.com/danmuck/cic64/internal/line"
)

// Config scripts one simulated host.
type Config struct {
	// Script holds the bits the host presents, in order.
	Script []line.Bit
	// ResetHeldPolls is how many IsHeld polls report the reset as held.
	ResetHeldPolls int
	// ResetAgainAfterSlots re-asserts reset once this many slots completed.
	ResetAgainAfterSlots int
	// StallAfterSlots freezes the clock high once this many slots completed.
	StallAfterSlots int
	// CancelAfterStallPolls raises cancellation after this many clock polls
	// into a stall.
	CancelAfterStallPolls int
}

// Host is the simulated remote side. It is not safe for concurrent use.
type Host struct {
	cfg Config
	pos int

	low      bool
	driven   bool
	slotRead bool
	slotBit  line.Level
	stalled  bool
	gone     bool

	slots       int
	resetPolls  int
	stallPolls  int
	cancelled   bool
	afterCancel int

	written []line.Bit
}

func New(cfg Config) *Host {
	return &Host{cfg: cfg, written: make([]line.Bit, 0, 256)}
}

// Lines exposes the host as the device-side capabilities.
func (h *Host) Lines() line.Lines {
	return line.Lines{Clock: clockPin{h}, Data: dataPin{h}, Reset: h}
}

type clockPin struct{ h *Host }

func (p clockPin) ReadLevel() line.Level { return p.h.pollClock() }

type dataPin struct{ h *Host }

func (p dataPin) ReadLevel() line.Level { return p.h.sampleData() }
func (p dataPin) DriveLow()             { p.h.driven = true }
func (p dataPin) Release()              { p.h.driven = false }

func (h *Host) pollClock() line.Level {
	if h.cancelled {
		h.afterCancel++
	}
	if h.stalled || (h.cfg.StallAfterSlots > 0 && h.slots >= h.cfg.StallAfterSlots && !h.low) {
		h.stalled = true
		h.stallPolls++
		if h.cfg.CancelAfterStallPolls > 0 && h.stallPolls >= h.cfg.CancelAfterStallPolls {
			h.cancelled = true
		}
		return h.level()
	}
	if !h.low {
		h.low = true
		h.slotRead = false
		return line.Low
	}
	if !h.slotRead {
		if h.driven {
			h.written = append(h.written, 0)
		} else {
			h.written = append(h.written, 1)
		}
	}
	h.low = false
	h.slots++
	return line.High
}

func (h *Host) level() line.Level {
	if h.low {
		return line.Low
	}
	return line.High
}

func (h *Host) sampleData() line.Level {
	if h.driven {
		return line.Low
	}
	if !h.low {
		return line.High
	}
	if h.slotRead {
		return h.slotBit
	}
	h.slotRead = true
	h.slotBit = line.High
	if h.pos >= len(h.cfg.Script) {
		h.gone = true
		h.stalled = true
		return h.slotBit
	}
	h.slotBit = h.cfg.Script[h.pos] == 1
	h.pos++
	return h.slotBit
}

// IsHeld implements line.ResetSignal.
func (h *Host) IsHeld() bool {
	if h.resetPolls < h.cfg.ResetHeldPolls {
		h.resetPolls++
		return true
	}
	return h.cfg.ResetAgainAfterSlots > 0 && h.slots >= h.cfg.ResetAgainAfterSlots
}

// IsRequested implements line.CancellationSource.
func (h *Host) IsRequested() bool {
	return h.cancelled || h.gone
}

// Cancel raises cancellation immediately.
func (h *Host) Cancel() { h.cancelled = true }

// Written is the device output, one entry per unsampled slot.
func (h *Host) Written() []line.Bit {
	return append([]line.Bit(nil), h.written...)
}

// WrittenString renders Written as 0/1 characters.
func (h *Host) WrittenString() string {
	return BitString(h.written)
}

// Slots is the number of completed bit slots.
func (h *Host) Slots() int { return h.slots }

// Remaining is the number of unread script bits.
func (h *Host) Remaining() int { return len(h.cfg.Script) - h.pos }

// Gone reports whether the script ran dry.
func (h *Host) Gone() bool { return h.gone }

// Driven reports whether the device currently holds the data line low.
func (h *Host) Driven() bool { return h.driven }

// PollsAfterCancel counts clock polls made after cancellation was raised.
func (h *Host) PollsAfterCancel() int { return h.afterCancel }

// ParseBits turns "0101 1010" into bits, ignoring anything but 0 and 1.
func ParseBits(s string) []line.Bit {
	out := make([]line.Bit, 0, len(s))
	for _, r := range s {
		switch r {
		case '0':
			out = append(out, 0)
		case '1':
			out = append(out, 1)
		}
	}
	return out
}

func BitString(bits []line.Bit) string {
	var b strings.Builder
	b.Grow(len(bits))
	for _, bit := range bits {
		if bit == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}
