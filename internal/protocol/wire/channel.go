// Package wire is the clocked bit channel and the nibble codec above it.
//
// Every transfer is exactly one bit per host clock cycle. The spins inside
// ReadBit and WriteBit are the only suspension points of a session; they poll
// the channel's Canceller on every iteration and do nothing else.
package wire

import (
	"errors"

	"github.com/danmuck/cic64/internal/line"
)

var ErrCancelled = errors.New("wire: cancelled")

// Canceller is polled by every spin iteration.
type Canceller interface {
	Cancelled() bool
}

// Channel is the clocked bit channel and nibble codec over one line pair.
type Channel struct {
	clock  line.ClockLine
	data   line.DataLine
	cancel Canceller

	bitsIn  uint64
	bitsOut uint64
}

func NewChannel(clock line.ClockLine, data line.DataLine, cancel Canceller) *Channel {
	return &Channel{clock: clock, data: data, cancel: cancel}
}

// await blocks while the clock reads level. It reports false when the
// canceller fired first.
func (c *Channel) await(level line.Level) bool {
	for c.clock.ReadLevel() == level {
		if c.cancel.Cancelled() {
			return false
		}
	}
	return true
}

// ReadBit samples the data line inside one clock low phase.
func (c *Channel) ReadBit() (line.Bit, error) {
	if !c.await(line.High) {
		return 0, ErrCancelled
	}
	bit := line.BitOf(c.data.ReadLevel())
	if !c.await(line.Low) {
		return 0, ErrCancelled
	}
	c.bitsIn++
	return bit, nil
}

// WriteBit holds the data line low for a 0 during one clock low phase and
// releases it afterwards. A 1 leaves the line to the pull-up.
func (c *Channel) WriteBit(bit line.Bit) error {
	if !c.await(line.High) {
		return ErrCancelled
	}
	if bit&1 == 0 {
		c.data.DriveLow()
	}
	ok := c.await(line.Low)
	c.data.Release()
	if !ok {
		return ErrCancelled
	}
	c.bitsOut++
	return nil
}

// Release lets go of the data line outside of a transfer.
func (c *Channel) Release() {
	c.data.Release()
}

// BitsIn and BitsOut count completed transfers.
func (c *Channel) BitsIn() uint64  { return c.bitsIn }
func (c *Channel) BitsOut() uint64 { return c.bitsOut }

// Polling adapts a cancellation source into a Canceller.
type Polling struct {
	Source line.CancellationSource
}

func (p Polling) Cancelled() bool {
	return p.Source != nil && p.Source.IsRequested()
}
