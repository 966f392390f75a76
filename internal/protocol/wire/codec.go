package wire

import (
	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
)

// WriteNibble sends the low four bits of n, most significant first.
func (c *Channel) WriteNibble(n cic.Nibble) error {
	for shift := 3; shift >= 0; shift-- {
		if err := c.WriteBit(line.Bit(n>>shift) & 1); err != nil {
			return err
		}
	}
	return nil
}

// ReadNibble collects four bits, most significant first.
func (c *Channel) ReadNibble() (cic.Nibble, error) {
	var n cic.Nibble
	for i := 0; i < 4; i++ {
		bit, err := c.ReadBit()
		if err != nil {
			return 0, err
		}
		n = n<<1 | cic.Nibble(bit)
	}
	return n, nil
}

// WriteBlock sends mem from start up to the end of start's 16-entry block.
func (c *Channel) WriteBlock(mem *cic.SessionMemory, start int) error {
	start = cic.Wrap32(start)
	for i := start; i < cic.BlockEnd(start); i++ {
		if err := c.WriteNibble(mem[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteNibbles sends src in order.
func (c *Channel) WriteNibbles(src []cic.Nibble) error {
	for _, n := range src {
		if err := c.WriteNibble(n); err != nil {
			return err
		}
	}
	return nil
}

// ReadNibbles fills dst in order.
func (c *Channel) ReadNibbles(dst []cic.Nibble) error {
	for i := range dst {
		n, err := c.ReadNibble()
		if err != nil {
			return err
		}
		dst[i] = n
	}
	return nil
}
