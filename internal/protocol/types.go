package protocol

import "fmt"

// Command is the 2-bit mode selector the host sends in the command loop.
type Command uint8

const (
	CommandCompare Command = 0b00
	CommandDie     Command = 0b01
	CommandVariant Command = 0b10
	CommandReset   Command = 0b11
)

// Commands lists every code; the 2-bit read covers all of them.
var Commands = [...]Command{CommandCompare, CommandDie, CommandVariant, CommandReset}

func (c Command) String() string {
	switch c {
	case CommandCompare:
		return "compare"
	case CommandDie:
		return "die"
	case CommandVariant:
		return "variant"
	case CommandReset:
		return "reset"
	default:
		return fmt.Sprintf("command(%02b)", uint8(c))
	}
}

const (
	// VariantMarker is sent twice before the variant payload.
	VariantMarker = 0xA
	// SyncBit precedes the checksum block and the variant reply.
	SyncBit = 0
	// ResetAckBit answers the reset command.
	ResetAckBit = 0

	SeedStart     = 0x0a
	ChecksumStart = 0x04

	SeedEncodeRounds     = 2
	ChecksumEncodeRounds = 4
	CompareRounds        = 3
)
