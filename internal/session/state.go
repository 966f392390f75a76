package session

import "fmt"

// State is the session phase.
type State uint8

const (
	WaitReset State = iota
	Handshake
	SeedExchange
	ChecksumExchange
	RamInit
	HandshakeDrain
	CommandLoop
	CompareMode
	VariantMode
	ResetAck
	Terminated
)

var stateNames = [...]string{
	WaitReset:        "wait_reset",
	Handshake:        "handshake",
	SeedExchange:     "seed_exchange",
	ChecksumExchange: "checksum_exchange",
	RamInit:          "ram_init",
	HandshakeDrain:   "handshake_drain",
	CommandLoop:      "command_loop",
	CompareMode:      "compare_mode",
	VariantMode:      "variant_mode",
	ResetAck:         "reset_ack",
	Terminated:       "terminated",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reason is why a session reached Terminated.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonDie is the host's explicit 01 command.
	ReasonDie Reason = "die"
	// ReasonReset is the console re-asserting cold reset mid-session.
	ReasonReset Reason = "reset"
	// ReasonCancelled is the external cancellation source or context.
	ReasonCancelled Reason = "cancelled"
)
