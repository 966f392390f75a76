// Package line owns the signal-level capabilities the protocol engine runs on.
//
// Ownership boundary:
// - clock/data line contracts (open-drain data)
// - reset and cancellation polling contracts
//
// Backends:
// - gpio: periph.io pins on a Linux host
// - sim: deterministic scripted host for tests and self-test runs
// - keyboard: keypress cancellation for interactive runs
package line

// Level is the sampled logic level of a line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Bit is one transferred protocol bit, 0 or 1.
type Bit uint8

// BitOf maps a sampled level onto a protocol bit.
func BitOf(l Level) Bit {
	if l {
		return 1
	}
	return 0
}

// ClockLine is the host-driven clock. High is the active (idle) level.
type ClockLine interface {
	ReadLevel() Level
}

// DataLine is the shared open-drain data line.
// There is no drive-high: Release lets the pull-up win.
type DataLine interface {
	ReadLevel() Level
	DriveLow()
	Release()
}

// ResetSignal reports whether the console holds cold reset.
type ResetSignal interface {
	IsHeld() bool
}

// CancellationSource is polled, never pushed.
type CancellationSource interface {
	IsRequested() bool
}

// Lines bundles the capabilities a session needs.
type Lines struct {
	Clock ClockLine
	Data  DataLine
	Reset ResetSignal
}

// Complete reports whether every capability is present.
func (l Lines) Complete() bool {
	return l.Clock != nil && l.Data != nil && l.Reset != nil
}
