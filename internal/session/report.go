package session

import "time"

// CommandCounts is the number of host commands served per mode.
type CommandCounts struct {
	Compare uint64 `json:"compare"`
	Variant uint64 `json:"variant"`
	Reset   uint64 `json:"reset"`
	Die     uint64 `json:"die"`
}

// Total is the number of commands of any mode.
func (c CommandCounts) Total() uint64 {
	return c.Compare + c.Variant + c.Reset + c.Die
}

// Report describes one finished session.
type Report struct {
	Reason      Reason        `json:"reason"`
	EndedIn     State         `json:"ended_in"`
	Region      string        `json:"region"`
	Variant     string        `json:"variant"`
	Commands    CommandCounts `json:"commands"`
	BitsIn      uint64        `json:"bits_in"`
	BitsOut     uint64        `json:"bits_out"`
	Started     time.Time     `json:"started"`
	Ended       time.Time     `json:"ended"`
	Seed        string        `json:"seed,omitempty"`
	Checksum    string        `json:"checksum,omitempty"`
	LastCarry   uint8         `json:"last_carry"`
	HostReached bool          `json:"host_reached"`
}

// Duration is the time from reset release to termination, zero when the
// reset was never released.
func (r Report) Duration() time.Duration {
	if r.Started.IsZero() {
		return 0
	}
	return r.Ended.Sub(r.Started)
}
