package line

import "sync/atomic"

// Flag is a lock-free cancellation source that stays set once raised.
type Flag struct {
	set atomic.Bool
}

func (f *Flag) Raise() {
	f.set.Store(true)
}

func (f *Flag) IsRequested() bool {
	return f.set.Load()
}

// Never is a cancellation source that is never requested.
type Never struct{}

func (Never) IsRequested() bool { return false }

// AnyOf reports requested when any of its sources is requested.
type AnyOf []CancellationSource

func (a AnyOf) IsRequested() bool {
	for _, src := range a {
		if src != nil && src.IsRequested() {
			return true
		}
	}
	return false
}
