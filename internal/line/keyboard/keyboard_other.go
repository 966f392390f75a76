//go:build !unix

package keyboard

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
)

var errUnsupported = errors.New("keyboard: unsupported platform")

// Watcher never fires on platforms without non-blocking terminal reads.
type Watcher struct {
	pressed chan struct{}
}

func New(_ *os.File, _ zerolog.Logger) *Watcher {
	return &Watcher{pressed: make(chan struct{})}
}

func (w *Watcher) Start() error             { return errUnsupported }
func (w *Watcher) IsRequested() bool        { return false }
func (w *Watcher) Pressed() <-chan struct{} { return w.pressed }
func (w *Watcher) Stop()                    {}
