//go:build unix

// Package keyboard raises a cancellation flag on the first keypress.
package keyboard

import (
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/cic64/internal/line"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Watcher reads a terminal (or any readable file) without blocking and
// reports a request once any byte arrives.
type Watcher struct {
	in  *os.File
	log zerolog.Logger

	flag    line.Flag
	pressed chan struct{}
	notify  sync.Once

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	started     bool
	fd          int
	nonblockSet bool
	oldState    *term.State
}

func New(in *os.File, logger zerolog.Logger) *Watcher {
	return &Watcher{
		in:      in,
		log:     logger.With().Str("component", "keyboard").Logger(),
		pressed: make(chan struct{}),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start switches a terminal to raw input mode and starts the reader goroutine.
// Output processing stays on so console log lines keep their line endings.
// Non-terminal inputs are read as they are. Call Stop to restore the terminal.
func (w *Watcher) Start() error {
	w.started = true
	w.fd = int(w.in.Fd())

	if term.IsTerminal(w.fd) {
		old, err := term.MakeRaw(w.fd)
		if err != nil {
			close(w.done)
			return err
		}
		w.oldState = old
		if err := keepOutputProcessing(w.fd); err != nil {
			w.log.Warn().Err(err).Msg("output processing left off")
		}
	}
	if err := syscall.SetNonblock(w.fd, true); err != nil {
		w.restore()
		close(w.done)
		return err
	}
	w.nonblockSet = true

	go w.read()
	w.log.Info().Msg("press any key to exit")
	return nil
}

func (w *Watcher) read() {
	defer close(w.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		n, err := syscall.Read(w.fd, buf)
		if n > 0 {
			w.press(buf[0])
			return
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			w.log.Warn().Err(err).Msg("stdin read failed")
			return
		}
	}
}

func (w *Watcher) press(b byte) {
	w.notify.Do(func() {
		w.log.Info().Uint8("key", b).Msg("exit requested")
		w.flag.Raise()
		close(w.pressed)
	})
}

// IsRequested implements line.CancellationSource.
func (w *Watcher) IsRequested() bool {
	return w.flag.IsRequested()
}

// Pressed is closed on the first keypress.
func (w *Watcher) Pressed() <-chan struct{} {
	return w.pressed
}

// Stop ends the reader and restores the terminal.
func (w *Watcher) Stop() {
	if !w.started {
		return
	}
	w.stopped.Do(func() {
		close(w.stopCh)
	})
	<-w.done
	if w.nonblockSet {
		_ = syscall.SetNonblock(w.fd, false)
		w.nonblockSet = false
	}
	w.restore()
}

func (w *Watcher) restore() {
	if w.oldState != nil {
		_ = term.Restore(w.fd, w.oldState)
		w.oldState = nil
	}
}
