// Package gpio binds the line capabilities to host GPIO pins through periph.io.
//
// The data pin is open drain: DriveLow switches it to an output driving low,
// Release switches it back to an input and leaves the pull-up set by Open. The clock and
// reset pins are plain inputs.
package gpio

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danmuck/cic64/internal/line"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	ErrPinNotFound = errors.New("gpio: pin not found")
	ErrHostInit    = errors.New("gpio: host init failed")
	ErrPinSetup    = errors.New("gpio: pin setup failed")
)

// Pins names the three pins as the host driver registry knows them
// (for example "GPIO17" on a Raspberry Pi).
type Pins struct {
	Clock string `toml:"clock"`
	Data  string `toml:"data"`
	Reset string `toml:"reset"`
}

type Config struct {
	Pins Pins
	// ResetActiveLow treats a low reset pin as reset held.
	ResetActiveLow bool
	Logger         zerolog.Logger
}

// host.Init is idempotent; both hooks are swapped in tests.
var (
	hostInit = func() error {
		_, err := host.Init()
		return err
	}
	lookupPin = gpioreg.ByName
)

// Backend owns the opened pins.
type Backend struct {
	clock gpio.PinIO
	data  gpio.PinIO
	reset gpio.PinIO

	activeLow bool
	log       zerolog.Logger

	// first pin error seen inside a transfer; transfers cannot return errors
	mu     sync.Mutex
	pinErr error
}

func Open(cfg Config) (*Backend, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostInit, err)
	}

	clock, err := findPin("clock", cfg.Pins.Clock)
	if err != nil {
		return nil, err
	}
	data, err := findPin("data", cfg.Pins.Data)
	if err != nil {
		return nil, err
	}
	reset, err := findPin("reset", cfg.Pins.Reset)
	if err != nil {
		return nil, err
	}

	if err := clock.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: clock %s: %v", ErrPinSetup, clock.Name(), err)
	}
	if err := reset.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: reset %s: %v", ErrPinSetup, reset.Name(), err)
	}
	if err := data.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: data %s: %v", ErrPinSetup, data.Name(), err)
	}

	b := &Backend{
		clock:     clock,
		data:      data,
		reset:     reset,
		activeLow: cfg.ResetActiveLow,
		log:       cfg.Logger.With().Str("component", "gpio").Logger(),
	}
	b.log.Info().
		Str("clock", clock.Name()).
		Str("data", data.Name()).
		Str("reset", reset.Name()).
		Bool("reset_active_low", cfg.ResetActiveLow).
		Msg("pins opened")
	return b, nil
}

func findPin(role, name string) (gpio.PinIO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: %s pin not configured", ErrPinNotFound, role)
	}
	p := lookupPin(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrPinNotFound, role, name)
	}
	return p, nil
}

func (b *Backend) Lines() line.Lines {
	return line.Lines{Clock: clockPin{b}, Data: dataPin{b}, Reset: b}
}

// IsHeld implements line.ResetSignal.
func (b *Backend) IsHeld() bool {
	high := b.reset.Read() == gpio.High
	if b.activeLow {
		return !high
	}
	return high
}

// Err is the first pin error seen while driving the data line.
func (b *Backend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pinErr
}

func (b *Backend) record(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	if b.pinErr == nil {
		b.pinErr = err
	}
	b.mu.Unlock()
}

// Close releases the data line and leaves every pin an input.
func (b *Backend) Close() error {
	if err := b.data.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("%w: release data %s: %v", ErrPinSetup, b.data.Name(), err)
	}
	if err := b.Err(); err != nil {
		b.log.Warn().Err(err).Msg("data line reported errors")
	}
	return nil
}

type clockPin struct{ b *Backend }

func (p clockPin) ReadLevel() line.Level { return line.Level(p.b.clock.Read() == gpio.High) }

type dataPin struct{ b *Backend }

func (p dataPin) ReadLevel() line.Level { return line.Level(p.b.data.Read() == gpio.High) }
func (p dataPin) DriveLow()             { p.b.record(p.b.data.Out(gpio.Low)) }
func (p dataPin) Release()              { p.b.record(p.b.data.In(gpio.PullNoChange, gpio.NoEdge)) }
