package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/line/gpio"
	"github.com/danmuck/cic64/internal/line/sim"
)

const (
	BackendGPIO = "gpio"
	BackendSim  = "sim"
)

var ErrUnknownBackend = errors.New("service: unknown backend")

// Backend supplies the lines for each session. The returned cancellation
// source reports a backend-side loss (for example a scripted host running
// dry); it ends the session but not the service.
type Backend interface {
	Attach() (line.Lines, line.CancellationSource)
	Close() error
}

// OpenFunc opens the backend named by cfg.Backend.
type OpenFunc func(cfg ServiceConfig) (Backend, error)

func openBackend(cfg ServiceConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendGPIO:
		b, err := gpio.Open(gpio.Config{
			Pins:           cfg.Pins,
			ResetActiveLow: cfg.ResetActiveLow,
			Logger:         cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return gpioBackend{b}, nil
	case BackendSim:
		return NewSimBackend(cfg.Region), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

type gpioBackend struct{ *gpio.Backend }

func (b gpioBackend) Attach() (line.Lines, line.CancellationSource) {
	return b.Lines(), line.Never{}
}

// SimBackend attaches every session to a fresh scripted host that boots,
// runs one compare, one variant exchange and one reset acknowledgement, then
// sends die.
type SimBackend struct {
	region cic.Region
	last   *sim.Host
}

func NewSimBackend(region cic.Region) *SimBackend {
	return &SimBackend{region: region}
}

// DemoScript is the host script every simulated session runs.
func DemoScript(region cic.Region) []line.Bit {
	var payload cic.VariantMemory
	for i := range payload {
		payload[i] = cic.Nibble(i).Mask()
	}
	return sim.NewScript(region, 0xB, 0x6).
		Compare().
		Variant(payload).
		ResetAck().
		Die().
		Bits()
}

func (b *SimBackend) Attach() (line.Lines, line.CancellationSource) {
	b.last = sim.New(sim.Config{Script: DemoScript(b.region), ResetHeldPolls: 2})
	return b.last.Lines(), b.last
}

// Last is the host of the most recent session, nil before the first.
func (b *SimBackend) Last() *sim.Host { return b.last }

func (b *SimBackend) Close() error { return nil }

// open runs the configured opener until it succeeds, the attempt budget is
// spent, or ctx is done.
func (s *Service) open(ctx context.Context) (Backend, error) {
	for attempt := 1; ; attempt++ {
		b, err := s.cfg.Open(s.cfg)
		if err == nil {
			s.log.Info().Str("backend", s.cfg.Backend).Int("attempt", attempt).Msg("backend opened")
			return b, nil
		}
		if errors.Is(err, ErrUnknownBackend) {
			return nil, err
		}
		if s.cfg.OpenMaxAttempts > 0 && attempt >= s.cfg.OpenMaxAttempts {
			return nil, fmt.Errorf("service: open %s backend after %d attempts: %w", s.cfg.Backend, attempt, err)
		}
		s.log.Warn().
			Str("backend", s.cfg.Backend).
			Int("attempt", attempt).
			Err(err).
			Msg("backend open failed")
		if err := waitBackoff(ctx, s.cfg.OpenBackoff, attempt); err != nil {
			return nil, err
		}
	}
}
