// Package service supervises sessions back to back.
//
// Lifecycle:
//   - open the line backend, retrying with backoff
//   - run one session per console boot; any ending other than a user exit
//     starts a new wait for reset
//   - a user exit (signal, keypress, Shutdown) stops the loop
package service

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/line/gpio"
	"github.com/danmuck/cic64/internal/line/keyboard"
	"github.com/danmuck/cic64/internal/observability"
	"github.com/danmuck/cic64/internal/session"
	"github.com/rs/zerolog"
)

var ErrStopped = errors.New("service: stopped")

// ServiceConfig configures the supervisor and its backend.
type ServiceConfig struct {
	Region  cic.Region
	Variant cic.Variant
	Backend string

	Pins           gpio.Pins
	ResetActiveLow bool

	AdminListenAddr string
	AdminToken      string
	CorsOrigins     []string

	KeyboardExit bool
	// ExitInput is the file watched for the exit keypress; nil means stdin.
	ExitInput *os.File
	// MaxSessions stops the loop after that many sessions; 0 runs until exit.
	MaxSessions int

	OpenMaxAttempts int
	OpenBackoff     BackoffConfig
	Open            OpenFunc

	Logger zerolog.Logger
}

// DefaultServiceConfig targets an NTSC console on a Raspberry Pi header.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Region:          cic.NTSC,
		Variant:         cic.ActiveVariant(),
		Backend:         BackendGPIO,
		Pins:            gpio.Pins{Clock: "GPIO17", Data: "GPIO27", Reset: "GPIO22"},
		ResetActiveLow:  true,
		AdminListenAddr: "",
		CorsOrigins:     []string{"http://localhost:3000"},
		KeyboardExit:    true,
		OpenMaxAttempts: 5,
		OpenBackoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
		},
	}
}

// Status is a point-in-time view of the supervisor.
type Status struct {
	Region   string          `json:"region"`
	Variant  string          `json:"variant"`
	Backend  string          `json:"backend"`
	State    string          `json:"state"`
	Ready    bool            `json:"ready"`
	Running  bool            `json:"running"`
	Sessions uint64          `json:"sessions"`
	Uptime   string          `json:"uptime"`
	Last     *session.Report `json:"last,omitempty"`
}

type Service struct {
	cfg     ServiceConfig
	log     zerolog.Logger
	started time.Time

	exit    line.Flag
	running atomic.Bool
	stopped atomic.Bool
	ready   atomic.Bool
	state   atomic.Uint32

	sessions atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	last   *session.Report
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if cfg.Variant.Name == "" {
		cfg.Variant = cic.ActiveVariant()
	}
	if cfg.Open == nil {
		cfg.Open = openBackend
	}
	if cfg.Backend == BackendSim && cfg.MaxSessions == 0 {
		cfg.MaxSessions = 1
	}
	s := &Service{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "service").Logger(),
		started: time.Now(),
	}
	s.state.Store(uint32(session.WaitReset))
	return s
}

// Config is the effective configuration.
func (s *Service) Config() ServiceConfig { return s.cfg }

// Run blocks until a user exit, MaxSessions, or a backend open failure.
func (s *Service) Run(ctx context.Context) error {
	if s.stopped.Load() || !s.running.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer func() {
		s.ready.Store(false)
		s.running.Store(false)
		s.stopped.Store(true)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	if s.exit.IsRequested() {
		cancel()
	}

	exit := line.AnyOf{&s.exit}
	if s.cfg.KeyboardExit {
		in := s.cfg.ExitInput
		if in == nil {
			in = os.Stdin
		}
		kb := keyboard.New(in, s.cfg.Logger)
		if err := kb.Start(); err != nil {
			s.log.Warn().Err(err).Msg("keyboard exit unavailable")
		} else {
			defer kb.Stop()
			exit = append(exit, kb)
			// also wakes a backend open that is waiting out its backoff
			go func() {
				select {
				case <-kb.Pressed():
					cancel()
				case <-ctx.Done():
				}
			}()
		}
	}

	backend, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			s.log.Warn().Err(err).Msg("backend close failed")
		}
	}()
	s.ready.Store(true)

	s.log.Info().
		Stringer("region", s.cfg.Region).
		Str("variant", s.cfg.Variant.String()).
		Str("backend", s.cfg.Backend).
		Msg("service ready")

	for {
		if ctx.Err() != nil || exit.IsRequested() {
			break
		}
		if s.cfg.MaxSessions > 0 && s.sessions.Load() >= uint64(s.cfg.MaxSessions) {
			break
		}
		lines, lost := backend.Attach()
		report, err := s.runSession(ctx, lines, append(line.AnyOf{lost}, exit...))
		if err != nil {
			return err
		}
		if report.Reason != session.ReasonDie {
			s.log.Info().Str("reason", string(report.Reason)).Msg("restarting session")
		}
	}

	s.log.Info().Uint64("sessions", s.sessions.Load()).Msg("service stopped")
	return nil
}

func (s *Service) runSession(ctx context.Context, lines line.Lines, cancel line.CancellationSource) (session.Report, error) {
	metrics := observability.NewSessionMetrics(s.cfg.Region.String(), s.cfg.Variant.Name)
	n := s.sessions.Add(1)
	sess, err := session.New(session.Config{
		Region:  s.cfg.Region,
		Variant: s.cfg.Variant,
		Lines:   lines,
		Cancel:  cancel,
		Logger:  s.cfg.Logger.With().Uint64("session", n).Logger(),
		Metrics: metrics,
		Observe: func(st session.State) { s.state.Store(uint32(st)) },
	})
	if err != nil {
		return session.Report{}, err
	}
	report := sess.Run(ctx)
	metrics.Finish(string(report.Reason), report.Duration(), report.BitsIn, report.BitsOut)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report, nil
}

// Shutdown requests a user exit. It is safe from any goroutine.
func (s *Service) Shutdown() {
	s.exit.Raise()
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Ready reports whether the backend is open and sessions are being served.
func (s *Service) Ready() bool { return s.ready.Load() }

// Sessions is the number of sessions started so far.
func (s *Service) Sessions() uint64 { return s.sessions.Load() }

// Last is the report of the most recent finished session.
func (s *Service) Last() (session.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return session.Report{}, false
	}
	return *s.last, true
}

func (s *Service) Status() Status {
	st := Status{
		Region:   s.cfg.Region.String(),
		Variant:  s.cfg.Variant.Name,
		Backend:  s.cfg.Backend,
		State:    session.State(s.state.Load()).String(),
		Ready:    s.ready.Load(),
		Running:  s.running.Load(),
		Sessions: s.sessions.Load(),
		Uptime:   time.Since(s.started).String(),
	}
	if last, ok := s.Last(); ok {
		st.Last = &last
	}
	return st
}
