// Package session owns one lockout-chip session from reset release to
// termination.
//
// Lifecycle order:
// - wait_reset -> handshake -> seed_exchange -> checksum_exchange
// - ram_init -> handshake_drain -> command_loop
// - command_loop dispatches compare/variant/reset until die or cancellation
//
// A Session owns its memories and latched cancellation state. It is single
// goroutine and discarded after Run returns.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/protocol"
	"github.com/danmuck/cic64/internal/protocol/wire"
	"github.com/rs/zerolog"
)

var (
	ErrNilLines = errors.New("session: missing line capability")

	errDie = errors.New("session: die")
)

// Recorder receives one call per served command.
type Recorder interface {
	Compare()
	Variant()
	ResetAck()
	Die()
}

type nopRecorder struct{}

func (nopRecorder) Compare()  {}
func (nopRecorder) Variant()  {}
func (nopRecorder) ResetAck() {}
func (nopRecorder) Die()      {}

// Config wires one session to its environment.
type Config struct {
	Region  cic.Region
	Variant cic.Variant
	Lines   line.Lines
	Cancel  line.CancellationSource
	Logger  zerolog.Logger
	Metrics Recorder
	// Observe is called on every state change, never inside a bit transfer.
	Observe func(State)
}

// Session is one connection attempt.
type Session struct {
	cfg  Config
	ch   *wire.Channel
	log  zerolog.Logger
	done <-chan struct{}

	mem  cic.SessionMemory
	vmem cic.VariantMemory

	state      State
	reason     Reason
	watchReset bool

	commands     CommandCounts
	carry        uint8
	seedBlock    []cic.Nibble
	checksumSent []cic.Nibble
	started      time.Time
}

func New(cfg Config) (*Session, error) {
	if !cfg.Lines.Complete() {
		return nil, ErrNilLines
	}
	if cfg.Cancel == nil {
		cfg.Cancel = line.Never{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.Variant.Name == "" {
		cfg.Variant = cic.ActiveVariant()
	}
	s := &Session{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "session").Logger(),
	}
	s.ch = wire.NewChannel(cfg.Lines.Clock, cfg.Lines.Data, s)
	return s, nil
}

// Cancelled implements wire.Canceller. Once it reports true it stays true.
func (s *Session) Cancelled() bool {
	if s.reason != ReasonNone {
		return true
	}
	select {
	case <-s.done:
		s.reason = ReasonCancelled
		return true
	default:
	}
	if s.cfg.Cancel.IsRequested() {
		s.reason = ReasonCancelled
		return true
	}
	if s.watchReset && s.cfg.Lines.Reset.IsHeld() {
		s.reason = ReasonReset
		return true
	}
	return false
}

// Run drives the session to Terminated and reports how it ended.
func (s *Session) Run(ctx context.Context) Report {
	s.done = ctx.Done()
	s.ch.Release()
	defer s.ch.Release()

	s.enter(WaitReset)
	s.log.Info().Msg("waiting for reset")
	if !s.waitReset() {
		return s.finish()
	}
	s.started = time.Now()
	s.watchReset = true
	s.log.Info().Msg("reset released")

	if err := s.boot(); err != nil {
		return s.finish()
	}

	s.log.Info().Msg("entering command loop")
	s.commandLoop()
	return s.finish()
}

func (s *Session) waitReset() bool {
	for s.cfg.Lines.Reset.IsHeld() {
		if s.Cancelled() {
			return false
		}
	}
	return !s.Cancelled()
}

func (s *Session) boot() error {
	if err := s.handshake(); err != nil {
		return err
	}
	if err := s.seedExchange(); err != nil {
		return err
	}
	if err := s.checksumExchange(); err != nil {
		return err
	}
	s.ramInit()
	return s.drain()
}

func (s *Session) handshake() error {
	s.enter(Handshake)
	return s.ch.WriteNibble(s.cfg.Region.HelloNibble())
}

func (s *Session) seedExchange() error {
	s.enter(SeedExchange)
	v := s.cfg.Variant
	s.mem.Set(protocol.SeedStart, 0xB)
	s.mem.Set(protocol.SeedStart+1, 0x5)
	s.mem.Set(protocol.SeedStart+2, v.SeedHigh())
	s.mem.Set(protocol.SeedStart+3, v.SeedLow())
	s.mem.Set(protocol.SeedStart+4, v.SeedHigh())
	s.mem.Set(protocol.SeedStart+5, v.SeedLow())
	for i := 0; i < protocol.SeedEncodeRounds; i++ {
		cic.EncodeRound(&s.mem, protocol.SeedStart)
	}
	s.seedBlock = append([]cic.Nibble(nil), s.mem[protocol.SeedStart:cic.BlockSize]...)
	s.log.Debug().Str("seed", hexNibbles(s.seedBlock)).Msg("seed encoded")
	return s.ch.WriteBlock(&s.mem, protocol.SeedStart)
}

func (s *Session) checksumExchange() error {
	s.enter(ChecksumExchange)
	copy(s.mem[protocol.ChecksumStart:cic.BlockSize], s.cfg.Variant.Checksum[:])
	for i := 0; i < protocol.ChecksumEncodeRounds; i++ {
		cic.EncodeRound(&s.mem, 0)
	}
	s.checksumSent = append([]cic.Nibble(nil), s.mem[:cic.BlockSize]...)
	s.log.Debug().Str("checksum", hexNibbles(s.checksumSent)).Msg("checksum encoded")
	if err := s.ch.WriteBit(protocol.SyncBit); err != nil {
		return err
	}
	return s.ch.WriteBlock(&s.mem, 0)
}

func (s *Session) ramInit() {
	s.enter(RamInit)
	s.mem = s.cfg.Region.InitialMemory()
}

// drain takes the two nibbles the host sends after the checksum. They are
// stored but not checked.
func (s *Session) drain() error {
	s.enter(HandshakeDrain)
	n, err := s.ch.ReadNibble()
	if err != nil {
		return err
	}
	s.mem.Set(0x01, n)
	n, err = s.ch.ReadNibble()
	if err != nil {
		return err
	}
	s.mem.Set(cic.HighBlockBase+0x01, n)
	return nil
}

func (s *Session) enter(state State) {
	s.state = state
	if s.cfg.Observe != nil {
		s.cfg.Observe(state)
	}
}

func (s *Session) finish() Report {
	if s.reason == ReasonNone {
		s.reason = ReasonCancelled
	}
	interrupted := s.state
	s.enter(Terminated)

	r := Report{
		Reason:      s.reason,
		EndedIn:     interrupted,
		Region:      s.cfg.Region.String(),
		Variant:     s.cfg.Variant.Name,
		Commands:    s.commands,
		BitsIn:      s.ch.BitsIn(),
		BitsOut:     s.ch.BitsOut(),
		Started:     s.started,
		Ended:       time.Now(),
		Seed:        hexNibbles(s.seedBlock),
		Checksum:    hexNibbles(s.checksumSent),
		LastCarry:   s.carry,
		HostReached: !s.started.IsZero(),
	}
	s.log.Info().
		Str("reason", string(r.Reason)).
		Stringer("ended_in", r.EndedIn).
		Uint64("compare", r.Commands.Compare).
		Uint64("variant", r.Commands.Variant).
		Uint64("reset", r.Commands.Reset).
		Msg("session terminated")
	return r
}

// State is the current phase.
func (s *Session) State() State { return s.state }

// Memory is a copy of the session memory.
func (s *Session) Memory() cic.SessionMemory { return s.mem }

// VariantMemory is a copy of the variant-mode memory.
func (s *Session) VariantMemory() cic.VariantMemory { return s.vmem }

func hexNibbles(ns []cic.Nibble) string {
	const digits = "0123456789ABCDEF"
	var b strings.Builder
	for i, n := range ns {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[n.Mask()])
	}
	return b.String()
}
