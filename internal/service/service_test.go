package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/cic64/internal/cic"
	"github.com/danmuck/cic64/internal/line"
	"github.com/danmuck/cic64/internal/line/sim"
	"github.com/danmuck/cic64/internal/session"
	"github.com/danmuck/cic64/internal/testutil/testlog"
)

func testConfig(t *testing.T) ServiceConfig {
	t.Helper()
	cfg := DefaultServiceConfig()
	cfg.Backend = BackendSim
	cfg.KeyboardExit = false
	cfg.OpenBackoff = BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 4 * time.Millisecond}
	cfg.Logger = testlog.Logger(t)
	return cfg
}

// scriptedBackend attaches each session to a host built from cfg.
type scriptedBackend struct {
	cfg   sim.Config
	hosts []*sim.Host
}

func (b *scriptedBackend) Attach() (line.Lines, line.CancellationSource) {
	h := sim.New(b.cfg)
	b.hosts = append(b.hosts, h)
	return h.Lines(), h
}

func (b *scriptedBackend) Close() error { return nil }

func TestOpenDelaySchedule(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 250 * time.Millisecond},
		{attempt: 1, want: 250 * time.Millisecond},
		{attempt: 2, want: 500 * time.Millisecond},
		{attempt: 3, want: time.Second},
		{attempt: 8, want: 5 * time.Second},
		{attempt: 1000, want: 5 * time.Second},
	}
	for _, tc := range tests {
		if got := openDelay(cfg, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: got %v want %v", tc.attempt, got, tc.want)
		}
	}

	if got := openDelay(BackoffConfig{InitialDelay: time.Second, Multiplier: 0.5}, 4); got != time.Second {
		t.Fatalf("multiplier below 1 must not shrink the delay: %v", got)
	}
	if got := openDelay(BackoffConfig{}, 3); got != 0 {
		t.Fatalf("zero initial delay retries immediately: %v", got)
	}
}

func TestRunSimBackendServesSessions(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.MaxSessions = 3
	svc := NewServiceWithConfig(cfg)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if svc.Sessions() != 3 {
		t.Fatalf("unexpected session count: %d", svc.Sessions())
	}
	last, ok := svc.Last()
	if !ok || last.Reason != session.ReasonDie {
		t.Fatalf("unexpected last report: %+v", last)
	}
	want := session.CommandCounts{Compare: 1, Variant: 1, Reset: 1, Die: 1}
	if last.Commands != want {
		t.Fatalf("unexpected commands: %+v", last.Commands)
	}

	st := svc.Status()
	if st.State != "terminated" || st.Running || st.Ready || st.Sessions != 3 || st.Last == nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	if err := svc.Run(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped on second run, got %v", err)
	}
}

func TestSimBackendDefaultsToOneSession(t *testing.T) {
	testlog.Start(t)
	svc := NewServiceWithConfig(testConfig(t))
	if svc.Config().MaxSessions != 1 {
		t.Fatalf("sim backend should default to one session")
	}
	if svc.Config().Variant.Name != cic.ActiveVariant().Name {
		t.Fatalf("unexpected default variant")
	}
}

func TestRestartAfterNonDieEnding(t *testing.T) {
	testlog.Start(t)
	backend := &scriptedBackend{cfg: sim.Config{Script: sim.ParseBits("1011 0110")}}
	cfg := testConfig(t)
	cfg.Backend = "scripted"
	cfg.MaxSessions = 2
	cfg.Open = func(ServiceConfig) (Backend, error) { return backend, nil }
	svc := NewServiceWithConfig(cfg)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(backend.hosts) != 2 {
		t.Fatalf("expected a new session after the host went away, got %d", len(backend.hosts))
	}
	last, _ := svc.Last()
	if last.Reason != session.ReasonCancelled || last.EndedIn != session.CommandLoop {
		t.Fatalf("unexpected last report: %+v", last)
	}
}

func TestOpenRetriesWithBackoff(t *testing.T) {
	testlog.Start(t)
	attempts := 0
	cfg := testConfig(t)
	cfg.Open = func(c ServiceConfig) (Backend, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("pins busy")
		}
		return NewSimBackend(c.Region), nil
	}
	svc := NewServiceWithConfig(cfg)
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if attempts != 3 || svc.Sessions() != 1 {
		t.Fatalf("unexpected attempts=%d sessions=%d", attempts, svc.Sessions())
	}
}

func TestOpenGivesUpAfterMaxAttempts(t *testing.T) {
	testlog.Start(t)
	busy := errors.New("pins busy")
	attempts := 0
	cfg := testConfig(t)
	cfg.OpenMaxAttempts = 2
	cfg.Open = func(ServiceConfig) (Backend, error) {
		attempts++
		return nil, busy
	}
	err := NewServiceWithConfig(cfg).Run(context.Background())
	if !errors.Is(err, busy) || attempts != 2 {
		t.Fatalf("expected wrapped open error after 2 attempts, got err=%v attempts=%d", err, attempts)
	}
}

func TestUnknownBackendFailsFast(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig(t)
	cfg.Backend = "tape"
	err := NewServiceWithConfig(cfg).Run(context.Background())
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestShutdownStopsWaitingSession(t *testing.T) {
	testlog.Start(t)
	backend := &scriptedBackend{cfg: sim.Config{ResetHeldPolls: 1 << 40}}
	cfg := testConfig(t)
	cfg.Backend = "scripted"
	cfg.MaxSessions = 0
	cfg.Open = func(ServiceConfig) (Backend, error) { return backend, nil }
	svc := NewServiceWithConfig(cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !svc.Ready() || svc.Sessions() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("service never started a session")
		}
		time.Sleep(time.Millisecond)
	}
	svc.Shutdown()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown did not stop the service")
	}
	last, ok := svc.Last()
	if !ok || last.Reason != session.ReasonCancelled || last.EndedIn != session.WaitReset {
		t.Fatalf("unexpected last report: %+v", last)
	}
	if svc.Sessions() != 1 {
		t.Fatalf("user exit must not restart: sessions=%d", svc.Sessions())
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	testlog.Start(t)
	svc := NewServiceWithConfig(testConfig(t))
	svc.Shutdown()
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if svc.Sessions() != 0 {
		t.Fatalf("no session should start after shutdown")
	}
}

func TestSelfTest(t *testing.T) {
	testlog.Start(t)
	for _, name := range cic.VariantNames() {
		v, err := cic.LookupVariant(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		reports, err := SelfTest(context.Background(), v, testlog.Logger(t))
		if err != nil {
			t.Fatalf("self-test %s: %v", name, err)
		}
		if len(reports) != 2 || reports[0].Region != "ntsc" || reports[1].Region != "pal" {
			t.Fatalf("unexpected reports for %s: %+v", name, reports)
		}
	}
}
