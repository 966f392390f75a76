package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/danmuck/cic64/internal/service"
	"github.com/danmuck/cic64/internal/session"
	"github.com/danmuck/cic64/internal/testutil/testlog"
)

type fakeController struct {
	ready    atomic.Bool
	shutdown atomic.Int32
}

func (f *fakeController) Status() service.Status {
	return service.Status{
		Region:   "ntsc",
		Variant:  "6102",
		Backend:  "sim",
		State:    session.CommandLoop.String(),
		Ready:    f.ready.Load(),
		Sessions: 2,
		Last:     &session.Report{Reason: session.ReasonDie, EndedIn: session.CommandLoop},
	}
}

func (f *fakeController) Ready() bool { return f.ready.Load() }
func (f *fakeController) Shutdown()   { f.shutdown.Add(1) }

func newTestAdmin(t *testing.T, token string) (*Admin, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	return New(Config{ID: "cicctl-test", Token: token, Logger: testlog.Logger(t)}, ctrl), ctrl
}

func do(a *Admin, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)
	a, ctrl := newTestAdmin(t, "")

	rr := do(a, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health: %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["service"] != "cicctl-test" || body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}

	if rr := do(a, http.MethodGet, "/ready", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rr.Code)
	}
	ctrl.ready.Store(true)
	if rr := do(a, http.MethodGet, "/ready", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", rr.Code)
	}
}

func TestStatusReportsSupervisor(t *testing.T) {
	testlog.Start(t)
	a, _ := newTestAdmin(t, "")
	rr := do(a, http.MethodGet, "/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	var st struct {
		State    string `json:"state"`
		Sessions uint64 `json:"sessions"`
		Last     struct {
			Reason  string `json:"reason"`
			EndedIn string `json:"ended_in"`
		} `json:"last"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.State != "command_loop" || st.Sessions != 2 || st.Last.Reason != "die" || st.Last.EndedIn != "command_loop" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestMetricsExposed(t *testing.T) {
	testlog.Start(t)
	a, _ := newTestAdmin(t, "")
	do(a, http.MethodGet, "/health", "")
	rr := do(a, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "cic64_http_requests_total") {
		t.Fatalf("expected http request counter in scrape")
	}
}

func TestShutdownRequiresToken(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name   string
		stored string
		sent   string
		want   int
		calls  int32
	}{
		{name: "no token configured", stored: "", sent: "anything", want: http.StatusUnauthorized},
		{name: "missing header", stored: "s3cret", sent: "", want: http.StatusUnauthorized},
		{name: "wrong token", stored: "s3cret", sent: "nope", want: http.StatusUnauthorized},
		{name: "matching token", stored: "s3cret", sent: "s3cret", want: http.StatusAccepted, calls: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, ctrl := newTestAdmin(t, tc.stored)
			rr := do(a, http.MethodPost, "/shutdown", tc.sent)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rr.Code, rr.Body.String())
			}
			if got := ctrl.shutdown.Load(); got != tc.calls {
				t.Fatalf("expected %d shutdown calls, got %d", tc.calls, got)
			}
		})
	}
}

func TestServeStopsWithContext(t *testing.T) {
	testlog.Start(t)
	a, _ := newTestAdmin(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
}
