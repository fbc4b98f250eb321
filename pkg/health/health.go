// Package health serves liveness and readiness probes backed by periodic
// background checks.
//
// A probe flips to failing only after FailureThreshold consecutive errors and
// back to passing after SuccessThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Check reports nil when the checked component is healthy.
type Check func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Thresholds control how many consecutive results flip a probe.
type Thresholds struct {
	Failure int
	Success int
}

// DefaultThresholds are used when Register is called without WithThresholds.
var DefaultThresholds = Thresholds{Failure: 3, Success: 1}

// Option configures a single probe.
type Option func(*probe)

// WithThresholds overrides DefaultThresholds for one probe.
func WithThresholds(t Thresholds) Option {
	return func(p *probe) { p.thresholds = t }
}

type probe struct {
	name       string
	kind       Kind
	timeout    time.Duration
	check      Check
	thresholds Thresholds

	passing atomic.Bool
	lastErr atomic.Pointer[string]

	// Only touched by the probe's own goroutine.
	fails, oks int
}

// observe runs the check once. It must not be called concurrently for the
// same probe. It reports whether the probe changed state.
func (p *probe) observe(ctx context.Context) (changed bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	if err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.oks = 0
		p.fails++
		if p.fails >= p.thresholds.Failure {
			return p.passing.Swap(false)
		}
		return false
	}

	p.lastErr.Store(nil)
	p.fails = 0
	p.oks++
	if p.oks >= p.thresholds.Success {
		return !p.passing.Swap(true)
	}
	return false
}

func (p *probe) failure() string {
	if msg := p.lastErr.Load(); msg != nil {
		return *msg
	}
	return "check is failing"
}

// Service owns the registered probes and the manual readiness switch.
type Service struct {
	lg     *zap.Logger
	ready  atomic.Bool
	mu     sync.RWMutex
	probes []*probe
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Service that starts not ready.
func New(lg *zap.Logger) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{lg: lg}
}

// Register adds a probe. Probes start passing until proven otherwise.
func (s *Service) Register(kind Kind, name string, timeout time.Duration, check Check, opts ...Option) {
	p := &probe{
		name:       name,
		kind:       kind,
		timeout:    timeout,
		check:      check,
		thresholds: DefaultThresholds,
	}
	for _, o := range opts {
		o(p)
	}
	p.passing.Store(true)

	s.mu.Lock()
	s.probes = append(s.probes, p)
	s.mu.Unlock()
}

// Start runs every probe immediately and then once per interval until Stop
// or ctx cancellation.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := slices.Clone(s.probes)
	s.mu.Unlock()

	for _, p := range probes {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, p, interval)
		}()
	}
}

func (s *Service) loop(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if p.observe(ctx) {
			if p.passing.Load() {
				s.lg.Info("Health check recovered", zap.String("check", p.name))
			} else {
				s.lg.Warn("Health check failing", zap.String("check", p.name), zap.String("error", p.failure()))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the probe goroutines and waits for them to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// SetReady flips the manual readiness switch, e.g. off while draining.
func (s *Service) SetReady(ready bool) { s.ready.Store(ready) }

// Ready reports whether the switch is on and every readiness probe passes.
func (s *Service) Ready() bool {
	return s.ready.Load() && len(s.failures(Readiness)) == 0
}

func (s *Service) failures(kind Kind) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range s.probes {
		if p.kind == kind && !p.passing.Load() {
			out[p.name] = p.failure()
		}
	}
	return out
}

// LiveHandler serves /livez.
func (s *Service) LiveHandler(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, s.failures(Liveness))
}

// ReadyHandler serves /readyz.
func (s *Service) ReadyHandler(w http.ResponseWriter, _ *http.Request) {
	failures := s.failures(Readiness)
	if !s.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} or {"status":"unhealthy","checks":{...}}
// with check names sorted.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	code := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		code = http.StatusServiceUnavailable
		e.Str("unhealthy")

		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		slices.Sort(names)

		e.FieldStart("checks")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
