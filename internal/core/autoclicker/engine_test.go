package autoclicker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type sinkEvent struct {
	button Button
	down   bool
}

type recordingSink struct {
	mu         sync.Mutex
	events     []sinkEvent
	pressErr   error
	releaseErr error
}

func (r *recordingSink) Press(button Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pressErr != nil {
		return r.pressErr
	}
	r.events = append(r.events, sinkEvent{button: button, down: true})
	return nil
}

func (r *recordingSink) Release(button Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.releaseErr != nil {
		return r.releaseErr
	}
	r.events = append(r.events, sinkEvent{button: button, down: false})
	return nil
}

func (r *recordingSink) snapshot() []sinkEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sinkEvent, len(r.events))
	copy(out, r.events)
	return out
}

// stuckSink blocks its first Release until gate is closed.
type stuckSink struct {
	recordingSink
	gate chan struct{}
	once sync.Once
}

func (s *stuckSink) Release(button Button) error {
	s.once.Do(func() { <-s.gate })
	return s.recordingSink.Release(button)
}

type mutableConfig struct {
	mu  sync.Mutex
	cfg Config
}

func (m *mutableConfig) Snapshot() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *mutableConfig) set(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.cfg)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func testConfig(intervalMS float64) *mutableConfig {
	cfg := DefaultConfig()
	cfg.IntervalMS = intervalMS
	return &mutableConfig{cfg: cfg}
}

func newTestEngine(t *testing.T, sink InputSink, settings ConfigSource, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	engine, err := NewEngine(sink, settings, opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func waitStopped(t *testing.T, engine *Engine, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for engine.Status().Running {
		if time.Now().After(deadline) {
			t.Fatalf("engine still running after %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

func assertBalanced(t *testing.T, events []sinkEvent) {
	t.Helper()
	if len(events) == 0 {
		t.Fatalf("expected sink events")
	}
	for i, event := range events {
		wantDown := i%2 == 0
		if event.down != wantDown {
			t.Fatalf("event %d: down=%v, want %v (events=%v)", i, event.down, wantDown, events)
		}
	}
	if events[len(events)-1].down {
		t.Fatalf("button left pressed: %v", events)
	}
}

func TestPhaseDurationsSumToInterval(t *testing.T) {
	tests := []struct {
		interval float64
		duty     float64
	}{
		{interval: 100, duty: 50},
		{interval: 1, duty: 1},
		{interval: 3.7, duty: 99},
		{interval: 16.666, duty: 33.3},
		{interval: 1000, duty: 72.5},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		cfg.IntervalMS = tc.interval
		cfg.DutyCyclePercent = tc.duty

		interval, press, release := PhaseDurations(cfg)
		if press+release != interval {
			t.Fatalf("interval=%v duty=%v: press+release=%v, want %v", tc.interval, tc.duty, press+release, interval)
		}
		wantInterval := time.Duration(tc.interval * float64(time.Millisecond))
		if interval != wantInterval {
			t.Fatalf("interval=%v: got %v, want %v", tc.interval, interval, wantInterval)
		}
		wantPress := time.Duration(tc.interval * tc.duty / 100 * float64(time.Millisecond))
		if diff := press - wantPress; diff > time.Microsecond || diff < -time.Microsecond {
			t.Fatalf("interval=%v duty=%v: press=%v, want %v", tc.interval, tc.duty, press, wantPress)
		}
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, testConfig(5), Options{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := engine.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if !engine.Status().Running {
		t.Fatalf("expected engine to keep running after rejected Start")
	}
}

func TestSecondStartDoesNotResetClicks(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, testConfig(1), Options{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for engine.Status().Clicks < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not click")
		}
		time.Sleep(time.Millisecond)
	}
	before := engine.Status().Clicks
	_ = engine.Start()
	if after := engine.Status().Clicks; after < before {
		t.Fatalf("click count went backwards after rejected Start: %d -> %d", before, after)
	}
}

func TestStopWhenNotRunningFails(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, testConfig(5), Options{})

	if err := engine.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Stop() error = %v, want ErrNotRunning", err)
	}
	if len(sink.snapshot()) != 0 {
		t.Fatalf("expected no sink activity")
	}
}

func TestClickLimitSelfStops(t *testing.T) {
	settings := testConfig(1)
	settings.set(func(cfg *Config) {
		cfg.ClickLimit = ClickLimit{Enabled: true, Count: 5}
	})
	sink := &recordingSink{}
	ended := make(chan RunSummary, 1)
	engine := newTestEngine(t, sink, settings, Options{
		OnRunEnd: func(summary RunSummary) { ended <- summary },
	})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStopped(t, engine, 2*time.Second)

	status := engine.Status()
	if status.Clicks != 5 {
		t.Fatalf("Clicks = %d, want 5", status.Clicks)
	}
	events := sink.snapshot()
	if len(events) != 10 {
		t.Fatalf("expected 10 sink events, got %d", len(events))
	}
	assertBalanced(t, events)

	select {
	case summary := <-ended:
		if summary.Reason != StopReasonLimit {
			t.Fatalf("Reason = %q, want %q", summary.Reason, StopReasonLimit)
		}
		if summary.Clicks != 5 {
			t.Fatalf("summary Clicks = %d, want 5", summary.Clicks)
		}
	case <-time.After(time.Second):
		t.Fatalf("OnRunEnd not called")
	}

	if err := engine.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Stop() after self-stop error = %v, want ErrNotRunning", err)
	}
}

func TestToggleTwiceReturnsToStopped(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, testConfig(2), Options{})

	if err := engine.Toggle(); err != nil {
		t.Fatalf("first Toggle() error = %v", err)
	}
	if !engine.Status().Running {
		t.Fatalf("expected running after first toggle")
	}
	if err := engine.Toggle(); err != nil {
		t.Fatalf("second Toggle() error = %v", err)
	}
	if engine.Status().Running {
		t.Fatalf("expected stopped after second toggle")
	}
	assertBalanced(t, sink.snapshot())
}

func TestStopMidPressReleasesButton(t *testing.T) {
	settings := testConfig(10_000)
	settings.set(func(cfg *Config) { cfg.DutyCyclePercent = 90 })
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, settings, Options{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	begin := time.Now()
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(begin); elapsed > 500*time.Millisecond {
		t.Fatalf("Stop() took %v, expected prompt cancellation", elapsed)
	}

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected exactly one press and release, got %v", events)
	}
	assertBalanced(t, events)
	if engine.Status().Clicks != 1 {
		t.Fatalf("Clicks = %d, want 1", engine.Status().Clicks)
	}
}

func TestStartSurfacesSinkFailure(t *testing.T) {
	injected := errors.New("permission denied")
	sink := &recordingSink{pressErr: injected}
	ended := make(chan RunSummary, 1)
	engine := newTestEngine(t, sink, testConfig(5), Options{
		OnRunEnd: func(summary RunSummary) { ended <- summary },
	})

	err := engine.Start()
	if !errors.Is(err, injected) {
		t.Fatalf("Start() error = %v, want wrapped %v", err, injected)
	}
	status := engine.Status()
	if status.Running {
		t.Fatalf("expected engine stopped after failed start")
	}
	if !errors.Is(status.Err, injected) {
		t.Fatalf("Status().Err = %v, want %v", status.Err, injected)
	}

	summary := <-ended
	if summary.Reason != StopReasonFailed {
		t.Fatalf("Reason = %q, want %q", summary.Reason, StopReasonFailed)
	}

	sink.mu.Lock()
	sink.pressErr = nil
	sink.mu.Unlock()
	if err := engine.Start(); err != nil {
		t.Fatalf("Start() after recovery error = %v", err)
	}
	if engine.Status().Err != nil {
		t.Fatalf("expected error cleared on new run")
	}
}

func TestReleaseFailureStopsRun(t *testing.T) {
	injected := errors.New("device gone")
	sink := &recordingSink{releaseErr: injected}
	engine := newTestEngine(t, sink, testConfig(1), Options{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStopped(t, engine, 2*time.Second)
	if !errors.Is(engine.Status().Err, injected) {
		t.Fatalf("Status().Err = %v, want %v", engine.Status().Err, injected)
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	settings := testConfig(5)
	settings.set(func(cfg *Config) { cfg.DutyCyclePercent = 100 })
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, settings, Options{})

	if err := engine.Start(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Start() error = %v, want ErrInvalidConfig", err)
	}
	if engine.Status().Running {
		t.Fatalf("expected engine stopped")
	}
}

func TestConcurrentStartLaunchesOneLoop(t *testing.T) {
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, testConfig(5), Options{})

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- engine.Start()
		}()
	}
	wg.Wait()
	close(results)

	started := 0
	for err := range results {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrAlreadyRunning):
		default:
			t.Fatalf("unexpected Start() error = %v", err)
		}
	}
	if started != 1 {
		t.Fatalf("expected exactly one successful Start, got %d", started)
	}
}

func TestConfigSnapshotTakenAtStart(t *testing.T) {
	settings := testConfig(1)
	sink := &recordingSink{}
	engine := newTestEngine(t, sink, settings, Options{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	settings.set(func(cfg *Config) { cfg.Button = ButtonSecondary })
	time.Sleep(10 * time.Millisecond)
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	for _, event := range sink.snapshot() {
		if event.button != ButtonPrimary {
			t.Fatalf("button changed mid-run: %v", event.button)
		}
	}
}

func TestStopReportsStoppedReason(t *testing.T) {
	sink := &recordingSink{}
	ended := make(chan RunSummary, 1)
	engine := newTestEngine(t, sink, testConfig(2), Options{
		OnRunEnd: func(summary RunSummary) { ended <- summary },
	})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	select {
	case summary := <-ended:
		if summary.Reason != StopReasonStopped {
			t.Fatalf("Reason = %q, want %q", summary.Reason, StopReasonStopped)
		}
		if summary.EndedAt.Before(summary.StartedAt) {
			t.Fatalf("EndedAt before StartedAt")
		}
	case <-time.After(time.Second):
		t.Fatalf("OnRunEnd not called")
	}
}

func TestStopTimeoutThenStartIsBusy(t *testing.T) {
	sink := &stuckSink{gate: make(chan struct{})}
	ended := make(chan RunSummary, 2)
	settings := testConfig(10)
	const stopTimeout = 50 * time.Millisecond
	engine := newTestEngine(t, sink, settings, Options{
		StopTimeout: stopTimeout,
		OnRunEnd:    func(summary RunSummary) { ended <- summary },
	})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	begin := time.Now()
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v, want nil after timeout", err)
	}
	elapsed := time.Since(begin)
	if elapsed < stopTimeout || elapsed > time.Second {
		t.Fatalf("Stop() took %v, want about %v", elapsed, stopTimeout)
	}
	if engine.Status().Running {
		t.Fatalf("engine reports running after Stop")
	}

	if err := engine.Start(); !errors.Is(err, ErrBusy) {
		t.Fatalf("Start() with stuck loop error = %v, want ErrBusy", err)
	}

	close(sink.gate)
	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatalf("stuck loop never exited")
	}

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() after loop exit error = %v", err)
	}
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	assertBalanced(t, sink.snapshot())
}

func TestCloseWaitsForRunEnd(t *testing.T) {
	sink := &recordingSink{}
	var recorded atomic.Bool
	engine := newTestEngine(t, sink, testConfig(5), Options{
		OnRunEnd: func(RunSummary) {
			time.Sleep(100 * time.Millisecond)
			recorded.Store(true)
		},
	})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	engine.Close()
	if !recorded.Load() {
		t.Fatalf("Close returned before OnRunEnd finished")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "defaults", mutate: func(*Config) {}, valid: true},
		{name: "zero interval", mutate: func(c *Config) { c.IntervalMS = 0 }},
		{name: "negative interval", mutate: func(c *Config) { c.IntervalMS = -5 }},
		{name: "sub-nanosecond interval", mutate: func(c *Config) { c.IntervalMS = 1e-7 }},
		{name: "one microsecond interval", mutate: func(c *Config) { c.IntervalMS = 0.001 }, valid: true},
		{name: "zero duty", mutate: func(c *Config) { c.DutyCyclePercent = 0 }},
		{name: "full duty", mutate: func(c *Config) { c.DutyCyclePercent = 100 }},
		{name: "unknown button", mutate: func(c *Config) { c.Button = "thumb" }},
		{name: "zero limit", mutate: func(c *Config) { c.ClickLimit = ClickLimit{Enabled: true, Count: 0} }},
		{name: "zero limit disabled", mutate: func(c *Config) { c.ClickLimit = ClickLimit{Enabled: false, Count: 0} }, valid: true},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.valid && err != nil {
			t.Fatalf("%s: Validate() error = %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: Validate() error = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}
