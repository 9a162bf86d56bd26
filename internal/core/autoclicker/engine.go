package autoclicker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultStopTimeout = time.Second

type Options struct {
	StopTimeout time.Duration
	Logger      Logger
	// OnRunEnd is called from the loop goroutine after the loop has exited.
	// Close waits for it to return, so it must not block indefinitely.
	OnRunEnd func(RunSummary)
}

type run struct {
	token cancelToken
	ready chan error
	done  chan struct{}
	ended chan struct{}
}

// Engine drives the press/release cycle on its own goroutine. Start, Stop
// and Toggle are serialized; Status never blocks.
type Engine struct {
	sink     InputSink
	settings ConfigSource
	logger   Logger
	opts     Options

	mu      sync.Mutex
	current *run

	running atomic.Bool
	clicks  atomic.Int64
	lastErr atomic.Pointer[error]
}

func NewEngine(sink InputSink, settings ConfigSource, opts Options) (*Engine, error) {
	if sink == nil {
		return nil, fmt.Errorf("input sink is nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("config source is nil")
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{
		sink:     sink,
		settings: settings,
		logger:   logger,
		opts:     opts,
	}, nil
}

func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return ErrAlreadyRunning
	}
	if prev := e.current; prev != nil {
		select {
		case <-prev.done:
		case <-time.After(e.opts.StopTimeout):
			return ErrBusy
		}
		e.current = nil
	}

	cfg := e.settings.Snapshot()
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.clicks.Store(0)
	e.lastErr.Store(nil)

	r := &run{
		ready: make(chan error, 1),
		done:  make(chan struct{}),
		ended: make(chan struct{}),
	}
	e.current = r
	e.running.Store(true)
	go e.loop(r, cfg)

	if err := <-r.ready; err != nil {
		return fmt.Errorf("start clicking: %w", err)
	}
	e.logger.Info("Clicking started",
		"button", cfg.Button,
		"interval_ms", cfg.IntervalMS,
		"duty_cycle", cfg.DutyCyclePercent,
		"limit", limitArg(cfg.ClickLimit),
	)
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.Load() {
		return ErrNotRunning
	}
	e.running.Store(false)

	r := e.current
	if r == nil {
		return nil
	}
	r.token.cancel()

	timer := time.NewTimer(e.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-r.done:
	case <-timer.C:
		e.logger.Warn("Click loop did not exit before timeout", "timeout", e.opts.StopTimeout)
	}
	return nil
}

func (e *Engine) Toggle() error {
	if e.running.Load() {
		err := e.Stop()
		if !errors.Is(err, ErrNotRunning) {
			return err
		}
		// The loop hit its limit between the check and Stop.
	}
	return e.Start()
}

func (e *Engine) Status() Status {
	status := Status{
		Running: e.running.Load(),
		Clicks:  e.clicks.Load(),
	}
	if errPtr := e.lastErr.Load(); errPtr != nil {
		status.Err = *errPtr
	}
	return status
}

// Close stops a running loop, if any, and waits for the last run's OnRunEnd
// to finish. A loop that outlived the stop timeout is left behind.
func (e *Engine) Close() {
	if err := e.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		e.logger.Warn("Stop on close failed", "err", err)
	}

	e.mu.Lock()
	r := e.current
	e.mu.Unlock()
	if r == nil {
		return
	}
	select {
	case <-r.done:
		<-r.ended
	default:
		e.logger.Warn("Click loop still running at close; run summary may be lost")
	}
}

func (e *Engine) loop(r *run, cfg Config) {
	interval, pressFor, _ := PhaseDurations(cfg)
	summary := RunSummary{
		StartedAt:        time.Now(),
		Reason:           StopReasonStopped,
		Button:           cfg.Button,
		IntervalMS:       cfg.IntervalMS,
		DutyCyclePercent: cfg.DutyCyclePercent,
	}

	var readyOnce sync.Once
	signalReady := func(err error) {
		readyOnce.Do(func() {
			r.ready <- err
		})
	}

	defer func() {
		signalReady(nil)
		summary.EndedAt = time.Now()
		summary.Clicks = e.clicks.Load()
		close(r.done)
		e.logger.Info("Clicking stopped", "reason", summary.Reason, "clicks", summary.Clicks)
		if e.opts.OnRunEnd != nil {
			e.opts.OnRunEnd(summary)
		}
		close(r.ended)
	}()

	fail := func(err error) {
		summary.Reason = StopReasonFailed
		summary.Err = err
		e.lastErr.Store(&err)
		e.running.CompareAndSwap(true, false)
		e.logger.Error("Input injection failed", "err", err)
	}

	for e.running.Load() && !r.token.cancelled() {
		cycleStart := time.Now()

		if err := e.sink.Press(cfg.Button); err != nil {
			fail(fmt.Errorf("press %s: %w", cfg.Button, err))
			signalReady(err)
			return
		}
		signalReady(nil)

		spinUntil(cycleStart.Add(pressFor), &r.token)

		if err := e.sink.Release(cfg.Button); err != nil {
			fail(fmt.Errorf("release %s: %w", cfg.Button, err))
			return
		}

		clicks := e.clicks.Add(1)
		if cfg.ClickLimit.Enabled && clicks >= int64(cfg.ClickLimit.Count) {
			summary.Reason = StopReasonLimit
			e.running.CompareAndSwap(true, false)
			return
		}

		spinUntil(cycleStart.Add(interval), &r.token)
	}
}

func limitArg(limit ClickLimit) any {
	if !limit.Enabled {
		return "off"
	}
	return limit.Count
}
