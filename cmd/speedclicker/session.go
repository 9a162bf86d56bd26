package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"speedclicker/internal/core/autoclicker"
	"speedclicker/internal/history"
	"speedclicker/internal/settings"
)

const historyWriteTimeout = 2 * time.Second

type hotkeyListener interface {
	Start(handler autoclicker.KeyHandler) error
	SetHotkey(token string) error
	Stop()
}

// inputBackend is one platform's sink and hotkey listener. closeFn releases
// whatever the sink holds once the listener has stopped.
type inputBackend struct {
	name     string
	sink     autoclicker.InputSink
	listener hotkeyListener
	closeFn  func()
}

// session wires the settings store, engine, coordinator and backend for the
// lifetime of one process.
type session struct {
	logger   *slog.Logger
	settings *settings.Store
	backend  *inputBackend
	engine   *autoclicker.Engine
	history  *history.Store

	closeOnce sync.Once
}

func openSession(opts options, store *settings.Store, logger *slog.Logger) (*session, error) {
	backend, err := openInputBackend(opts.backend, opts.devicePath, logger)
	if err != nil {
		return nil, err
	}
	sess := &session{
		logger:   logger,
		settings: store,
		backend:  backend,
	}

	engineOpts := autoclicker.Options{Logger: logger}
	if opts.history {
		hist, err := openHistory(opts)
		if err != nil {
			logger.Warn("Run history disabled", "path", opts.historyPath, "err", err)
		} else {
			sess.history = hist
			engineOpts.OnRunEnd = hist.Recorder(logger, historyWriteTimeout)
		}
	}

	engine, err := autoclicker.NewEngine(backend.sink, store, engineOpts)
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.engine = engine

	coordinator, err := autoclicker.NewCoordinator(engine, store, logger)
	if err != nil {
		sess.Close()
		return nil, err
	}

	hotkey := store.Snapshot().Hotkey
	if err := backend.listener.SetHotkey(hotkey); err != nil {
		logger.Warn("Hotkey is not available on this backend", "hotkey", hotkey, "err", err)
	}
	if err := backend.listener.Start(coordinator); err != nil {
		sess.Close()
		return nil, fmt.Errorf("start hotkey listener: %w", err)
	}

	logger.Info("Backend", "name", backend.name)
	logger.Info("Hotkey", "key", hotkey, "mode", store.Snapshot().ActivationMode)
	return sess, nil
}

// setHotkey rebinds the listener first so a key the backend cannot watch
// never reaches the settings file.
func (s *session) setHotkey(token string) error {
	normalized := autoclicker.NormalizeKey(token)
	if normalized == "" {
		return fmt.Errorf("%w: hotkey is empty", settings.ErrInvalidValue)
	}
	if err := s.backend.listener.SetHotkey(normalized); err != nil {
		return err
	}
	return s.settings.SetHotkey(normalized)
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.backend.listener.Stop()
		if s.engine != nil {
			s.engine.Close()
		}
		if s.backend.closeFn != nil {
			s.backend.closeFn()
		}
		if s.history != nil {
			if err := s.history.Close(); err != nil {
				s.logger.Warn("Failed to close run history", "err", err)
			}
		}
	})
}
