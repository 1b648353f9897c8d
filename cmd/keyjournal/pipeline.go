package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"keyjournal/internal/capture"
	"keyjournal/internal/config"
	"keyjournal/internal/hook"
	"keyjournal/internal/keystroke"
	"keyjournal/internal/logging"
	"keyjournal/internal/metrics"
	"keyjournal/internal/recording"
	"keyjournal/internal/sentinel"
	"keyjournal/internal/session"
	"keyjournal/internal/store"
)

// pipeline is one capture session wired from configuration: recording
// player, loopback hook chain, engine, correlator and sinks.
type pipeline struct {
	sessionID string
	logger    *logging.Logger
	crash     *logging.CrashHandler
	metrics   *metrics.Journal

	db         *store.Store
	csv        *store.CSVLog
	dispatcher *sentinel.Dispatcher

	titles   *sentinel.TitleCache
	frames   *capture.FrameSource
	lock     *keystroke.ToggleLock
	engine   *sentinel.Engine
	callback *hook.Callback
	loopback *hook.Loopback
	hooks    *hook.Session
	player   *recording.Player
}

// newPipeline builds a session. frameBase resolves relative frame paths
// found in the recording.
func newPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger, frameBase string, strict bool) (*pipeline, error) {
	p := &pipeline{
		sessionID: uuid.NewString(),
		logger:    logger,
		titles:    &sentinel.TitleCache{},
		lock:      keystroke.NewToggleLock(false),
		loopback:  hook.NewLoopback(),
		metrics:   metrics.NewJournal(nil),
	}
	ok := false
	defer func() {
		if !ok {
			p.Close()
		}
	}()

	p.crash = logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  cfg.Logging.CrashDir,
		Version:   version,
		Component: "hook",
		Logger:    logger,
	})
	p.crash.SetSessionID(p.sessionID)
	if days := cfg.Logging.CrashRetentionDays; days > 0 {
		if err := p.crash.CleanupOldCrashReports(time.Duration(days) * 24 * time.Hour); err != nil {
			logger.Warn("prune crash reports failed", slog.Any("error", err))
		}
	}

	buttons, err := triggerButtons(cfg.Capture.TriggerButtons)
	if err != nil {
		return nil, err
	}

	layout, err := keystroke.LayoutByName(cfg.Capture.Layout)
	if err != nil {
		return nil, err
	}

	var sinks store.Multi
	if cfg.SinkEnabled("sqlite") {
		p.db, err = store.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, p.db)
	}
	if cfg.SinkEnabled("csv") {
		p.csv, err = store.OpenCSV(cfg.Storage.CSVPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, p.csv)
	}

	sink := p.metrics.Instrument(sinks)
	if cfg.Persistence.Async {
		p.dispatcher = sentinel.NewDispatcher(sink, cfg.Persistence.QueueSize, logger.WithComponent("dispatcher"), p.crash)
		sink = p.dispatcher
	}

	var capturer sentinel.ScreenshotCapturer = capture.Nop{}
	if cfg.Capture.Screenshots {
		p.frames = capture.NewFrameSource(frameBase)
		fc, err := capture.NewFileCapturer(cfg.Capture.ScreenshotDir, p.frames.Grab, capture.WithMaxWidth(cfg.Capture.MaxWidth))
		if err != nil {
			return nil, err
		}
		capturer = fc
	}

	corr := sentinel.NewCorrelator(session.New(), sink,
		sentinel.WithTitler(p.titles),
		sentinel.WithCapturer(capturer),
		sentinel.WithSessionID(p.sessionID),
		sentinel.WithLogger(logger.WithComponent("correlator")),
	)

	p.engine = sentinel.NewEngine(sentinel.EngineConfig{
		AuditKeystrokes:    cfg.Capture.AuditKeystrokes,
		ChordsToTranscript: cfg.Capture.ChordsToTranscript,
		TriggerButtons:     buttons,
	}, corr,
		sentinel.WithTracker(keystroke.NewTracker(p.lock)),
		sentinel.WithDecoder(keystroke.NewDecoder(layout)),
		sentinel.WithContext(ctx),
		sentinel.WithEngineLogger(logger.WithComponent("engine")),
	)

	p.callback = hook.NewCallback(p.engine, p.crash)
	p.hooks, err = hook.Open(p.loopback, p.callback.Proc(), p.callback.Proc())
	if err != nil {
		return nil, fmt.Errorf("install hooks: %w", err)
	}

	p.player = &recording.Player{
		Deliver:  p.loopback.Deliver,
		OnHeader: func(h recording.Header) { p.lock.Set(h.CapsLock) },
		OnTitle:  p.titles.Set,
		Strict:   strict,
		OnSkip: func(err error) {
			p.metrics.LinesSkipped.Inc()
			logger.Warn("skipping recording line", slog.Any("error", err))
		},
	}
	if p.frames != nil {
		p.player.OnFrame = p.frames.Set
	}

	logger.Info("session started",
		slog.String("session_id", p.sessionID),
		slog.Bool("async", cfg.Persistence.Async),
		slog.Bool("screenshots", cfg.Capture.Screenshots),
	)
	ok = true
	return p, nil
}

// applyLine feeds one followed line to the player. Invalid lines are
// logged and skipped unless the player is strict.
func (p *pipeline) applyLine(line []byte) error {
	err := p.player.ApplyLine(line)
	if errors.Is(err, recording.ErrInvalidLine) && !p.player.Strict {
		p.metrics.LinesSkipped.Inc()
		p.logger.Warn("skipping recording line", slog.Any("error", err))
		return nil
	}
	return err
}

// Close uninstalls the hooks, drains the dispatcher and closes the sinks,
// in that order.
func (p *pipeline) Close() error {
	var errs []error
	if p.hooks != nil {
		errs = append(errs, p.hooks.Close())
	}
	if p.dispatcher != nil {
		errs = append(errs, p.dispatcher.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	if p.csv != nil {
		errs = append(errs, p.csv.Close())
	}
	return errors.Join(errs...)
}

// writeMetrics publishes the session counters to a Prometheus textfile.
func (p *pipeline) writeMetrics(path string) error {
	hs := p.callback.Stats()
	p.metrics.EventsHandled.Set(hs.Handled)
	p.metrics.HandlerFaults.Set(hs.Faults)
	return p.metrics.WriteTextfile(path)
}

func (p *pipeline) summary() sessionSummary {
	hs := p.callback.Stats()
	cs := p.engine.Correlator().Stats()
	s := sessionSummary{
		SessionID:       p.sessionID,
		Handled:         hs.Handled,
		Faults:          hs.Faults,
		Flushes:         cs.Flushes,
		Audits:          cs.Audits,
		SinkErrors:      cs.SinkErrors,
		CaptureFailures: cs.CaptureFailures,
	}
	if p.dispatcher != nil {
		s.SinkErrors += p.dispatcher.Failed()
	}
	return s
}

type sessionSummary struct {
	SessionID       string
	Handled         int64
	Faults          int64
	Flushes         int64
	Audits          int64
	SinkErrors      int64
	CaptureFailures int64
}

func triggerButtons(names []string) ([]hook.Button, error) {
	buttons := make([]hook.Button, 0, len(names))
	for _, name := range names {
		b, err := hook.ParseButton(name)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, b)
	}
	return buttons, nil
}

func (p *pipeline) publishMetrics(path string) {
	if path == "" {
		return
	}
	if err := p.writeMetrics(path); err != nil {
		p.logger.Warn("write metrics failed", slog.String("path", path), slog.Any("error", err))
	}
}

// crashSummary describes the crash reports found on disk: the count and the
// most recent panic.
func crashSummary(reports []logging.CrashReport) string {
	if len(reports) == 0 {
		return "none"
	}
	latest := slices.MaxFunc(reports, func(a, b logging.CrashReport) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return fmt.Sprintf("%d (latest %s in %s: %s)", len(reports),
		latest.Timestamp.Local().Format(store.TimestampLayout), latest.Component, latest.PanicValue)
}
