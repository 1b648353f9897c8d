package sentinel

import (
	"context"
	"slices"

	"keyjournal/internal/hook"
	"keyjournal/internal/keystroke"
	"keyjournal/internal/logging"
	"keyjournal/internal/session"
)

// EngineConfig controls how key-downs reach the buffer and which buttons
// close a session.
type EngineConfig struct {
	// AuditKeystrokes emits a keystroke record before every key-down.
	AuditKeystrokes bool

	// ChordsToTranscript sends keys pressed while Ctrl is held, Ctrl
	// included, to the transcript only.
	ChordsToTranscript bool

	// TriggerButtons close the session when pressed.
	TriggerButtons []hook.Button
}

// DefaultEngineConfig returns left and right clicks as triggers with chord
// routing enabled.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ChordsToTranscript: true,
		TriggerButtons:     []hook.Button{hook.ButtonLeft, hook.ButtonRight},
	}
}

// Engine owns the modifier tracker, decoder, buffer and correlator and drives
// them for each raw event. It implements hook.Handler and must be called from
// a single input thread.
type Engine struct {
	cfg     EngineConfig
	tracker *keystroke.Tracker
	decoder *keystroke.Decoder
	buf     *session.Buffer
	corr    *Correlator
	ctx     context.Context
	logger  *logging.Logger
}

var _ hook.Handler = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTracker replaces the default tracker.
func WithTracker(t *keystroke.Tracker) EngineOption {
	return func(e *Engine) { e.tracker = t }
}

// WithDecoder replaces the US-layout decoder.
func WithDecoder(d *keystroke.Decoder) EngineOption {
	return func(e *Engine) { e.decoder = d }
}

// WithContext sets the context passed to the sink.
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) { e.ctx = ctx }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine flushing through corr.
func NewEngine(cfg EngineConfig, corr *Correlator, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		corr:   corr,
		buf:    corr.Buffer(),
		ctx:    context.Background(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracker == nil {
		e.tracker = keystroke.NewTracker(keystroke.PlatformLock())
	}
	if e.decoder == nil {
		e.decoder = keystroke.NewDecoder(nil)
	}
	return e
}

// KeyDown updates modifier state, decodes the key and appends it.
func (e *Engine) KeyDown(ev hook.Event) {
	e.tracker.KeyDown(ev.VK)
	mods := e.tracker.State()
	tok := e.decoder.Decode(ev.VK, mods)

	if e.cfg.AuditKeystrokes {
		e.corr.OnKeystroke(e.ctx, tok.Text(), ev.Time)
	}

	if mods.Ctrl && e.cfg.ChordsToTranscript {
		e.buf.AppendTranscript(tok)
	} else {
		e.buf.Append(tok)
	}

	e.logger.Debug("key down", "vk", int(ev.VK), "kind", tok.Kind.String(), "shift", mods.Shift, "ctrl", mods.Ctrl, "caps", mods.CapsLock)
}

// KeyUp releases hold modifiers.
func (e *Engine) KeyUp(ev hook.Event) {
	e.tracker.KeyUp(ev.VK)
}

// ButtonDown flushes the session when b is a trigger button.
func (e *Engine) ButtonDown(ev hook.Event, b hook.Button) {
	if !slices.Contains(e.cfg.TriggerButtons, b) {
		return
	}
	rec := e.corr.OnTrigger(e.ctx, Trigger{Name: b.String(), X: ev.X, Y: ev.Y, At: ev.Time})
	e.logger.Debug("session flushed", "button", b.String(), "screenshot", rec.ScreenshotPath, "title", rec.ActiveApplication)
}

// Modifiers returns the live modifier state.
func (e *Engine) Modifiers() keystroke.ModifierState {
	return e.tracker.State()
}

// Pending returns the unflushed buffer contents.
func (e *Engine) Pending() session.Snapshot {
	return e.buf.Snapshot()
}

// Correlator returns the engine's correlator.
func (e *Engine) Correlator() *Correlator { return e.corr }
