// Package capture implements the transcript capture engine: a continuous
// speech-recognition session that survives recognizer restarts and turns
// finalized results into an ordered list of transcript segments.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
)

// Listener receives the full, ordered segment list after every change.
// Listeners run on the engine's delivery path and must not call back into
// the engine synchronously.
type Listener func(segments []models.TranscriptSegment)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the segment timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type listenerEntry struct {
	id int
	fn Listener
}

// run is one Listening-to-Idle capture session driven by a supervisor goroutine.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine is the capture state machine.
type Engine struct {
	rec    Recognizer
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	// deliverMu is held from a state check through listener delivery so that
	// notifications stay ordered and none follows a completed Stop.
	deliverMu sync.Mutex

	mu         sync.Mutex
	state      State
	run        *run
	segments   []models.TranscriptSegment
	seq        int
	listeners  []listenerEntry
	listenerID int
}

// New creates an engine and probes rec once. A nil or unsupported
// recognizer leaves the engine permanently Unsupported.
func New(ctx context.Context, rec Recognizer, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		rec:      rec,
		cfg:      cfg,
		now:      time.Now,
		segments: []models.TranscriptSegment{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.Or(e.logger)

	if rec == nil || !rec.Supported(ctx) {
		e.state = StateUnsupported
		e.logger.Warn("Speech recognition unavailable")
	}
	return e
}

// State returns the current capture state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Segments returns a copy of the current transcript
func (e *Engine) Segments() []models.TranscriptSegment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.segments)
}

// Subscribe registers fn for transcript updates and returns a function
// that removes it.
func (e *Engine) Subscribe(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listenerID++
	id := e.listenerID
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = slices.DeleteFunc(e.listeners, func(l listenerEntry) bool { return l.id == id })
	}
}

// Start begins listening. It is a no-op while already Listening and returns
// ErrRecognitionUnsupported when the platform has no speech capability.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateUnsupported:
		return models.ErrRecognitionUnsupported
	case StateListening:
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{})}
	e.run = r
	e.state = StateListening

	go e.supervise(ctx, r)
	e.logger.Debug("Capture started", "locale", e.cfg.Locale)
	return nil
}

// Stop ends listening. Once Stop returns no further segment is emitted for
// the stopped session, including results the recognizer had in flight.
func (e *Engine) Stop() {
	e.deliverMu.Lock()
	e.mu.Lock()
	r := e.run
	if e.state != StateListening || r == nil {
		e.mu.Unlock()
		e.deliverMu.Unlock()
		return
	}
	e.state = StateIdle
	e.run = nil
	e.mu.Unlock()
	e.deliverMu.Unlock()

	r.cancel()
	<-r.done
	e.logger.Debug("Capture stopped")
}

// Clear empties the transcript without touching the capture state.
func (e *Engine) Clear() {
	e.replace(nil)
}

// Load replaces the displayed transcript with segments, e.g. an idea's
// stored transcript, without starting to listen.
func (e *Engine) Load(segments []models.TranscriptSegment) {
	e.replace(segments)
}

func (e *Engine) replace(segments []models.TranscriptSegment) {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()

	e.mu.Lock()
	e.segments = slices.Clone(segments)
	if e.segments == nil {
		e.segments = []models.TranscriptSegment{}
	}
	snapshot, listeners := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(listeners, snapshot)
}

func (e *Engine) snapshotLocked() ([]models.TranscriptSegment, []listenerEntry) {
	return slices.Clone(e.segments), slices.Clone(e.listeners)
}

func (e *Engine) notify(listeners []listenerEntry, segments []models.TranscriptSegment) {
	for _, l := range listeners {
		var pc panics.Catcher
		pc.Try(func() { l.fn(slices.Clone(segments)) })
		if recovered := pc.Recovered(); recovered != nil {
			e.logger.Error("Transcript listener panicked", "panic", recovered.String())
		}
	}
}

// supervise keeps a recognizer session running until ctx is cancelled.
func (e *Engine) supervise(ctx context.Context, r *run) {
	defer close(r.done)

	opts := Options{Locale: e.cfg.Locale, Continuous: true, InterimResults: true}
	var delay time.Duration

	for attempt := 0; ; attempt++ {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}

		sess, err := e.rec.Start(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn("Recognizer failed to start, retrying", "error", err, "delay", e.cfg.ErrorRetryDelay)
			delay = e.cfg.ErrorRetryDelay
			continue
		}
		if attempt > 0 {
			e.logger.Debug("Recognizer restarted", "attempt", attempt)
		}

		delay = e.consume(ctx, r, sess)
	}
}

// consume forwards one session's events and returns how long to wait before
// restarting the recognizer.
func (e *Engine) consume(ctx context.Context, r *run, sess Session) time.Duration {
	delay := e.cfg.RestartDelay
	events := sess.Events()

	for {
		select {
		case <-ctx.Done():
			if err := sess.Stop(); err != nil {
				e.logger.Debug("Recognizer stop failed", "error", err)
			}
			return 0

		case ev, ok := <-events:
			if !ok {
				return delay
			}
			switch ev.Kind {
			case EventResult:
				e.handleResult(r, ev)
			case EventError:
				if ev.Code.Transient() {
					e.logger.Debug("Transient recognizer error", "code", ev.Code)
				} else {
					e.logger.Warn("Recognizer error", "code", ev.Code)
				}
				delay = e.cfg.ErrorRetryDelay
			}
		}
	}
}

func (e *Engine) handleResult(r *run, ev Event) {
	text := finalText(ev)
	if text == "" {
		return
	}

	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()

	e.mu.Lock()
	if e.run != r {
		// stopped while the result was in flight
		e.mu.Unlock()
		return
	}
	e.segments = append(e.segments, models.TranscriptSegment{
		ID:        fmt.Sprintf("segment-%d", e.seq),
		Text:      text,
		Timestamp: e.now().UnixMilli(),
	})
	e.seq++
	snapshot, listeners := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(listeners, snapshot)
}

// finalText concatenates the finalized results of a batch.
func finalText(ev Event) string {
	var b strings.Builder
	for i := max(ev.ResultIndex, 0); i < len(ev.Results); i++ {
		if ev.Results[i].Final {
			b.WriteString(ev.Results[i].Text)
		}
	}
	return strings.TrimSpace(b.String())
}
