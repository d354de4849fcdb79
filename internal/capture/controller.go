package capture

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ymorita/soudan/internal/speech"
	"github.com/ymorita/soudan/internal/store"
)

// TargetOther is the sentinel target for a freeform capture whose question
// does not exist yet; confirming it materializes a question+answer pair.
const TargetOther = "OTHER"

// Config bounds the start/retry behavior and the silence window.
type Config struct {
	SilenceWindow   time.Duration
	StartCooldown   time.Duration
	StartRetries    int
	StartRetryDelay time.Duration
	QuestionTextCap int
}

// DefaultConfig is the tuning used when no config file overrides it.
func DefaultConfig() Config {
	return Config{
		SilenceWindow:   60 * time.Second,
		StartCooldown:   180 * time.Millisecond,
		StartRetries:    3,
		StartRetryDelay: 250 * time.Millisecond,
		QuestionTextCap: 2000,
	}
}

// Status is a consistent snapshot of the controller state for presentation
// and IPC.
type Status struct {
	State         State
	Target        string
	AnswerBuffer  string
	InterimBuffer string
}

// Controller owns the active target, the answer/interim buffer pair, and
// the recording state machine. The transcription session and the silence
// watchdog request mutations only through its callbacks, and every
// asynchronous event re-checks the live state before touching a buffer.
type Controller struct {
	logger   *slog.Logger
	store    *store.Store
	session  *speech.Session
	watchdog *Watchdog
	cfg      Config

	mu         sync.Mutex
	state      State
	target     string
	answerBuf  string
	interimBuf string
	startSeq   uint64

	listener func()
}

// New wires a controller to the store and a recognition engine. A nil
// engine leaves capture permanently unavailable while everything else
// keeps working.
func New(logger *slog.Logger, st *store.Store, engine speech.Engine, cfg Config) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.StartRetries <= 0 {
		cfg.StartRetries = 1
	}
	c := &Controller{
		logger: logger,
		store:  st,
		cfg:    cfg,
		state:  StateIdle,
	}
	c.session = speech.NewSession(logger, engine, speech.Callbacks{
		Interim: c.onInterim,
		Final:   c.onFinal,
		Idle:    c.onEngineIdle,
	})
	c.watchdog = NewWatchdog(cfg.SilenceWindow, c.onSilence)
	return c
}

// SetListener registers a callback invoked after every observable state
// change, for presentation re-render.
func (c *Controller) SetListener(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Status returns a consistent snapshot of the live capture state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:         c.state,
		Target:        c.target,
		AnswerBuffer:  c.answerBuf,
		InterimBuffer: c.interimBuf,
	}
}

// SelectTarget is invoked when the operator picks a question (or OTHER).
// Clicking the active target closes its capture: an answered question with
// pending text is confirmed first, an unanswered one is cancelled. Switching
// away commits non-empty buffered text to the previous target, clears both
// buffers unconditionally, and starts capture on the new target after a
// cooldown with bounded retries.
func (c *Controller) SelectTarget(ctx context.Context, id string) {
	c.mu.Lock()

	if c.target == id && id != "" && (c.state != StateIdle || c.hasTextLocked()) {
		if c.isAnsweredLocked(id) {
			if c.hasTextLocked() {
				c.confirmLocked()
			} else {
				c.stopCaptureLocked(EventStop)
			}
		} else {
			c.cancelLocked()
		}
		c.mu.Unlock()
		c.notify()
		return
	}

	if c.state == StateRecording || c.state == StatePaused {
		if c.target != "" && c.hasTextLocked() {
			c.confirmLocked()
		} else {
			c.stopCaptureLocked(EventStop)
		}
	} else {
		c.stopCaptureLocked(EventStop)
	}

	c.answerBuf = ""
	c.interimBuf = ""
	c.target = id
	c.startSeq++
	seq := c.startSeq
	c.mu.Unlock()

	c.notify()
	go c.startWithRetry(ctx, seq)
}

// Confirm merges the finalized and interim buffers into one answer and
// commits it to the active target's history. Empty merged text is a no-op.
// A confirm always ends the current capture cycle.
func (c *Controller) Confirm() {
	c.mu.Lock()
	committed := c.confirmLocked()
	c.mu.Unlock()
	if committed {
		c.notify()
	}
}

// Cancel clears both buffers and stops capture without writing an answer.
// Always safe; idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
	c.notify()
}

// CreateOther force-stops any in-flight capture (discarding buffers) and
// begins a fresh freeform capture.
func (c *Controller) CreateOther(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateRecording || c.state == StatePaused {
		c.stopCaptureLocked(EventStop)
	}
	c.answerBuf = ""
	c.interimBuf = ""
	c.target = TargetOther
	c.startSeq++
	seq := c.startSeq
	c.mu.Unlock()

	c.notify()
	go c.startWithRetry(ctx, seq)
}

// Pause explicitly suspends an active recording.
func (c *Controller) Pause() {
	c.mu.Lock()
	next, err := Transition(c.state, EventPause)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	c.session.Pause()
	c.watchdog.Clear()
	c.notify()
}

// Resume restarts capture for the current target after an explicit or
// silence-induced pause.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	if c.state != StatePaused || c.target == "" {
		c.mu.Unlock()
		return
	}
	c.startSeq++
	seq := c.startSeq
	c.mu.Unlock()

	go c.startWithRetry(ctx, seq)
}

// isAnsweredLocked reports whether the target id refers to a done question.
// The OTHER sentinel is never answered.
func (c *Controller) isAnsweredLocked(id string) bool {
	if id == TargetOther {
		return false
	}
	q, ok := c.store.Question(id)
	return ok && q.Done
}

func (c *Controller) hasTextLocked() bool {
	return strings.TrimSpace(c.answerBuf) != "" || strings.TrimSpace(c.interimBuf) != ""
}

// confirmLocked commits the merged buffer text to the active target and
// fully stops the capture cycle. Returns false when there was nothing to
// commit.
func (c *Controller) confirmLocked() bool {
	merged := strings.TrimSpace(c.answerBuf)
	if interim := strings.TrimSpace(c.interimBuf); interim != "" {
		if merged != "" {
			merged += " " + interim
		} else {
			merged = interim
		}
	}
	if merged == "" {
		return false
	}

	switch {
	case c.target == TargetOther:
		cat := c.otherCategoryLocked()
		question, _ := c.store.CreateAnsweredQuestion(truncateRunes(merged, c.cfg.QuestionTextCap), merged, cat.ID)
		c.target = question.ID
		c.store.SetActiveHistoryCategory(cat.ID)
		c.logger.Info("confirmed freeform answer", "question", question.ID, "category", cat.ID)
	case c.target != "":
		question, ok := c.store.Question(c.target)
		if !ok {
			c.logger.Warn("confirm target vanished; discarding", "target", c.target)
			c.stopCaptureLocked(EventStop)
			return false
		}
		if _, err := c.store.PrependAnswer(question.ID, merged, false); err != nil {
			c.logger.Error("record answer failed", "error", err.Error())
			return false
		}
		c.store.SetActiveHistoryCategory(question.CategoryID)
		c.logger.Info("confirmed answer", "question", question.ID)
	default:
		return false
	}

	c.stopCaptureLocked(EventStop)
	return true
}

// otherCategoryLocked resolves the category a confirmed OTHER capture lands
// in: the selected category filter, else the first category, else a
// materialized uncategorized one.
func (c *Controller) otherCategoryLocked() store.Category {
	active := c.store.ActiveCategory()
	if active != "" && active != store.AllCategories {
		if cat, ok := c.store.Category(active); ok {
			return cat
		}
	}
	if first, ok := c.store.FirstCategory(); ok {
		return first
	}
	return c.store.EnsureCategory(store.UncategorizedName)
}

// cancelLocked discards buffers and stops capture without committing.
func (c *Controller) cancelLocked() {
	c.answerBuf = ""
	c.interimBuf = ""
	c.stopCaptureLocked(EventStop)
}

// stopCaptureLocked transitions to idle and releases the stream and timer.
// Buffers are left to the caller: confirm flushes them, cancel clears them,
// engine errors keep them.
func (c *Controller) stopCaptureLocked(event Event) {
	next, _ := Transition(c.state, event)
	c.state = next
	c.startSeq++
	c.session.StopNow()
	c.watchdog.Clear()
}

// startWithRetry issues a deliberate cooldown-delayed start, retried a
// bounded number of times, to avoid platform stop-then-start races. A
// superseded selection abandons the attempt silently.
func (c *Controller) startWithRetry(ctx context.Context, seq uint64) {
	if !sleepCtx(ctx, c.cfg.StartCooldown) {
		return
	}

	for attempt := 1; attempt <= c.cfg.StartRetries; attempt++ {
		c.mu.Lock()
		if c.startSeq != seq {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		err := c.session.Start(ctx)
		if err == nil {
			c.mu.Lock()
			if c.startSeq != seq {
				c.mu.Unlock()
				c.session.StopNow()
				return
			}
			c.state = StateRecording
			c.mu.Unlock()
			c.watchdog.Bump()
			c.notify()
			return
		}
		if errors.Is(err, speech.ErrEngineUnavailable) {
			c.logger.Warn("recognition engine unavailable; capture not started")
			return
		}

		c.logger.Debug("start attempt failed", "attempt", attempt, "error", err.Error())
		if attempt < c.cfg.StartRetries && !sleepCtx(ctx, c.cfg.StartRetryDelay) {
			return
		}
	}
	c.logger.Warn("start retries exhausted; capture not started")
}

// onInterim replaces the interim buffer with the newest revisable chunk.
// The live state is consulted at arrival time, never the state captured at
// stream start.
func (c *Controller) onInterim(text string) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.interimBuf = text
	c.mu.Unlock()
	c.notify()
}

// onFinal appends a finalized chunk to the answer buffer, clears the
// interim buffer, and re-arms the silence watchdog.
func (c *Controller) onFinal(text string) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.answerBuf = speech.MergeSegment(c.answerBuf, text)
	c.interimBuf = ""
	c.mu.Unlock()

	c.watchdog.Bump()
	c.notify()
}

// onSilence auto-pauses a recording that produced no finalized text for the
// configured window. No effect in any other state.
func (c *Controller) onSilence() {
	c.mu.Lock()
	next, err := Transition(c.state, EventSilence)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()

	c.session.Pause()
	c.logger.Info("silence window elapsed; capture paused")
	c.notify()
}

// onEngineIdle handles a hard stream error: forced idle, buffers retained
// for the operator to confirm or discard manually.
func (c *Controller) onEngineIdle(err error) {
	c.mu.Lock()
	next, _ := Transition(c.state, EventFail)
	c.state = next
	c.mu.Unlock()

	c.watchdog.Clear()
	c.logger.Warn("capture forced idle", "error", err.Error())
	c.notify()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
