package speech

import (
	"context"
	"log/slog"
	"sync"
)

// Callbacks are the session-facing mutation requests. The session never
// holds transcript state itself; the owner of the answer buffers decides
// what to do with each chunk.
type Callbacks struct {
	// Interim delivers a revisable partial chunk (replaces the previous one).
	Interim func(text string)
	// Final delivers a finalized chunk.
	Final func(text string)
	// Idle reports a forced transition to idle after a hard stream error.
	Idle func(err error)
}

// Session owns at most one live engine stream. Every Start supersedes the
// previous stream: results from a superseded stream carry a stale generation
// and are discarded on arrival, so late deliveries after a stop can never
// mutate anything.
type Session struct {
	logger *slog.Logger
	engine Engine
	cb     Callbacks

	mu      sync.Mutex
	gen     uint64
	running bool
	ctx     context.Context
}

// NewSession wires an engine to the owner callbacks.
func NewSession(logger *slog.Logger, engine Engine, cb Callbacks) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{logger: logger, engine: engine, cb: cb}
}

// Running reports whether the session is logically recording.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start opens a new engine stream, superseding any previous one.
func (s *Session) Start(ctx context.Context) error {
	if s.engine == nil {
		return ErrEngineUnavailable
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.running = true
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.engine.Start(ctx, &sessionHandler{session: s, gen: gen}); err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.running = false
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Pause stops the stream while keeping the capture logically suspended.
// Results from the paused stream become stale immediately.
func (s *Session) Pause() {
	s.invalidate()
	s.engineStop()
	s.logger.Debug("speech session paused")
}

// StopNow stops the stream outright.
func (s *Session) StopNow() {
	s.invalidate()
	s.engineStop()
	s.logger.Debug("speech session stopped")
}

// invalidate fences off the current stream generation.
func (s *Session) invalidate() {
	s.mu.Lock()
	s.gen++
	s.running = false
	s.mu.Unlock()
}

func (s *Session) engineStop() {
	if s.engine != nil {
		s.engine.Stop()
	}
}

// live reports whether events tagged with gen still speak for the session.
func (s *Session) live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

// handleEnd restarts the stream when the engine quietly stopped itself while
// the session is still logically recording. An operator-initiated stop
// bumps the generation first, so it never triggers a restart.
func (s *Session) handleEnd(gen uint64) {
	s.mu.Lock()
	restart := s.running && s.gen == gen
	ctx := s.ctx
	s.mu.Unlock()
	if !restart {
		return
	}

	s.logger.Debug("engine stream ended while recording; restarting")
	go func() {
		if err := s.engine.Start(ctx, &sessionHandler{session: s, gen: gen}); err != nil {
			s.handleError(gen, err)
		}
	}()
}

// handleError forces idle and stops the stream best-effort. Buffered text is
// deliberately left alone for the operator to confirm or discard.
func (s *Session) handleError(gen uint64, err error) {
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.running = false
	s.mu.Unlock()

	s.logger.Warn("engine stream error", "error", err.Error())
	s.engineStop()
	if s.cb.Idle != nil {
		s.cb.Idle(err)
	}
}

// sessionHandler tags every engine notification with the generation of the
// stream that produced it.
type sessionHandler struct {
	session *Session
	gen     uint64
}

func (h *sessionHandler) OnResult(r Result) {
	s := h.session
	if !s.live(h.gen) {
		s.logger.Debug("discarding stale result", "final", r.Final)
		return
	}
	if r.Final {
		if s.cb.Final != nil {
			s.cb.Final(r.Text)
		}
		return
	}
	if s.cb.Interim != nil {
		s.cb.Interim(r.Text)
	}
}

func (h *sessionHandler) OnEnd() {
	h.session.handleEnd(h.gen)
}

func (h *sessionHandler) OnError(err error) {
	h.session.handleError(h.gen, err)
}
