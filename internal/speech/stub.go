package speech

import (
	"context"
	"sync"
)

// StubEngine is an in-process engine whose results are injected by tests or
// by the keyboard-only fallback when no websocket service is configured.
type StubEngine struct {
	mu          sync.Mutex
	handler     Handler
	lastHandler Handler
	starts      int
	stops       int
	startErr    error
}

// NewStubEngine returns an engine that delivers whatever is emitted to it.
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

// FailStartWith makes subsequent Start calls return err.
func (e *StubEngine) FailStartWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startErr = err
}

func (e *StubEngine) Start(_ context.Context, h Handler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	if e.startErr != nil {
		return e.startErr
	}
	e.handler = h
	e.lastHandler = h
	return nil
}

func (e *StubEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.handler = nil
}

// Starts reports how many Start calls were made.
func (e *StubEngine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Stops reports how many Stop calls were made.
func (e *StubEngine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *StubEngine) currentHandler() Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler
}

// EmitInterim delivers an interim chunk to the live handler.
func (e *StubEngine) EmitInterim(text string) {
	if h := e.currentHandler(); h != nil {
		h.OnResult(Result{Text: text})
	}
}

// EmitFinal delivers a finalized chunk to the live handler.
func (e *StubEngine) EmitFinal(text string) {
	if h := e.currentHandler(); h != nil {
		h.OnResult(Result{Text: text, Final: true})
	}
}

// EmitEnd signals a silent engine self-stop.
func (e *StubEngine) EmitEnd() {
	if h := e.currentHandler(); h != nil {
		h.OnEnd()
	}
}

// EmitError signals a hard stream failure.
func (e *StubEngine) EmitError(err error) {
	if h := e.currentHandler(); h != nil {
		h.OnError(err)
	}
}

// EmitLateFinal delivers a finalized chunk through the most recent handler
// even after Stop, modelling results that arrive after a stream was closed.
func (e *StubEngine) EmitLateFinal(text string) {
	e.mu.Lock()
	h := e.lastHandler
	e.mu.Unlock()
	if h != nil {
		h.OnResult(Result{Text: text, Final: true})
	}
}
