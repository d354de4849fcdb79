// Package speech wraps one continuous speech-recognition stream and its
// lifecycle quirks: interim/final result delivery, silent engine self-stops,
// and hard stream errors.
package speech

import (
	"context"
	"errors"
)

// ErrEngineUnavailable indicates no recognition engine is wired; capture
// simply cannot begin.
var ErrEngineUnavailable = errors.New("speech recognition engine unavailable")

// Result is one transcription chunk. Interim results replace each other
// until a final result arrives.
type Result struct {
	Text  string
	Final bool
}

// Handler receives engine stream notifications. Calls arrive on the
// engine's own goroutine.
type Handler interface {
	// OnResult delivers an interim or finalized chunk.
	OnResult(Result)
	// OnEnd signals the stream stopped without an error. The engine may do
	// this on its own while the session is still logically recording.
	OnEnd()
	// OnError signals a hard stream failure; the stream is gone.
	OnError(error)
}

// Engine is one continuous recognition stream source. Start establishes the
// stream and returns; results flow through the handler until Stop or a
// stream end/error.
type Engine interface {
	Start(ctx context.Context, h Handler) error
	Stop()
}
