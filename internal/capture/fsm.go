// Package capture coordinates continuous transcription, question switching,
// silence auto-pause, and answer confirmation against a single mutable
// answer buffer.
package capture

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
)

const (
	EventStart   Event = "start"
	EventPause   Event = "pause"
	EventResume  Event = "resume"
	EventSilence Event = "silence"
	EventStop    Event = "stop"
	EventFail    Event = "fail"
)

// Transition applies one event to the recording state machine. EventStop and
// EventFail reach idle from every state; everything else is position-bound.
// Transitions are the only places answer buffers may be flushed or cleared.
func Transition(current State, event Event) (State, error) {
	if event == EventStop || event == EventFail {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventPause, EventSilence:
			return StatePaused, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePaused:
		switch event {
		case EventResume, EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
