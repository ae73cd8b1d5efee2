// Package lifecycle defines the orchestrator's recording state machine.
package lifecycle

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
)

const (
	EventBegin         Event = "begin"
	EventStartResolved Event = "start-resolved"
	EventStopRequested Event = "stop-requested"
	EventCompleted     Event = "completed"
	EventFailed        Event = "failed"
)

// Transition applies one event to a state and returns the next state.
// EventCompleted and EventFailed return to idle from any state so a session's
// completion callback and the error funnel can never leave the machine stuck.
func Transition(current State, event Event) (State, error) {
	if event == EventCompleted || event == EventFailed {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventBegin:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventStartResolved:
			return StateRecording, nil
		case EventStopRequested:
			// Stop intent while starting is recorded by the orchestrator; the
			// underlying session is not touched until start resolves.
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStopRequested:
			return StateStopping, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStopping:
		// Only completion or failure moves the machine out of stopping.
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
