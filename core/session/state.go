package session

import "fmt"

// State is the connection state of a session.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ResponseState tracks the agent response lifecycle as far as the client
// knows it.
type ResponseState int32

const (
	ResponseIdle ResponseState = iota
	ResponseRequested
	ResponseActive
)

func (s ResponseState) String() string {
	switch s {
	case ResponseIdle:
		return "idle"
	case ResponseRequested:
		return "requested"
	case ResponseActive:
		return "active"
	default:
		return fmt.Sprintf("response(%d)", int32(s))
	}
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	State      State
	Ready      bool
	Response   ResponseState
	ResponseID string

	UserSpeaking  bool
	AgentSpeaking bool

	PendingToolCalls int
	RunningToolCalls int
	QueuedAudio      int
}
