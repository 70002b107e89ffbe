package events

// KindTurnCancelled identifies turn cancellation.
const KindTurnCancelled Kind = "turn_state.cancelled"

// CancelReason says who ended the turn.
type CancelReason string

const (
	// CancelByHost is an explicit Interrupt from the application.
	CancelByHost CancelReason = "host"
	// CancelByBargeIn is the user starting to talk over the agent.
	CancelByBargeIn CancelReason = "barge_in"
)

// TurnCancelled marks cancellation of the current turn. Anything still
// arriving for it is discarded.
type TurnCancelled struct {
	Base
	Reason CancelReason
}

func NewTurnCancelled(reason CancelReason) TurnCancelled {
	return TurnCancelled{Base: NewBase(KindTurnCancelled), Reason: reason}
}
