package events

const (
	KindSessionStateChanged  Kind = "session.state_changed"
	KindSessionReady         Kind = "session.ready"
	KindSessionFailed        Kind = "session.failed"
	KindServerError          Kind = "session.server_error"
	KindCaptureUnavailable   Kind = "session.capture_unavailable"
	KindPlaybackUnavailable  Kind = "session.playback_unavailable"
	KindResponseRequestSkip  Kind = "session.response_request_skipped"
	KindSessionStateResynced Kind = "session.state_resynced"
)

// SessionStateChanged reports a connection state transition.
type SessionStateChanged struct {
	Base
	From string
	To   string
}

func NewSessionStateChanged(from, to string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
}

// SessionReady is published once the server acknowledged the session and the
// configuration was sent.
type SessionReady struct {
	Base
	SessionID string
}

func NewSessionReady(sessionID string) SessionReady {
	return SessionReady{Base: NewBase(KindSessionReady), SessionID: sessionID}
}

// SessionFailed reports an unrecoverable connection failure.
type SessionFailed struct {
	Base
	Err error
}

func NewSessionFailed(err error) SessionFailed {
	return SessionFailed{Base: NewBase(KindSessionFailed), Err: err}
}

// ServerError carries an error event reported by the agent.
type ServerError struct {
	Base
	Code    string
	Message string
}

func NewServerError(code, message string) ServerError {
	return ServerError{Base: NewBase(KindServerError), Code: code, Message: message}
}

// CaptureUnavailable reports that the microphone could not be started.
type CaptureUnavailable struct {
	Base
	Err error
}

func NewCaptureUnavailable(err error) CaptureUnavailable {
	return CaptureUnavailable{Base: NewBase(KindCaptureUnavailable), Err: err}
}

// PlaybackUnavailable reports that agent audio could not be played.
type PlaybackUnavailable struct {
	Base
	Err error
}

func NewPlaybackUnavailable(err error) PlaybackUnavailable {
	return PlaybackUnavailable{Base: NewBase(KindPlaybackUnavailable), Err: err}
}

// ResponseRequestSkipped reports a response request held back by the active
// response or debounce guard.
type ResponseRequestSkipped struct {
	Base
	Reason string
}

func NewResponseRequestSkipped(reason string) ResponseRequestSkipped {
	return ResponseRequestSkipped{Base: NewBase(KindResponseRequestSkip), Reason: reason}
}

// SessionStateResynced reports local turn state corrected from a server
// signal.
type SessionStateResynced struct {
	Base
	Signal   string
	Response string
}

func NewSessionStateResynced(signal, response string) SessionStateResynced {
	return SessionStateResynced{Base: NewBase(KindSessionStateResynced), Signal: signal, Response: response}
}
