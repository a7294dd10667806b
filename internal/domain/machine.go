package domain

// SessionState is the full conversation view state. Editing and Submitting are
// orthogonal to Phase.
type SessionState struct {
	Phase      Phase `json:"phase"`
	Editing    bool  `json:"editing"`
	Submitting bool  `json:"submitting"`
}

// Busy reports whether an operation that blocks new captures or sends is active.
func (s SessionState) Busy() bool {
	return s.Phase != PhaseIdle || s.Submitting
}

// SessionEvent drives Transition.
type SessionEvent string

const (
	EventStartCapture           SessionEvent = "start_capture"
	EventCaptureFailed          SessionEvent = "capture_failed"
	EventStopCapture            SessionEvent = "stop_capture"
	EventTranscriptionSucceeded SessionEvent = "transcription_succeeded"
	EventTranscriptionFailed    SessionEvent = "transcription_failed"
	EventBeginEditing           SessionEvent = "begin_editing"
	EventEndEditing             SessionEvent = "end_editing"
	EventSubmit                 SessionEvent = "submit"
	EventReplyReceived          SessionEvent = "reply_received"
	EventReplyFailed            SessionEvent = "reply_failed"
)

// Transition applies event to state. When the event is not permitted in the
// current state it returns the state unchanged and false.
func Transition(state SessionState, event SessionEvent) (SessionState, bool) {
	next := state

	switch event {
	case EventStartCapture:
		if state.Phase != PhaseIdle || state.Editing || state.Submitting {
			return state, false
		}
		next.Phase = PhaseRecording
	case EventCaptureFailed:
		if state.Phase != PhaseRecording {
			return state, false
		}
		next.Phase = PhaseIdle
	case EventStopCapture:
		if state.Phase != PhaseRecording {
			return state, false
		}
		next.Phase = PhaseProcessing
	case EventTranscriptionSucceeded:
		if state.Phase != PhaseProcessing {
			return state, false
		}
		next.Phase = PhaseIdle
		next.Editing = true
	case EventTranscriptionFailed:
		if state.Phase != PhaseProcessing {
			return state, false
		}
		next.Phase = PhaseIdle
		next.Editing = false
	case EventBeginEditing:
		if state.Phase != PhaseIdle || state.Submitting {
			return state, false
		}
		next.Editing = true
	case EventEndEditing:
		if !state.Editing {
			return state, false
		}
		next.Editing = false
	case EventSubmit:
		if state.Phase != PhaseIdle || state.Submitting {
			return state, false
		}
		next.Submitting = true
		next.Editing = false
	case EventReplyReceived, EventReplyFailed:
		if !state.Submitting {
			return state, false
		}
		next.Submitting = false
	default:
		return state, false
	}

	return next, true
}
