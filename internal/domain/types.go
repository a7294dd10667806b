package domain

// Phase models the push-to-talk capture lifecycle of the conversation view.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhaseProcessing Phase = "processing"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady               SessionStateReason = "ready"
	SessionReasonRecordingStarted    SessionStateReason = "recording_started"
	SessionReasonPermissionDenied    SessionStateReason = "permission_denied"
	SessionReasonCaptureFailed       SessionStateReason = "capture_failed"
	SessionReasonTranscribing        SessionStateReason = "transcribing"
	SessionReasonTranscriptReady     SessionStateReason = "transcript_ready"
	SessionReasonTranscriptionFailed SessionStateReason = "transcription_failed"
	SessionReasonEditingStarted      SessionStateReason = "editing_started"
	SessionReasonEditingCancelled    SessionStateReason = "editing_cancelled"
	SessionReasonMessageSent         SessionStateReason = "message_sent"
	SessionReasonReplyReceived       SessionStateReason = "reply_received"
	SessionReasonReplyFailed         SessionStateReason = "reply_failed"
)

// ErrorCode identifies user-visible failures.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	ErrorCodeAudioCapture     ErrorCode = "audio_capture"
	ErrorCodeTranscription    ErrorCode = "transcription"
	ErrorCodeNetwork          ErrorCode = "network"
	ErrorCodeValidation       ErrorCode = "validation"
	ErrorCodeBusy             ErrorCode = "busy"
	ErrorCodeConflict         ErrorCode = "conflict"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeUnknown          ErrorCode = "unknown"
)

// View names a presentation screen.
type View string

const (
	ViewTranslation  View = "translation"
	ViewVocabulary   View = "vocabulary"
	ViewConversation View = "conversation"
)

// Role attributes a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in the conversation log.
type ConversationTurn struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Translation string `json:"translation,omitempty"`
}

// VocabularyItem is a read-only copy of a stored vocabulary entry.
type VocabularyItem struct {
	ID         string `json:"id"`
	SourceTerm string `json:"sourceTerm"`
	TargetTerm string `json:"targetTerm"`
	Tag        string `json:"tag"`
}

// VocabularyList is a full snapshot of the backend store.
type VocabularyList struct {
	Items      []VocabularyItem `json:"items"`
	TotalCount int              `json:"totalCount"`
}

// Entry is a new vocabulary record to be saved.
type Entry struct {
	Title      string   `json:"title"`
	SourceTerm string   `json:"sourceTerm"`
	Tags       []string `json:"tags"`
}

// AudioClip is a finished recording ready for upload.
type AudioClip struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Status summarizes the conversation view for the UI.
type Status struct {
	State   SessionState `json:"state"`
	Draft   string       `json:"draft"`
	Message string       `json:"message,omitempty"`
}
