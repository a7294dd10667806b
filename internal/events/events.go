// Package events names the notifications pushed to the presentation surfaces
// and builds their payloads, so that the desktop and web surfaces emit the
// same shapes.
package events

import (
	"vocabtalk/internal/domain"
)

const (
	Session     = "vocabtalk:session"
	Turn        = "vocabtalk:turn"
	Draft       = "vocabtalk:draft"
	Translation = "vocabtalk:translation"
	Error       = "vocabtalk:error"
	Connected   = "vocabtalk:connected"
)

// SessionPayload describes a conversation state change.
func SessionPayload(status domain.Status, reason domain.SessionStateReason) map[string]any {
	return map[string]any{
		"phase":      string(status.State.Phase),
		"editing":    status.State.Editing,
		"submitting": status.State.Submitting,
		"draft":      status.Draft,
		"reason":     string(reason),
		"message":    ReasonMessage(reason),
	}
}

func DraftPayload(draft string) map[string]string {
	return map[string]string{"draft": draft}
}

// ErrorPayload describes a failed view action.
func ErrorPayload(view domain.View, code domain.ErrorCode, detail string) map[string]string {
	return map[string]string{
		"view":    string(view),
		"code":    string(code),
		"message": ErrorMessage(code, detail),
		"detail":  detail,
	}
}

// ReasonMessage is the status line shown for a state change.
func ReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording..."
	case domain.SessionReasonPermissionDenied:
		return "Microphone access was denied"
	case domain.SessionReasonCaptureFailed:
		return "Could not start recording"
	case domain.SessionReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case domain.SessionReasonTranscriptReady:
		return "Transcript ready to edit"
	case domain.SessionReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.SessionReasonEditingStarted:
		return "Editing"
	case domain.SessionReasonEditingCancelled:
		return "Draft discarded"
	case domain.SessionReasonMessageSent:
		return "Waiting for reply..."
	case domain.SessionReasonReplyReceived:
		return "Reply received"
	case domain.SessionReasonReplyFailed:
		return "Reply failed"
	default:
		return ""
	}
}

// ErrorMessage is the headline shown for a failure; unknown codes fall back
// to the detail.
func ErrorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermissionDenied:
		return "Microphone permission denied"
	case domain.ErrorCodeAudioCapture:
		return "Audio capture failed"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeNetwork:
		return "Backend request failed"
	case domain.ErrorCodeValidation:
		return "Please check the form"
	case domain.ErrorCodeBusy:
		return "Another request is in progress"
	case domain.ErrorCodeConflict:
		return "Action not allowed"
	case domain.ErrorCodeNotFound:
		return "Not found"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
