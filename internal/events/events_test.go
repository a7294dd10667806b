package events

import (
	"testing"

	"vocabtalk/internal/domain"
)

func TestReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.SessionStateReason]string{
		domain.SessionReasonReady:               "Ready",
		domain.SessionReasonRecordingStarted:    "Recording...",
		domain.SessionReasonPermissionDenied:    "Microphone access was denied",
		domain.SessionReasonTranscribing:        "Recording stopped. Transcribing...",
		domain.SessionReasonTranscriptReady:     "Transcript ready to edit",
		domain.SessionReasonTranscriptionFailed: "Transcription failed",
		domain.SessionReasonEditingCancelled:    "Draft discarded",
		domain.SessionReasonReplyFailed:         "Reply failed",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := ReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := ReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	if got := ErrorMessage(domain.ErrorCodeTranscription, "ignored"); got != "Transcription error" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := ErrorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := ErrorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestSessionPayload(t *testing.T) {
	t.Parallel()

	payload := SessionPayload(domain.Status{
		State: domain.SessionState{Phase: domain.PhaseIdle, Editing: true},
		Draft: "猫",
	}, domain.SessionReasonTranscriptReady)

	if payload["phase"] != "idle" || payload["editing"] != true || payload["draft"] != "猫" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload["message"] != "Transcript ready to edit" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
}

func TestErrorPayload(t *testing.T) {
	t.Parallel()

	payload := ErrorPayload(domain.ViewTranslation, domain.ErrorCodeNetwork, "translate failed with status 502")
	if payload["view"] != "translation" || payload["code"] != "network" || payload["message"] != "Backend request failed" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
