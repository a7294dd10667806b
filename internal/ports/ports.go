package ports

import (
	"context"
	"io"

	"vocabtalk/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session producing signed 16-bit little-endian PCM.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. Start returns an error
// wrapping domain.ErrPermissionDenied when the device refuses access.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Translator turns a source word into a classified translation result.
type Translator interface {
	Translate(ctx context.Context, word string) (domain.TranslationResult, error)
}

// SpeechSynthesizer returns base64 encoded audio for text.
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) (string, error)
}

// SpeechRecognizer returns candidate transcripts, best first.
type SpeechRecognizer interface {
	TranscribeSpeech(ctx context.Context, clip domain.AudioClip) ([]string, error)
}

// ChatResponder produces one assistant reply per message.
type ChatResponder interface {
	Chat(ctx context.Context, message string) (string, error)
}

// VocabularyStore is the backend-owned vocabulary collection.
type VocabularyStore interface {
	ListVocabulary(ctx context.Context) (domain.VocabularyList, error)
	ListTags(ctx context.Context) (domain.TagSet, error)
	SaveEntry(ctx context.Context, entry domain.Entry) error
}

// TranslationBackend is everything the translation view calls.
type TranslationBackend interface {
	Translator
	SpeechSynthesizer
	VocabularyStore
}

// ConversationBackend is everything the conversation view calls.
type ConversationBackend interface {
	Translator
	SpeechSynthesizer
	SpeechRecognizer
	ChatResponder
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// EventSink emits view state and notifications to the presentation surface.
type EventSink interface {
	SessionStateChanged(status domain.Status, reason domain.SessionStateReason)
	// TurnChanged fires when a turn is appended and again when it gains a
	// translation. Surfaces upsert by turn ID.
	TurnChanged(turn domain.ConversationTurn)
	DraftChanged(draft string)
	TranslationChanged(view domain.TranslationView)
	ViewError(view domain.View, code domain.ErrorCode, detail string)
}
