package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []*fakeAudioSession
	err      error
	starts   int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sessions) == 0 {
		return nil, errors.New("no fake audio session")
	}
	session := f.sessions[0]
	f.sessions = f.sessions[1:]
	return session, nil
}

func (f *fakeAudioCapture) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// gatedAudioCapture holds Start open until release is closed, like a device
// waiting on a permission prompt.
type gatedAudioCapture struct {
	session *fakeAudioSession
	entered chan struct{}
	release chan struct{}
}

func newGatedAudioCapture(session *fakeAudioSession) *gatedAudioCapture {
	return &gatedAudioCapture{session: session, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedAudioCapture) Start(context.Context, ports.AudioConfig) (ports.AudioSession, error) {
	close(g.entered)
	<-g.release
	return g.session, nil
}

// fakeAudioSession yields its chunks and then blocks until stopped, like a
// live microphone.
type fakeAudioSession struct {
	mu       sync.Mutex
	chunks   [][]byte
	readErr  error
	stopped  chan struct{}
	stopOnce sync.Once
}

func newFakeAudioSession(chunks ...[]byte) *fakeAudioSession {
	return &fakeAudioSession{chunks: chunks, stopped: make(chan struct{})}
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.chunks) > 0 {
		n := copy(p, f.chunks[0])
		f.chunks = f.chunks[1:]
		f.mu.Unlock()
		return n, nil
	}
	readErr := f.readErr
	f.mu.Unlock()

	if readErr != nil {
		return 0, readErr
	}
	<-f.stopped
	return 0, io.EOF
}

func (f *fakeAudioSession) Close() error { return f.Stop() }

func (f *fakeAudioSession) Stop() error {
	f.stopOnce.Do(func() { close(f.stopped) })
	return nil
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	translate  func(word string) (domain.TranslationResult, error)
	speech     func(text string) (string, error)
	transcribe func(clip domain.AudioClip) ([]string, error)
	chat       func(message string) (string, error)

	vocabulary domain.VocabularyList
	vocabErr   error
	tags       domain.TagSet
	tagsErr    error
	saveErr    error

	saved []domain.Entry
	clips []domain.AudioClip
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) snapshotCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) countCalls(prefix string) int {
	count := 0
	for _, call := range f.snapshotCalls() {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

func (f *fakeBackend) Translate(_ context.Context, word string) (domain.TranslationResult, error) {
	f.record("translate:" + word)
	if f.translate == nil {
		return domain.TranslationResult{Kind: domain.TranslationPlain, TranslatedText: word}, nil
	}
	return f.translate(word)
}

func (f *fakeBackend) SynthesizeSpeech(_ context.Context, text string) (string, error) {
	f.record("speech:" + text)
	if f.speech == nil {
		return "UklGRg==", nil
	}
	return f.speech(text)
}

func (f *fakeBackend) TranscribeSpeech(_ context.Context, clip domain.AudioClip) ([]string, error) {
	f.record("transcribe")
	f.mu.Lock()
	f.clips = append(f.clips, clip)
	f.mu.Unlock()
	if f.transcribe == nil {
		return []string{"こんにちは"}, nil
	}
	return f.transcribe(clip)
}

func (f *fakeBackend) Chat(_ context.Context, message string) (string, error) {
	f.record("chat:" + message)
	if f.chat == nil {
		return "ok", nil
	}
	return f.chat(message)
}

func (f *fakeBackend) ListVocabulary(_ context.Context) (domain.VocabularyList, error) {
	f.record("vocabulary")
	return f.vocabulary, f.vocabErr
}

func (f *fakeBackend) ListTags(_ context.Context) (domain.TagSet, error) {
	f.record("tags")
	return f.tags.Clone(), f.tagsErr
}

func (f *fakeBackend) SaveEntry(_ context.Context, entry domain.Entry) error {
	f.record("save:" + entry.SourceTerm)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	f.saved = append(f.saved, entry)
	f.mu.Unlock()
	return nil
}

type fakeRules struct {
	transform func(text string) string
	err       error
}

func (f *fakeRules) Apply(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transform == nil {
		return text, nil
	}
	return f.transform(text), nil
}

type stateEvent struct {
	status domain.Status
	reason domain.SessionStateReason
}

type errEvent struct {
	view   domain.View
	code   domain.ErrorCode
	detail string
}

type fakeEventSink struct {
	mu           sync.Mutex
	states       []stateEvent
	turns        []domain.ConversationTurn
	drafts       []string
	translations []domain.TranslationView
	errors       []errEvent
}

func (f *fakeEventSink) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{status: status, reason: reason})
}

func (f *fakeEventSink) TurnChanged(turn domain.ConversationTurn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
}

func (f *fakeEventSink) DraftChanged(draft string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
}

func (f *fakeEventSink) TranslationChanged(view domain.TranslationView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.translations = append(f.translations, view)
}

func (f *fakeEventSink) ViewError(view domain.View, code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{view: view, code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) reasons() []domain.SessionStateReason {
	states := f.snapshotStates()
	out := make([]domain.SessionStateReason, 0, len(states))
	for _, state := range states {
		out = append(out, state.reason)
	}
	return out
}

type fakeObserver struct {
	mu     sync.Mutex
	errors map[string]int
	turns  map[domain.Role]int
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{errors: map[string]int{}, turns: map[domain.Role]int{}}
}

func (f *fakeObserver) ObserveViewError(view domain.View, code domain.ErrorCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[fmt.Sprintf("%s/%s", view, code)]++
}

func (f *fakeObserver) ObserveTurn(role domain.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[role]++
}
