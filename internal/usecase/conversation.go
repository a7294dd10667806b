package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocabtalk/internal/audio"
	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

const (
	defaultChunkSize     = 4096
	defaultSettleDelay   = 1500 * time.Millisecond
	defaultMaxAudioBytes = 10 << 20
	defaultSampleRate    = 48000
	defaultChannels      = 1
)

// ConversationConfig controls push-to-talk capture.
type ConversationConfig struct {
	Audio     ports.AudioConfig
	ChunkSize int
	// SettleDelay is how long the transcript is shown before editing starts.
	// Negative disables the pause.
	SettleDelay   time.Duration
	MaxAudioBytes int
}

func (c ConversationConfig) withDefaults() ConversationConfig {
	if c.ChunkSize < 256 {
		c.ChunkSize = defaultChunkSize
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.MaxAudioBytes <= 0 {
		c.MaxAudioBytes = defaultMaxAudioBytes
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = defaultChannels
	}
	return c
}

// ConversationController drives the conversational practice view: capture,
// transcription, draft editing and chat turns.
type ConversationController struct {
	audio   ports.AudioCapture
	backend ports.ConversationBackend
	rules   ports.RulesEngine
	events  ports.EventSink
	cfg     ConversationConfig
	report  reporter
	newID   func() string

	mu        sync.Mutex
	state     domain.SessionState
	draft     string
	message   string
	turns     []domain.ConversationTurn
	recording *activeRecording
}

func NewConversationController(
	audioCapture ports.AudioCapture,
	backend ports.ConversationBackend,
	rules ports.RulesEngine,
	events ports.EventSink,
	cfg ConversationConfig,
	opts ...Option,
) *ConversationController {
	return &ConversationController{
		audio:   audioCapture,
		backend: backend,
		rules:   rules,
		events:  events,
		cfg:     cfg.withDefaults(),
		report:  newReporter(domain.ViewConversation, events, opts),
		newID:   uuid.NewString,
		state:   domain.SessionState{Phase: domain.PhaseIdle},
	}
}

// Status returns the current view state.
func (c *ConversationController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *ConversationController) statusLocked() domain.Status {
	return domain.Status{State: c.state, Draft: c.draft, Message: c.message}
}

// Turns returns a copy of the conversation log.
func (c *ConversationController) Turns() []domain.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// StartCapture begins recording. It is a no-op unless the view is idle, not
// editing and not waiting for a reply.
func (c *ConversationController) StartCapture(ctx context.Context) (domain.Status, error) {
	c.mu.Lock()
	next, ok := domain.Transition(c.state, domain.EventStartCapture)
	if !ok {
		status := c.statusLocked()
		c.mu.Unlock()
		return status, nil
	}
	// The recording outlives the request that started it.
	recCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rec := &activeRecording{
		cancel: cancel,
		pcm:    newPCMBuffer(c.cfg.MaxAudioBytes - audio.WAVHeaderSize),
		done:   make(chan error, 1),
		ready:  make(chan struct{}),
	}
	c.state = next
	c.message = ""
	c.recording = rec
	c.mu.Unlock()
	defer close(rec.ready)

	session, err := c.audio.Start(recCtx, c.cfg.Audio)

	c.mu.Lock()
	if c.recording != rec {
		// Closed while the device was opening.
		status := c.statusLocked()
		c.mu.Unlock()
		if err == nil {
			_ = session.Stop()
		}
		cancel()
		if err == nil {
			err = ErrCaptureCancelled
		}
		return status, err
	}
	if err != nil {
		c.recording = nil
		c.state, _ = domain.Transition(c.state, domain.EventCaptureFailed)
		c.message = err.Error()
		status := c.statusLocked()
		c.mu.Unlock()
		cancel()

		code, reason := domain.ErrorCodeAudioCapture, domain.SessionReasonCaptureFailed
		if errors.Is(err, domain.ErrPermissionDenied) {
			code, reason = domain.ErrorCodePermissionDenied, domain.SessionReasonPermissionDenied
		}
		c.report.fail(code, err)
		c.events.SessionStateChanged(status, reason)
		return status, err
	}
	rec.audio = session
	rec.live = true
	go pumpAudioChunks(rec.audio, rec.pcm, c.cfg.ChunkSize, rec.done)
	status := c.statusLocked()
	c.mu.Unlock()

	c.report.logger.Debug("recording started")
	c.events.SessionStateChanged(status, domain.SessionReasonRecordingStarted)
	return status, nil
}

// StopCapture ends the recording, transcribes it and places the cleaned-up
// transcript in the draft. On success the view ends idle and editing. A stop
// that arrives while the device is still opening waits for it.
func (c *ConversationController) StopCapture(ctx context.Context) (domain.Status, error) {
	c.mu.Lock()
	pending := c.recording
	c.mu.Unlock()
	if pending != nil {
		select {
		case <-pending.ready:
		case <-ctx.Done():
			return c.Status(), ctx.Err()
		}
	}

	c.mu.Lock()
	rec := c.recording
	next, ok := domain.Transition(c.state, domain.EventStopCapture)
	if rec == nil || !rec.live || !ok {
		status := c.statusLocked()
		c.mu.Unlock()
		return status, nil
	}
	c.state = next
	c.recording = nil
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, domain.SessionReasonTranscribing)

	transcript, err := c.finishRecording(ctx, rec)
	if err != nil {
		c.mu.Lock()
		c.state, _ = domain.Transition(c.state, domain.EventTranscriptionFailed)
		c.message = err.Error()
		status := c.statusLocked()
		c.mu.Unlock()

		c.report.fail(domain.ErrorCodeTranscription, err)
		c.events.SessionStateChanged(status, domain.SessionReasonTranscriptionFailed)
		return status, err
	}

	c.mu.Lock()
	c.draft = transcript
	c.mu.Unlock()
	c.events.DraftChanged(transcript)

	c.settle(ctx)

	c.mu.Lock()
	c.state, _ = domain.Transition(c.state, domain.EventTranscriptionSucceeded)
	status = c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, domain.SessionReasonTranscriptReady)
	return status, nil
}

func (c *ConversationController) finishRecording(ctx context.Context, rec *activeRecording) (string, error) {
	if err := rec.audio.Stop(); err != nil {
		c.report.logger.Warn("failed to stop audio capture cleanly", zap.Error(err))
	}
	pumpErr := <-rec.done
	rec.cancel()

	if pumpErr != nil {
		return "", pumpErr
	}
	pcm, overflow := rec.pcm.Snapshot()
	if overflow {
		return "", fmt.Errorf("%w of %d bytes", ErrRecordingTooLarge, c.cfg.MaxAudioBytes)
	}
	if len(pcm) == 0 {
		return "", ErrEmptyRecording
	}

	wav, err := audio.EncodeWAV(pcm, c.cfg.Audio.SampleRate, c.cfg.Audio.Channels)
	if err != nil {
		return "", err
	}
	transcripts, err := c.backend.TranscribeSpeech(ctx, domain.AudioClip{
		Data:        wav,
		Filename:    "audio.wav",
		ContentType: "audio/wav",
	})
	if err != nil {
		return "", err
	}
	if len(transcripts) == 0 {
		return "", fmt.Errorf("%w: no transcript returned", domain.ErrNoSpeech)
	}

	transcript := strings.TrimSpace(transcripts[0])
	if c.rules == nil {
		return transcript, nil
	}
	cleaned, err := c.rules.Apply(transcript)
	if err != nil {
		c.report.logger.Warn("transcript rules failed, using raw transcript", zap.Error(err))
		return transcript, nil
	}
	return strings.TrimSpace(cleaned), nil
}

func (c *ConversationController) settle(ctx context.Context) {
	if c.cfg.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ToggleCapture starts capture when idle and stops it when recording. While
// a transcript is processing it does nothing.
func (c *ConversationController) ToggleCapture(ctx context.Context) (domain.Status, error) {
	switch c.Status().State.Phase {
	case domain.PhaseIdle:
		return c.StartCapture(ctx)
	case domain.PhaseRecording:
		return c.StopCapture(ctx)
	default:
		return c.Status(), nil
	}
}

// SetEditing switches between the text editor and the capture affordance.
// Leaving the editor discards the draft; the log is untouched.
func (c *ConversationController) SetEditing(editing bool) domain.Status {
	event, reason := domain.EventBeginEditing, domain.SessionReasonEditingStarted
	if !editing {
		event, reason = domain.EventEndEditing, domain.SessionReasonEditingCancelled
	}

	c.mu.Lock()
	next, ok := domain.Transition(c.state, event)
	if !ok {
		status := c.statusLocked()
		c.mu.Unlock()
		return status
	}
	c.state = next
	cleared := !editing && c.draft != ""
	if !editing {
		c.draft = ""
	}
	status := c.statusLocked()
	c.mu.Unlock()

	if cleared {
		c.events.DraftChanged("")
	}
	c.events.SessionStateChanged(status, reason)
	return status
}

func (c *ConversationController) UpdateDraft(text string) domain.Status {
	c.mu.Lock()
	c.draft = text
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.DraftChanged(text)
	return status
}

// Submit sends one user message and returns the assistant reply. The user
// turn is kept even when the reply fails.
func (c *ConversationController) Submit(ctx context.Context, text string) (domain.ConversationTurn, error) {
	text = strings.TrimSpace(text)
	if err := validateForm(MessageForm{Text: text}); err != nil {
		c.report.fail(domain.ErrorCodeValidation, err)
		return domain.ConversationTurn{}, err
	}

	c.mu.Lock()
	next, ok := domain.Transition(c.state, domain.EventSubmit)
	if !ok {
		c.mu.Unlock()
		c.report.fail(domain.ErrorCodeBusy, domain.ErrBusy)
		return domain.ConversationTurn{}, domain.ErrBusy
	}
	c.state = next
	c.message = ""
	c.draft = ""
	userTurn := domain.ConversationTurn{ID: c.newID(), Role: domain.RoleUser, Content: text}
	c.turns = append(c.turns, userTurn)
	status := c.statusLocked()
	c.mu.Unlock()

	c.appended(userTurn)
	c.events.DraftChanged("")
	c.events.SessionStateChanged(status, domain.SessionReasonMessageSent)

	reply, err := c.backend.Chat(ctx, text)
	if err != nil {
		c.mu.Lock()
		c.state, _ = domain.Transition(c.state, domain.EventReplyFailed)
		c.message = err.Error()
		status := c.statusLocked()
		c.mu.Unlock()

		c.report.fail(backendCode(err), err)
		c.events.SessionStateChanged(status, domain.SessionReasonReplyFailed)
		return domain.ConversationTurn{}, err
	}

	c.mu.Lock()
	assistantTurn := domain.ConversationTurn{ID: c.newID(), Role: domain.RoleAssistant, Content: reply}
	c.turns = append(c.turns, assistantTurn)
	c.state, _ = domain.Transition(c.state, domain.EventReplyReceived)
	status = c.statusLocked()
	c.mu.Unlock()

	c.appended(assistantTurn)
	c.events.SessionStateChanged(status, domain.SessionReasonReplyReceived)
	return assistantTurn, nil
}

func (c *ConversationController) appended(turn domain.ConversationTurn) {
	if c.report.observer != nil {
		c.report.observer.ObserveTurn(turn.Role)
	}
	c.events.TurnChanged(turn)
}

// AnnotateTurn translates a user turn and stores the result on it.
func (c *ConversationController) AnnotateTurn(ctx context.Context, id string) (domain.ConversationTurn, error) {
	turn, err := c.lookupTurn(id)
	if err == nil && turn.Role != domain.RoleUser {
		err = domain.ErrAnnotationNotAllowed
	}
	if err != nil {
		c.report.fail(domain.CodeOf(err), err)
		return domain.ConversationTurn{}, err
	}

	result, err := c.backend.Translate(ctx, turn.Content)
	if err != nil {
		c.report.fail(backendCode(err), err)
		return domain.ConversationTurn{}, err
	}

	c.mu.Lock()
	for i := range c.turns {
		if c.turns[i].ID == id {
			c.turns[i].Translation = result.DisplayText()
			turn = c.turns[i]
			break
		}
	}
	c.mu.Unlock()

	c.events.TurnChanged(turn)
	return turn, nil
}

// SpeakTurn synthesizes speech for a turn and returns base64 audio.
func (c *ConversationController) SpeakTurn(ctx context.Context, id string) (string, error) {
	turn, err := c.lookupTurn(id)
	if err != nil {
		c.report.fail(domain.CodeOf(err), err)
		return "", err
	}

	audioContent, err := c.backend.SynthesizeSpeech(ctx, turn.Content)
	if err != nil {
		c.report.fail(backendCode(err), err)
		return "", err
	}
	return audioContent, nil
}

func (c *ConversationController) lookupTurn(id string) (domain.ConversationTurn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, turn := range c.turns {
		if turn.ID == id {
			return turn, nil
		}
	}
	return domain.ConversationTurn{}, fmt.Errorf("%w: %s", domain.ErrTurnNotFound, id)
}

// Close stops an in-flight recording without transcribing it. A recording
// whose device is still opening is stopped as soon as the open returns.
func (c *ConversationController) Close() {
	c.mu.Lock()
	rec := c.recording
	c.recording = nil
	if rec != nil {
		c.state, _ = domain.Transition(c.state, domain.EventCaptureFailed)
	}
	live := rec != nil && rec.live
	c.mu.Unlock()

	if rec == nil {
		return
	}
	if !live {
		<-rec.ready
		return
	}
	_ = rec.audio.Stop()
	<-rec.done
	rec.cancel()
}
