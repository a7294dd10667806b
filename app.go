package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"vocabtalk/internal/bootstrap"
	"vocabtalk/internal/config"
	"vocabtalk/internal/domain"
	"vocabtalk/internal/events"
	"vocabtalk/internal/usecase"
)

// App is the Wails application root.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	services     bootstrap.Services
	translation  *usecase.TranslationController
	vocabulary   *usecase.VocabularyController
	conversation *usecase.ConversationController
	cfg          config.Config
	bootErr      error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.ViewError(domain.ViewConversation, domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.cfg = services.Config
	a.translation = services.Translation
	a.vocabulary = services.Vocabulary
	a.conversation = services.Conversation

	watchCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if err := services.WatchRules(watchCtx); err != nil {
		services.Logger.Warn("transcript rules will not be reloaded", zap.Error(err))
	}

	// Tags are optional for the first render; failures surface as view errors.
	go func() { _, _ = a.translation.LoadTags(ctx) }()

	a.SessionStateChanged(a.conversation.Status(), domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.bootErr == nil && a.conversation != nil {
		a.services.Close()
	}
}

// GetStatus returns the conversation view state.
func (a *App) GetStatus() domain.Status {
	if a.conversation == nil {
		status := domain.Status{State: domain.SessionState{Phase: domain.PhaseIdle}}
		if a.bootErr != nil {
			status.Message = a.bootErr.Error()
		}
		return status
	}
	return a.conversation.Status()
}

// GetTurns returns the conversation log.
func (a *App) GetTurns() ([]domain.ConversationTurn, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.conversation.Turns(), nil
}

// ToggleCapture starts or stops push-to-talk recording.
func (a *App) ToggleCapture() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.conversation.ToggleCapture(a.ctx)
}

func (a *App) StartCapture() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.conversation.StartCapture(a.ctx)
}

func (a *App) StopCapture() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.conversation.StopCapture(a.ctx)
}

// SetEditing toggles the text editor. Leaving it discards the draft.
func (a *App) SetEditing(editing bool) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.conversation.SetEditing(editing), nil
}

func (a *App) UpdateDraft(text string) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	return a.conversation.UpdateDraft(text), nil
}

// SendMessage submits a message and returns the assistant reply.
func (a *App) SendMessage(text string) (domain.ConversationTurn, error) {
	if err := a.requireReady(); err != nil {
		return domain.ConversationTurn{}, err
	}
	return a.conversation.Submit(a.ctx, text)
}

func (a *App) AnnotateTurn(id string) (domain.ConversationTurn, error) {
	if err := a.requireReady(); err != nil {
		return domain.ConversationTurn{}, err
	}
	return a.conversation.AnnotateTurn(a.ctx, id)
}

// SpeakTurn returns base64 audio for a turn.
func (a *App) SpeakTurn(id string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.conversation.SpeakTurn(a.ctx, id)
}

func (a *App) GetTranslation() (domain.TranslationView, error) {
	if err := a.requireReady(); err != nil {
		return domain.TranslationView{}, err
	}
	return a.translation.View(), nil
}

func (a *App) Translate(word string) (domain.TranslationView, error) {
	if err := a.requireReady(); err != nil {
		return domain.TranslationView{}, err
	}
	return a.translation.Translate(a.ctx, word)
}

func (a *App) ToggleTag(tag string) (domain.TranslationView, error) {
	if err := a.requireReady(); err != nil {
		return domain.TranslationView{}, err
	}
	return a.translation.ToggleTag(tag), nil
}

func (a *App) ReloadTags() (domain.TranslationView, error) {
	if err := a.requireReady(); err != nil {
		return domain.TranslationView{}, err
	}
	return a.translation.LoadTags(a.ctx)
}

// SaveTranslation stores the current translation with the selected tags.
func (a *App) SaveTranslation() (domain.TranslationView, error) {
	if err := a.requireReady(); err != nil {
		return domain.TranslationView{}, err
	}
	return a.translation.Save(a.ctx)
}

// SearchVocabulary filters the stored vocabulary, loading it on first use.
func (a *App) SearchVocabulary(query string) (domain.VocabularyView, error) {
	if err := a.requireReady(); err != nil {
		return domain.VocabularyView{}, err
	}
	if _, err := a.vocabulary.EnsureLoaded(a.ctx); err != nil {
		return domain.VocabularyView{}, err
	}
	return a.vocabulary.Search(query), nil
}

func (a *App) ReloadVocabulary() (domain.VocabularyView, error) {
	if err := a.requireReady(); err != nil {
		return domain.VocabularyView{}, err
	}
	return a.vocabulary.Load(a.ctx)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"backend":          a.cfg.Backend.BaseURL,
		"auth":             strconv.FormatBool(a.cfg.Backend.AuthEnabled),
		"rulesFile":        a.cfg.Rules.Path,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"configFile":       a.cfg.File,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.conversation == nil || a.translation == nil || a.vocabulary == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) emit(name string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

// SessionStateChanged emits conversation state updates to the frontend.
func (a *App) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	a.emit(events.Session, events.SessionPayload(status, reason))
}

func (a *App) TurnChanged(turn domain.ConversationTurn) {
	a.emit(events.Turn, turn)
}

func (a *App) DraftChanged(draft string) {
	a.emit(events.Draft, events.DraftPayload(draft))
}

func (a *App) TranslationChanged(view domain.TranslationView) {
	a.emit(events.Translation, view)
}

// ViewError emits a failed action to the UI.
func (a *App) ViewError(view domain.View, code domain.ErrorCode, detail string) {
	a.emit(events.Error, events.ErrorPayload(view, code, detail))
}
