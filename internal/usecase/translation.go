package usecase

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

// TranslationController drives the translation view: translate a word, hear
// it, tag it and save it to the vocabulary store.
type TranslationController struct {
	backend ports.TranslationBackend
	events  ports.EventSink
	report  reporter

	mu   sync.Mutex
	view domain.TranslationView
}

func NewTranslationController(backend ports.TranslationBackend, events ports.EventSink, opts ...Option) *TranslationController {
	return &TranslationController{
		backend: backend,
		events:  events,
		report:  newReporter(domain.ViewTranslation, events, opts),
	}
}

// View returns a copy of the current view state.
func (c *TranslationController) View() domain.TranslationView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *TranslationController) snapshotLocked() domain.TranslationView {
	view := c.view
	if view.Result != nil {
		result := *view.Result
		result.Tags = result.Tags.Clone()
		view.Result = &result
	}
	view.AvailableTags = c.view.AvailableTags.Clone()
	view.SelectedTags = c.view.SelectedTags.Clone()
	return view
}

// update mutates the view under the lock and publishes the result.
func (c *TranslationController) update(mutate func(view *domain.TranslationView)) domain.TranslationView {
	c.mu.Lock()
	mutate(&c.view)
	view := c.snapshotLocked()
	c.mu.Unlock()

	c.events.TranslationChanged(view)
	return view
}

// LoadTags fetches the tags offered for selection.
func (c *TranslationController) LoadTags(ctx context.Context) (domain.TranslationView, error) {
	tags, err := c.backend.ListTags(ctx)
	if err != nil {
		c.report.fail(backendCode(err), err)
		return c.View(), err
	}
	return c.update(func(view *domain.TranslationView) {
		view.AvailableTags = tags
	}), nil
}

// Translate looks up word. Fresh translations are followed by speech
// synthesis; catalogued entries pre-select their stored tags and skip it.
func (c *TranslationController) Translate(ctx context.Context, word string) (domain.TranslationView, error) {
	word = strings.TrimSpace(word)
	if err := validateForm(TranslateForm{Word: word}); err != nil {
		c.report.fail(domain.ErrorCodeValidation, err)
		return c.View(), err
	}

	c.mu.Lock()
	if c.view.Translating || c.view.Saving {
		view := c.snapshotLocked()
		c.mu.Unlock()
		c.report.fail(domain.ErrorCodeBusy, domain.ErrBusy)
		return view, domain.ErrBusy
	}
	c.view = domain.TranslationView{
		Input:         word,
		SourceTerm:    word,
		AvailableTags: c.view.AvailableTags,
		Translating:   true,
	}
	pending := c.snapshotLocked()
	c.mu.Unlock()
	c.events.TranslationChanged(pending)

	result, err := c.backend.Translate(ctx, word)
	if err != nil {
		view := c.update(func(view *domain.TranslationView) {
			view.Translating = false
		})
		c.report.fail(backendCode(err), err)
		return view, err
	}

	audioContent := result.AudioContent
	var speechErr error
	if result.Kind == domain.TranslationPlain && strings.TrimSpace(result.TranslatedText) != "" {
		audioContent, speechErr = c.backend.SynthesizeSpeech(ctx, result.TranslatedText)
	}

	view := c.update(func(view *domain.TranslationView) {
		view.Result = &result
		view.AudioContent = audioContent
		view.Translating = false
		if result.Kind == domain.TranslationCatalogued {
			if result.SourceTerm != "" {
				view.SourceTerm = result.SourceTerm
			}
			view.SelectedTags = result.Tags.Clone()
		}
	})
	if speechErr != nil {
		c.report.fail(backendCode(speechErr), speechErr)
		return view, speechErr
	}

	c.report.logger.Debug("translated", zap.String("kind", string(result.Kind)))
	return view, nil
}

// ToggleTag selects or deselects a tag for the next save.
func (c *TranslationController) ToggleTag(tag string) domain.TranslationView {
	return c.update(func(view *domain.TranslationView) {
		view.SelectedTags = view.SelectedTags.Toggle(tag)
	})
}

// Save stores the current plain translation with the selected tags and then
// refreshes the tag list. Catalogued results are refused.
func (c *TranslationController) Save(ctx context.Context) (domain.TranslationView, error) {
	c.mu.Lock()
	var err error
	switch {
	case c.view.Translating || c.view.Saving:
		err = domain.ErrBusy
	case c.view.Result == nil:
		err = domain.ErrNothingToSave
	case c.view.Result.Kind == domain.TranslationCatalogued:
		err = domain.ErrAlreadyCatalogued
	}
	var form SaveForm
	if err == nil {
		form = SaveForm{
			Title:      c.view.Result.TranslatedText,
			SourceTerm: c.view.SourceTerm,
			Tags:       c.view.SelectedTags.Clone(),
		}
		err = validateForm(form)
	}
	if err != nil {
		view := c.snapshotLocked()
		c.mu.Unlock()
		c.report.fail(domain.CodeOf(err), err)
		return view, err
	}
	c.view.Saving = true
	view := c.snapshotLocked()
	c.mu.Unlock()
	c.events.TranslationChanged(view)

	err = c.backend.SaveEntry(ctx, domain.Entry{
		Title:      form.Title,
		SourceTerm: form.SourceTerm,
		Tags:       form.Tags,
	})
	if err != nil {
		view := c.update(func(view *domain.TranslationView) {
			view.Saving = false
		})
		c.report.fail(backendCode(err), err)
		return view, err
	}
	c.report.logger.Info("vocabulary entry saved", zap.String("source_term", form.SourceTerm))

	tags, tagErr := c.backend.ListTags(ctx)
	view = c.update(func(view *domain.TranslationView) {
		available := view.AvailableTags
		if tagErr == nil {
			available = tags
		}
		*view = domain.TranslationView{AvailableTags: available}
	})
	if tagErr != nil {
		c.report.fail(backendCode(tagErr), tagErr)
	}
	return view, nil
}
