package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

// VocabularyLister fetches the stored vocabulary snapshot.
type VocabularyLister interface {
	ListVocabulary(ctx context.Context) (domain.VocabularyList, error)
}

// VocabularyController holds a snapshot of the stored vocabulary and filters
// it locally as the search text changes.
type VocabularyController struct {
	store  VocabularyLister
	report reporter

	mu       sync.Mutex
	snapshot domain.VocabularyList
	query    string
	loaded   bool
}

func NewVocabularyController(store VocabularyLister, events ports.EventSink, opts ...Option) *VocabularyController {
	return &VocabularyController{
		store:  store,
		report: newReporter(domain.ViewVocabulary, events, opts),
	}
}

// Load replaces the snapshot with a fresh copy from the backend. The current
// search text is kept.
func (c *VocabularyController) Load(ctx context.Context) (domain.VocabularyView, error) {
	list, err := c.store.ListVocabulary(ctx)
	if err != nil {
		c.report.fail(backendCode(err), err)
		return c.View(), err
	}

	c.mu.Lock()
	c.snapshot = list
	c.loaded = true
	view := c.viewLocked()
	c.mu.Unlock()

	c.report.logger.Debug("vocabulary loaded", zap.Int("items", len(list.Items)))
	return view, nil
}

// EnsureLoaded loads the snapshot unless one is already held.
func (c *VocabularyController) EnsureLoaded(ctx context.Context) (domain.VocabularyView, error) {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return c.View(), nil
	}
	return c.Load(ctx)
}

// Search sets the search text and returns the filtered view.
func (c *VocabularyController) Search(query string) domain.VocabularyView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	return c.viewLocked()
}

func (c *VocabularyController) View() domain.VocabularyView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *VocabularyController) viewLocked() domain.VocabularyView {
	items := domain.FilterVocabulary(c.snapshot.Items, c.query)
	return domain.VocabularyView{
		Items:  items,
		Query:  c.query,
		Total:  c.snapshot.TotalCount,
		Shown:  len(items),
		Loaded: c.loaded,
	}
}
