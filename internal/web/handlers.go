package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vocabtalk/internal/domain"
)

type handlers struct {
	deps   Dependencies
	logger *zap.Logger
}

type wordRequest struct {
	Word string `json:"word"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type textRequest struct {
	Text string `json:"text"`
}

type editingRequest struct {
	Editing bool `json:"editing"`
}

// conversationView is the full conversation screen.
type conversationView struct {
	Status domain.Status             `json:"status"`
	Turns  []domain.ConversationTurn `json:"turns"`
}

type submitResponse struct {
	Reply domain.ConversationTurn `json:"reply"`
	conversationView
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	backend, err := h.deps.Health.Health(r.Context())
	if err != nil {
		h.logger.Warn("backend health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"backend": "unreachable",
			"detail":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": backend})
}

func (h *handlers) translationView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Translation.View())
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.deps.Translation.Translate(r.Context(), req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) toggleTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Translation.ToggleTag(req.Tag))
}

func (h *handlers) reloadTags(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Translation.LoadTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) save(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Translation.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) vocabulary(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Vocabulary.EnsureLoaded(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Vocabulary.Search(r.URL.Query().Get("q")))
}

func (h *handlers) reloadVocabulary(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Vocabulary.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) conversationSnapshot() conversationView {
	return conversationView{
		Status: h.deps.Conversation.Status(),
		Turns:  h.deps.Conversation.Turns(),
	}
}

func (h *handlers) conversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.conversationSnapshot())
}

func (h *handlers) toggleCapture(w http.ResponseWriter, r *http.Request) {
	status, err := h.deps.Conversation.ToggleCapture(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handlers) setEditing(w http.ResponseWriter, r *http.Request) {
	var req editingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Conversation.SetEditing(req.Editing))
}

func (h *handlers) updateDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Conversation.UpdateDraft(req.Text))
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	reply, err := h.deps.Conversation.Submit(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Reply: reply, conversationView: h.conversationSnapshot()})
}

func (h *handlers) annotate(w http.ResponseWriter, r *http.Request) {
	turn, err := h.deps.Conversation.AnnotateTurn(r.Context(), chi.URLParam(r, "turnID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *handlers) speak(w http.ResponseWriter, r *http.Request) {
	audioContent, err := h.deps.Conversation.SpeakTurn(r.Context(), chi.URLParam(r, "turnID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audioContent": audioContent})
}
