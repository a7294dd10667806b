package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
	"vocabtalk/internal/usecase"
)

type stubBackend struct {
	mu        sync.Mutex
	listCalls int

	translations map[string]domain.TranslationResult
	chatErr      error
	healthErr    error
	vocabulary   domain.VocabularyList
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		translations: map[string]domain.TranslationResult{
			"猫":     {Kind: domain.TranslationPlain, TranslatedText: "con mèo"},
			"犬":     {Kind: domain.TranslationCatalogued, Title: "con chó", SourceTerm: "犬", Tags: domain.TagSet{"animals"}},
			"こんにちは": {Kind: domain.TranslationPlain, TranslatedText: "Xin chào"},
		},
		vocabulary: domain.VocabularyList{
			Items: []domain.VocabularyItem{
				{ID: "1", SourceTerm: "猫", TargetTerm: "con mèo", Tag: "animals"},
				{ID: "2", SourceTerm: "水", TargetTerm: "nước", Tag: "drinks"},
			},
			TotalCount: 2,
		},
	}
}

func (s *stubBackend) setHealthErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthErr = err
}

func (s *stubBackend) setChatErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatErr = err
}

func (s *stubBackend) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *stubBackend) Health(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.healthErr != nil {
		return "", s.healthErr
	}
	return "healthy", nil
}

func (s *stubBackend) Translate(_ context.Context, word string) (domain.TranslationResult, error) {
	result, ok := s.translations[word]
	if !ok {
		return domain.TranslationResult{}, &domain.NetworkError{Op: "translate", StatusCode: http.StatusInternalServerError}
	}
	return result, nil
}

func (s *stubBackend) SynthesizeSpeech(_ context.Context, text string) (string, error) {
	return "audio:" + text, nil
}

func (s *stubBackend) TranscribeSpeech(context.Context, domain.AudioClip) ([]string, error) {
	return []string{"こんにちは"}, nil
}

func (s *stubBackend) Chat(_ context.Context, message string) (string, error) {
	s.mu.Lock()
	chatErr := s.chatErr
	s.mu.Unlock()
	if chatErr != nil {
		return "", chatErr
	}
	return "reply to " + message, nil
}

func (s *stubBackend) ListVocabulary(context.Context) (domain.VocabularyList, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	return s.vocabulary, nil
}

func (s *stubBackend) ListTags(context.Context) (domain.TagSet, error) {
	return domain.TagSet{"animals", "drinks"}, nil
}

func (s *stubBackend) SaveEntry(context.Context, domain.Entry) error {
	return nil
}

type deniedCapture struct{}

func (deniedCapture) Start(context.Context, ports.AudioConfig) (ports.AudioSession, error) {
	return nil, fmt.Errorf("open microphone: %w", domain.ErrPermissionDenied)
}

// silentCapture opens a device that ends before producing any audio.
type silentCapture struct{}

func (silentCapture) Start(context.Context, ports.AudioConfig) (ports.AudioSession, error) {
	return silentSession{}, nil
}

type silentSession struct{}

func (silentSession) Read([]byte) (int, error) { return 0, io.EOF }
func (silentSession) Close() error { return nil }
func (silentSession) Stop() error { return nil }

type testServer struct {
	backend *stubBackend
	hub     *Hub
	server  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithCapture(t, deniedCapture{})
}

func newTestServerWithCapture(t *testing.T, capture ports.AudioCapture) *testServer {
	t.Helper()

	backend := newStubBackend()
	hub := NewHub(nil, []string{"http://localhost:3003"})
	router := NewRouter(Dependencies{
		Translation:  usecase.NewTranslationController(backend, hub),
		Vocabulary:   usecase.NewVocabularyController(backend, hub),
		Conversation: usecase.NewConversationController(capture, backend, nil, hub, usecase.ConversationConfig{SettleDelay: -1}),
		Health:       backend,
		Events:       hub,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("vocabtalk_backend_calls_total 0\n"))
		}),
		AllowedOrigins: []string{"http://localhost:3003"},
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testServer{backend: backend, hub: hub, server: server}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHealthReportsBackendStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","backend":"healthy"}`, string(raw))

	ts.backend.setHealthErr(errors.New("connection refused"))
	resp, raw = ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(raw), "connection refused")
}

func TestTranslateReturnsViewWithSpeech(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":" 猫 "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var view domain.TranslationView
	require.NoError(t, json.Unmarshal(raw, &view))
	require.NotNil(t, view.Result)
	assert.Equal(t, domain.TranslationPlain, view.Result.Kind)
	assert.Equal(t, "con mèo", view.Result.TranslatedText)
	assert.Equal(t, "audio:con mèo", view.AudioContent)
	assert.Equal(t, "猫", view.SourceTerm)

	resp, raw = ts.do(t, http.MethodGet, "/api/translation", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "con mèo")
}

func TestTranslateBlankWordIsUnprocessable(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":"   "}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeError(t, raw)
	assert.Equal(t, domain.ErrorCodeValidation, body.Code)
	assert.Equal(t, "Please check the form", body.Message)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "word", body.Fields[0].Field)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodeValidation, decodeError(t, raw).Code)
}

func TestSaveFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/save", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(raw))

	resp, _ = ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":"猫"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = ts.do(t, http.MethodPost, "/api/translation/save", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "a tag is required")
	assert.Contains(t, string(raw), "tags")

	resp, raw = ts.do(t, http.MethodPost, "/api/translation/tags/toggle", `{"tag":"animals"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"selectedTags":["animals"]`)

	resp, raw = ts.do(t, http.MethodPost, "/api/translation/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var view domain.TranslationView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Nil(t, view.Result)
	assert.Equal(t, domain.TagSet{"animals", "drinks"}, view.AvailableTags)
}

func TestSaveCataloguedIsConflict(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":"犬"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"selectedTags":["animals"]`)

	resp, raw = ts.do(t, http.MethodPost, "/api/translation/save", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodeConflict, decodeError(t, raw).Code)
}

func TestTranslateBackendFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":"unknown"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeError(t, raw)
	assert.Equal(t, domain.ErrorCodeNetwork, body.Code)
	assert.Equal(t, "translate failed with status 500", body.Detail)
}

func TestReloadTags(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/translation/tags/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"availableTags":["animals","drinks"]`)
}

func TestVocabularyLoadsOnceAndFilters(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodGet, "/api/vocabulary?q=DRINK", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view domain.VocabularyView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.Shown)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "水", view.Items[0].SourceTerm)

	resp, raw = ts.do(t, http.MethodGet, "/api/vocabulary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, 2, view.Shown)
	assert.Equal(t, 1, ts.backend.listCount())

	resp, _ = ts.do(t, http.MethodPost, "/api/vocabulary/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, ts.backend.listCount())
}

func TestConversationSubmitAnnotateAndSpeak(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/conversation/messages", `{"text":"こんにちは"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var submitted struct {
		Reply  domain.ConversationTurn   `json:"reply"`
		Status domain.Status             `json:"status"`
		Turns  []domain.ConversationTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(raw, &submitted))
	assert.Equal(t, "reply to こんにちは", submitted.Reply.Content)
	require.Len(t, submitted.Turns, 2)
	assert.False(t, submitted.Status.State.Submitting)

	userID := submitted.Turns[0].ID
	assistantID := submitted.Turns[1].ID

	resp, raw = ts.do(t, http.MethodPost, "/api/conversation/turns/"+userID+"/annotate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var turn domain.ConversationTurn
	require.NoError(t, json.Unmarshal(raw, &turn))
	assert.Equal(t, "Xin chào", turn.Translation)

	resp, raw = ts.do(t, http.MethodPost, "/api/conversation/turns/"+assistantID+"/annotate", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodeConflict, decodeError(t, raw).Code)

	resp, _ = ts.do(t, http.MethodPost, "/api/conversation/turns/missing/annotate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw = ts.do(t, http.MethodPost, "/api/conversation/turns/"+assistantID+"/speech", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"audioContent":"audio:reply to こんにちは"}`, string(raw))

	resp, raw = ts.do(t, http.MethodGet, "/api/conversation", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "Xin chào")
}

func TestConversationChatFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.setChatErr(&domain.NetworkError{Op: "chat", StatusCode: http.StatusServiceUnavailable})

	resp, raw := ts.do(t, http.MethodPost, "/api/conversation/messages", `{"text":"hello"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodeNetwork, decodeError(t, raw).Code)

	resp, raw = ts.do(t, http.MethodGet, "/api/conversation", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"role":"user"`)
}

func TestConversationEditingAndDraft(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/conversation/editing", `{"editing":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"editing":true`)

	resp, raw = ts.do(t, http.MethodPut, "/api/conversation/draft", `{"text":"猫です"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"draft":"猫です"`)

	resp, raw = ts.do(t, http.MethodPost, "/api/conversation/editing", `{"editing":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"draft":""`)
}

func TestCaptureDeniedIsForbidden(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodPost, "/api/conversation/capture/toggle", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodePermissionDenied, decodeError(t, raw).Code)
}

func TestCaptureWithoutSpeechIsUnprocessable(t *testing.T) {
	ts := newTestServerWithCapture(t, silentCapture{})

	resp, _ := ts.do(t, http.MethodPost, "/api/conversation/capture/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := ts.do(t, http.MethodPost, "/api/conversation/capture/toggle", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, domain.ErrorCodeTranscription, decodeError(t, raw).Code)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.server.URL+"/api/translation/translate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3003")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3003", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "vocabtalk_backend_calls_total")
}
