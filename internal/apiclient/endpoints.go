package apiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"vocabtalk/internal/domain"
)

const (
	opHealth     = "health"
	opTranslate  = "translate"
	opSpeech     = "text_to_speech"
	opTranscribe = "speech_to_text"
	opChat       = "chat"
	opVocabulary = "list_vocabulary"
	opTags       = "list_tags"
	opSave       = "save_entry"
	opToken      = "access_token"

	audioFormField = "audio"
)

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	Text string `json:"text"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type speechResponse struct {
	AudioContent string `json:"audioContent"`
}

type transcriptsResponse struct {
	Transcripts []string `json:"transcripts"`
}

type vocabularyItemPayload struct {
	ID     string `json:"id"`
	NameJA string `json:"name_ja"`
	NameVI string `json:"name_vi"`
	Tag    string `json:"tag"`
}

type vocabularyListResponse struct {
	Items      []vocabularyItemPayload `json:"vocabulary_list"`
	TotalCount int                     `json:"total_count"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type createEntryRequest struct {
	Title  string   `json:"title"`
	NameJA string   `json:"name_ja"`
	Genre  string   `json:"genre"`
	Tags   []string `json:"tags"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Health returns the backend's reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp statusResponse
	if err := c.send(ctx, getRequest(opHealth, "/"), &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Translate sends word to the backend and classifies the response.
func (c *Client) Translate(ctx context.Context, word string) (domain.TranslationResult, error) {
	req, err := jsonRequest(opTranslate, "/api/translate", textRequest{Text: word})
	if err != nil {
		return domain.TranslationResult{}, err
	}

	var raw map[string]json.RawMessage
	if err := c.send(ctx, req, &raw); err != nil {
		return domain.TranslationResult{}, err
	}

	result, err := ClassifyTranslation(raw)
	if err != nil {
		return domain.TranslationResult{}, &domain.NetworkError{Op: opTranslate, StatusCode: http.StatusOK, Err: err}
	}
	return result, nil
}

// SynthesizeSpeech returns base64 encoded MP3 audio for text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	req, err := jsonRequest(opSpeech, "/api/text-to-speech", textRequest{Text: text})
	if err != nil {
		return "", err
	}

	var resp speechResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.AudioContent == "" {
		return "", emptyResponse(opSpeech, "no audio content in response")
	}
	if _, err := base64.StdEncoding.DecodeString(resp.AudioContent); err != nil {
		return "", &domain.NetworkError{Op: opSpeech, StatusCode: http.StatusOK, Err: fmt.Errorf("invalid audio content: %w", err)}
	}
	return resp.AudioContent, nil
}

// TranscribeSpeech uploads clip as a multipart file and returns the
// candidate transcripts, best first.
func (c *Client) TranscribeSpeech(ctx context.Context, clip domain.AudioClip) ([]string, error) {
	body, contentType, err := multipartAudio(clip)
	if err != nil {
		return nil, &domain.NetworkError{Op: opTranscribe, Err: err}
	}

	req := request{
		op:            opTranscribe,
		method:        http.MethodPost,
		path:          "/api/speech-to-text",
		body:          body,
		contentType:   contentType,
		authenticated: true,
	}

	var resp transcriptsResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Transcripts) == 0 {
		return nil, emptyResponse(opTranscribe, "no transcription available")
	}
	return resp.Transcripts, nil
}

// Chat returns the assistant's reply to message.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	req, err := jsonRequest(opChat, "/api/gemini", textRequest{Text: message})
	if err != nil {
		return "", err
	}

	var resp textResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ListVocabulary returns the full stored vocabulary.
func (c *Client) ListVocabulary(ctx context.Context) (domain.VocabularyList, error) {
	var resp vocabularyListResponse
	if err := c.send(ctx, getRequest(opVocabulary, "/api/vocabulary-list"), &resp); err != nil {
		return domain.VocabularyList{}, err
	}

	items := make([]domain.VocabularyItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, domain.VocabularyItem{
			ID:         item.ID,
			SourceTerm: item.NameJA,
			TargetTerm: item.NameVI,
			Tag:        item.Tag,
		})
	}

	total := resp.TotalCount
	if total == 0 {
		total = len(items)
	}
	return domain.VocabularyList{Items: items, TotalCount: total}, nil
}

// ListTags returns every tag known to the backend.
func (c *Client) ListTags(ctx context.Context) (domain.TagSet, error) {
	var resp tagsResponse
	if err := c.send(ctx, getRequest(opTags, "/api/tags"), &resp); err != nil {
		return nil, err
	}
	return domain.NewTagSet(resp.Tags...), nil
}

// SaveEntry stores a new vocabulary entry. Repeated calls may create duplicates.
func (c *Client) SaveEntry(ctx context.Context, entry domain.Entry) error {
	tags := domain.NewTagSet(entry.Tags...)
	genre := ""
	if len(tags) > 0 {
		genre = tags[0]
	}

	req, err := jsonRequest(opSave, "/api/create-notion", createEntryRequest{
		Title:  entry.Title,
		NameJA: entry.SourceTerm,
		Genre:  genre,
		Tags:   tags,
	})
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// AccessToken fetches a bearer token. It never sends one itself.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	req := getRequest(opToken, "/api/get-access-token")
	req.authenticated = false

	var resp tokenResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", emptyResponse(opToken, "empty access token")
	}
	return token, nil
}

func multipartAudio(clip domain.AudioClip) ([]byte, string, error) {
	filename := clip.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	contentType := clip.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, audioFormField, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
