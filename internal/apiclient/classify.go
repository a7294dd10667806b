package apiclient

import (
	"encoding/json"
	"errors"

	"vocabtalk/internal/domain"
)

// ErrUnrecognizedTranslation is returned for translate payloads that match
// neither response shape.
var ErrUnrecognizedTranslation = errors.New("translation response matches neither plain nor catalogued shape")

var (
	tagKeys        = []string{"genre", "tag", "tags"}
	sourceTermKeys = []string{"name_ja", "sourceTerm"}
)

// ClassifyTranslation decides from the keys present whether the backend found
// a catalogued entry or produced a fresh translation. A tag-like key together
// with a source-term key means catalogued; a lone translatedText means plain.
func ClassifyTranslation(payload map[string]json.RawMessage) (domain.TranslationResult, error) {
	if hasAnyKey(payload, tagKeys...) && hasAnyKey(payload, sourceTermKeys...) {
		return domain.TranslationResult{
			Kind:         domain.TranslationCatalogued,
			Title:        firstString(payload, "title", "translatedText"),
			SourceTerm:   firstString(payload, sourceTermKeys...),
			Tags:         domain.NewTagSet(collectStrings(payload, "tags", "genre", "tag")...),
			AudioContent: firstString(payload, "audioContent", "audio_content"),
		}, nil
	}

	if _, ok := payload["translatedText"]; ok {
		return domain.TranslationResult{
			Kind:           domain.TranslationPlain,
			TranslatedText: firstString(payload, "translatedText"),
		}, nil
	}

	return domain.TranslationResult{}, ErrUnrecognizedTranslation
}

func hasAnyKey(payload map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

func firstString(payload map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

// collectStrings gathers values from keys holding either a string or a list of strings.
func collectStrings(payload map[string]json.RawMessage, keys ...string) []string {
	var out []string
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			out = append(out, single)
			continue
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			out = append(out, many...)
		}
	}
	return out
}
