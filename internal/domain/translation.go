package domain

// TranslationKind discriminates TranslationResult.
type TranslationKind string

const (
	// TranslationPlain is a fresh translation produced by the backend.
	TranslationPlain TranslationKind = "plain"
	// TranslationCatalogued is an entry the backend already stores.
	TranslationCatalogued TranslationKind = "catalogued"
)

// TranslationResult is the classified translate response. Plain results set
// TranslatedText; catalogued results set Title, SourceTerm and Tags and may
// carry AudioContent when the backend supplies it.
type TranslationResult struct {
	Kind           TranslationKind `json:"kind"`
	TranslatedText string          `json:"translatedText,omitempty"`
	Title          string          `json:"title,omitempty"`
	SourceTerm     string          `json:"sourceTerm,omitempty"`
	Tags           TagSet          `json:"tags,omitempty"`
	AudioContent   string          `json:"audioContent,omitempty"`
}

// DisplayText is the text shown to the user for either variant.
func (r TranslationResult) DisplayText() string {
	if r.Kind == TranslationCatalogued {
		return r.Title
	}
	return r.TranslatedText
}

// TranslationView is the translation screen state.
type TranslationView struct {
	Input         string             `json:"input"`
	SourceTerm    string             `json:"sourceTerm"`
	Result        *TranslationResult `json:"result,omitempty"`
	AudioContent  string             `json:"audioContent,omitempty"`
	AvailableTags TagSet             `json:"availableTags"`
	SelectedTags  TagSet             `json:"selectedTags"`
	Translating   bool               `json:"translating"`
	Saving        bool               `json:"saving"`
}

// CanSave reports whether the save step is offered for the current result.
func (v TranslationView) CanSave() bool {
	return v.Result != nil && v.Result.Kind == TranslationPlain
}

// VocabularyView is the vocabulary list screen state.
type VocabularyView struct {
	Items  []VocabularyItem `json:"items"`
	Query  string           `json:"query"`
	Total  int              `json:"total"`
	Shown  int              `json:"shown"`
	Loaded bool             `json:"loaded"`
}
