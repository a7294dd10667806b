package domain

import "strings"

// FilterVocabulary returns the items whose source term, target term or tag
// contains query, ignoring case. An empty query returns every item.
func FilterVocabulary(items []VocabularyItem, query string) []VocabularyItem {
	if query == "" {
		out := make([]VocabularyItem, len(items))
		copy(out, items)
		return out
	}

	needle := strings.ToLower(query)
	out := make([]VocabularyItem, 0, len(items))
	for _, item := range items {
		if matchesVocabulary(item, needle) {
			out = append(out, item)
		}
	}
	return out
}

func matchesVocabulary(item VocabularyItem, needle string) bool {
	return strings.Contains(strings.ToLower(item.SourceTerm), needle) ||
		strings.Contains(strings.ToLower(item.TargetTerm), needle) ||
		strings.Contains(strings.ToLower(item.Tag), needle)
}

// TagSet is an ordered set of tag names.
type TagSet []string

// NewTagSet de-duplicates tags, dropping blanks and keeping first-seen order.
func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || set.Contains(tag) {
			continue
		}
		set = append(set, tag)
	}
	return set
}

func (s TagSet) Contains(tag string) bool {
	for _, existing := range s {
		if existing == tag {
			return true
		}
	}
	return false
}

// Toggle returns a new set with tag removed if present, appended otherwise.
func (s TagSet) Toggle(tag string) TagSet {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return s.Clone()
	}
	if !s.Contains(tag) {
		return append(s.Clone(), tag)
	}
	out := make(TagSet, 0, len(s))
	for _, existing := range s {
		if existing != tag {
			out = append(out, existing)
		}
	}
	return out
}

func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	copy(out, s)
	return out
}
