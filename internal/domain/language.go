package domain

import "strings"

const DefaultLanguage = "javascript"

// DefaultLanguages lists what the in-browser executors understand.
var DefaultLanguages = []string{"javascript", "python", "java", "cpp", "csharp", "ruby"}

// LanguageSet is the fixed set of languages a room may switch to.
type LanguageSet struct {
	ordered []string
	index   map[string]struct{}
}

func NewLanguageSet(langs ...string) LanguageSet {
	s := LanguageSet{index: make(map[string]struct{}, len(langs))}
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, dup := s.index[l]; dup {
			continue
		}
		s.index[l] = struct{}{}
		s.ordered = append(s.ordered, l)
	}
	return s
}

func (s LanguageSet) Contains(lang string) bool {
	_, ok := s.index[lang]
	return ok
}

// List returns the languages in configuration order.
func (s LanguageSet) List() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s LanguageSet) Len() int { return len(s.ordered) }
