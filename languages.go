package packlate

import (
	"fmt"
	"strings"
)

// Language is a pack language code as it appears in the pack file.
type Language string

const (
	SourceLanguage Language = "enGB"

	Russian Language = "ruRU"
	German  Language = "deDE"
	French  Language = "frFR"
	Chinese Language = "zhCN"
	Spanish Language = "esES"
)

// Languages lists the target languages in pack field order.
var Languages = []Language{Russian, German, French, Chinese, Spanish}

// LanguageNames maps pack language codes to names used in prompts.
var LanguageNames = map[Language]string{
	SourceLanguage: "English",
	Russian:        "russian",
	German:         "german",
	French:         "french",
	Chinese:        "chinese",
	Spanish:        "spanish",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(lang Language) string {
	if name, ok := LanguageNames[lang]; ok {
		return name
	}
	return string(lang)
}

// IsTargetLanguage reports whether lang is one of the five target languages.
func IsTargetLanguage(lang Language) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Get returns the value for a target language.
func (t Translation) Get(lang Language) *string {
	switch lang {
	case Russian:
		return t.RuRU
	case German:
		return t.DeDE
	case French:
		return t.FrFR
	case Chinese:
		return t.ZhCN
	case Spanish:
		return t.EsES
	}
	return nil
}

// Set stores the value for a target language. Unknown languages are ignored.
func (t *Translation) Set(lang Language, value *string) {
	switch lang {
	case Russian:
		t.RuRU = value
	case German:
		t.DeDE = value
	case French:
		t.FrFR = value
	case Chinese:
		t.ZhCN = value
	case Spanish:
		t.EsES = value
	}
}

// Target returns the entry's value for a target language.
func (s LocalizedString) Target(lang Language) *string {
	return s.targets().Get(lang)
}

// Source returns the enGB text, or "" when absent.
func (s LocalizedString) Source() string {
	if s.EnGB == nil {
		return ""
	}
	return *s.EnGB
}

// IsPopulated reports whether the target field for lang holds a non-empty value.
func (s LocalizedString) IsPopulated(lang Language) bool {
	return populated(s.Target(lang))
}

// FullyTranslated reports whether all five target fields are populated.
func (s LocalizedString) FullyTranslated() bool {
	for _, lang := range Languages {
		if !s.IsPopulated(lang) {
			return false
		}
	}
	return true
}

// Merge returns a copy of s with every unpopulated target field filled from tr.
// Populated fields are never overwritten.
func (s LocalizedString) Merge(tr Translation) LocalizedString {
	merged := s
	targets := s.targets()
	for _, lang := range Languages {
		if populated(targets.Get(lang)) {
			continue
		}
		if v := tr.Get(lang); v != nil {
			targets.Set(lang, v)
		}
	}
	merged.RuRU, merged.DeDE, merged.FrFR, merged.ZhCN, merged.EsES =
		targets.RuRU, targets.DeDE, targets.FrFR, targets.ZhCN, targets.EsES
	return merged
}

func (s LocalizedString) targets() Translation {
	return Translation{RuRU: s.RuRU, DeDE: s.DeDE, FrFR: s.FrFR, ZhCN: s.ZhCN, EsES: s.EsES}
}

func populated(v *string) bool {
	return v != nil && *v != ""
}

// TranslationTemplate is the exact object shape a backend reply must contain.
func TranslationTemplate() string {
	parts := make([]string, len(Languages))
	for i, lang := range Languages {
		parts[i] = fmt.Sprintf("%q: null", string(lang))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// SystemPrompt builds the fixed instruction sent when a session is opened.
// context optionally narrows the subject matter of the strings.
func SystemPrompt(context string) string {
	names := make([]string, len(Languages))
	for i, lang := range Languages {
		names[i] = fmt.Sprintf("%s (%s)", GetLanguageName(lang), lang)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a translator. Translate the user input from %s to %s ",
		GetLanguageName(SourceLanguage), strings.Join(names[:len(names)-1], ", "))
	fmt.Fprintf(&b, "and %s. ", names[len(names)-1])
	b.WriteString("Return a json object where the language code is the key and the translation is the value. ")
	b.WriteString("Do not return anything other than the json object.")
	if context != "" {
		fmt.Fprintf(&b, " The strings come from %s; translate them in that context.", context)
	}
	b.WriteString(" The object must follow this format with the null values replaced by the corresponding translation:\n")
	b.WriteString(TranslationTemplate())
	return b.String()
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
