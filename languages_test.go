package packlate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     Language
		expected string
	}{
		{SourceLanguage, "English"},
		{Russian, "russian"},
		{Chinese, "chinese"},
		{"itIT", "itIT"}, // fallback
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetLanguageName(tt.code))
		})
	}
}

func TestIsTargetLanguage(t *testing.T) {
	for _, lang := range Languages {
		assert.True(t, IsTargetLanguage(lang), "IsTargetLanguage(%q)", lang)
	}
	for _, lang := range []Language{SourceLanguage, "itIT", ""} {
		assert.False(t, IsTargetLanguage(lang), "IsTargetLanguage(%q)", lang)
	}
}

func TestTranslation_GetSet(t *testing.T) {
	var tr Translation
	for _, lang := range Languages {
		tr.Set(lang, Ptr(string(lang)))
	}
	tr.Set(SourceLanguage, Ptr("ignored"))

	for _, lang := range Languages {
		v := tr.Get(lang)
		require.NotNil(t, v, "Get(%q)", lang)
		assert.Equal(t, string(lang), *v)
	}
	assert.Nil(t, tr.Get(SourceLanguage))
}

func TestLocalizedString_FullyTranslated(t *testing.T) {
	s := LocalizedString{EnGB: Ptr("Hi"), RuRU: Ptr("a"), DeDE: Ptr("b"), FrFR: Ptr("c"), ZhCN: Ptr("d")}
	assert.False(t, s.FullyTranslated(), "entry with nil esES should not be fully translated")

	s.EsES = Ptr("")
	assert.False(t, s.FullyTranslated(), "entry with empty esES should not be fully translated")

	s.EsES = Ptr("e")
	assert.True(t, s.FullyTranslated())
}

func TestLocalizedString_Merge(t *testing.T) {
	s := LocalizedString{Key: "k", EnGB: Ptr("Hello"), DeDE: Ptr("Servus"), FrFR: Ptr("")}
	tr := Translation{RuRU: Ptr("Привет"), DeDE: Ptr("Hallo"), FrFR: Ptr("Bonjour")}

	merged := s.Merge(tr)

	require.NotNil(t, merged.RuRU)
	assert.Equal(t, "Привет", *merged.RuRU)
	assert.Equal(t, "Servus", *merged.DeDE, "populated deDE was overwritten")
	assert.Equal(t, "Bonjour", *merged.FrFR, "empty frFR should be filled")
	assert.Nil(t, merged.ZhCN)
	assert.Nil(t, merged.EsES)
	assert.Nil(t, s.RuRU, "Merge must not mutate the receiver")
}

func TestTranslationTemplate(t *testing.T) {
	var shape map[string]*string
	require.NoError(t, json.Unmarshal([]byte(TranslationTemplate()), &shape))
	assert.Len(t, shape, len(Languages))
	for _, lang := range Languages {
		v, ok := shape[string(lang)]
		assert.True(t, ok, "template key %q missing", lang)
		assert.Nil(t, v, "template key %q should be null", lang)
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt("")
	for _, want := range []string{"English", "russian (ruRU)", "and spanish (esES)", TranslationTemplate()} {
		assert.Contains(t, prompt, want)
	}

	assert.Contains(t, SystemPrompt("a fantasy game"), "a fantasy game")
}
